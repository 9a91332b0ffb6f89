package main

import "github.com/kong-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
