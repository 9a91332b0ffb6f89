// Package toolchain wraps the external collaborators: the structural
// reducer, the BDD oracle and the reachability checker. All calls are
// synchronous process invocations.
package toolchain

import (
	"context"
	"os/exec"

	apperrors "github.com/kong-analysis/pkg/errors"
	"github.com/kong-analysis/pkg/utils"
)

// reduceArgs is the fixed rule set handed to the reduce tool.
var reduceArgs = []string{
	"-rg,redundant,compact,4ti2",
	"-redundant-limit", "650",
	"-redundant-time", "10",
	"-inv-limit", "1000",
	"-inv-time", "10",
	"-PNML",
}

// Reducer produces a structurally reduced net together with its
// equation block.
type Reducer struct {
	// ReducePath and ShrinkPath locate the two supported reducers.
	ReducePath string
	ShrinkPath string

	// UseShrink forces the alternative reducer.
	UseShrink bool

	Logger utils.Logger
}

// Reduce writes the reduced net of input to output. The reduce tool is
// preferred; shrink is used when requested or when reduce is not
// installed.
func (r *Reducer) Reduce(ctx context.Context, input, output string) error {
	var cmd *exec.Cmd
	if !r.UseShrink && commandExists(r.ReducePath) {
		args := append(append([]string{}, reduceArgs...), input, output)
		cmd = exec.CommandContext(ctx, r.ReducePath, args...)
	} else {
		cmd = exec.CommandContext(ctx, r.ShrinkPath,
			"--equations", "--clean", "--redundant", "--compact",
			"-i", input, "-o", output)
	}

	if r.Logger != nil {
		r.Logger.Debug("> Running %s", cmd.String())
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		if r.Logger != nil && len(out) > 0 {
			r.Logger.Error("%s", out)
		}
		return apperrors.Wrap(apperrors.CodeReducerFailure, "reducer exited abnormally", err)
	}
	return nil
}

// commandExists reports whether a binary resolves on PATH or as a file.
func commandExists(path string) bool {
	_, err := exec.LookPath(path)
	return err == nil
}
