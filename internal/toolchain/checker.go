package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/kong-analysis/internal/petri"
	apperrors "github.com/kong-analysis/pkg/errors"
	"github.com/kong-analysis/pkg/utils"
)

// reachableHeader is the first output line of the checker when some
// state violates the negated condition, i.e. when the target marking is
// reachable.
const reachableHeader = "some state violates condition -f:"

// Checker decides marking reachability on the reduced net by querying
// the sift tool with a negated state formula.
type Checker struct {
	Path   string
	Logger utils.Logger
}

// Reachable asks whether the projected marking is reachable on the
// reduced net.
func (c *Checker) Reachable(ctx context.Context, netPath string, marking petri.Marking, order []string) (bool, error) {
	formula := Formula(marking, order)

	tmp, err := os.CreateTemp("", "kong-*.formula")
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeIO, "cannot create formula file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(formula); err != nil {
		tmp.Close()
		return false, apperrors.Wrap(apperrors.CodeIO, "cannot write formula file", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, c.Path, netPath, "-ff", tmp.Name())
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if c.Logger != nil {
		c.Logger.Debug("> Running %s", cmd.String())
	}

	if err := cmd.Run(); err != nil {
		return false, apperrors.Wrap(apperrors.CodeOracleFailure,
			"reachability checker exited abnormally", err)
	}

	lines := strings.SplitN(stdout.String(), "\n", 2)
	return lines[0] == reachableHeader, nil
}

// Formula renders the negated target-state formula the checker expects:
// `- (p1 = n1 /\ p2 = n2 /\ ...)`. Places follow the given order; any
// marking entry outside it comes last, alphabetically.
func Formula(marking petri.Marking, order []string) string {
	terms := make([]string, 0, len(marking))
	seen := make(map[string]bool, len(marking))

	for _, place := range order {
		if tokens, ok := marking[place]; ok {
			terms = append(terms, fmt.Sprintf("%s = %d", place, tokens))
			seen[place] = true
		}
	}

	var rest []string
	for place := range marking {
		if !seen[place] {
			rest = append(rest, place)
		}
	}
	sort.Strings(rest)
	for _, place := range rest {
		terms = append(terms, fmt.Sprintf("%s = %d", place, marking[place]))
	}

	return "- (" + strings.Join(terms, ` /\ `) + ")"
}
