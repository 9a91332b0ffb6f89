package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kong-analysis/internal/petri"
	apperrors "github.com/kong-analysis/pkg/errors"
)

// fakeTool writes an executable shell script and returns its path.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not runnable on windows")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestFormula(t *testing.T) {
	marking := petri.Marking{"p1": 2, "p0": 1}
	formula := Formula(marking, []string{"p0", "p1"})

	assert.Equal(t, `- (p0 = 1 /\ p1 = 2)`, formula)
}

func TestFormula_UnorderedPlaces(t *testing.T) {
	marking := petri.Marking{"z": 1, "a": 2}
	formula := Formula(marking, nil)

	assert.Equal(t, `- (a = 2 /\ z = 1)`, formula)
}

func TestOracle_Complete(t *testing.T) {
	oracle := &Oracle{Path: fakeTool(t, `printf '1\n01\n'`)}

	out, complete, err := oracle.ConcurrentPlaces(context.Background(), "net.nupn")
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "1\n01\n", out)
}

func TestOracle_Partial(t *testing.T) {
	oracle := &Oracle{Path: fakeTool(t, `printf '.\n..\n'; exit 5`)}

	out, complete, err := oracle.DeadPlaces(context.Background(), "net.nupn")
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, ".\n..\n", out)
}

func TestOracle_Failure(t *testing.T) {
	oracle := &Oracle{Path: fakeTool(t, `exit 3`)}

	_, _, err := oracle.ConcurrentPlaces(context.Background(), "net.nupn")
	require.Error(t, err)
	assert.True(t, apperrors.IsOracleFailure(err))
}

func TestOracle_ConvertToPNML(t *testing.T) {
	oracle := &Oracle{Path: fakeTool(t, `printf '<pnml/>'`)}
	out := filepath.Join(t.TempDir(), "out.pnml")

	require.NoError(t, oracle.ConvertToPNML(context.Background(), "net.nupn", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<pnml/>", string(data))
}

func TestChecker_Reachable(t *testing.T) {
	checker := &Checker{Path: fakeTool(t, `printf 'some state violates condition -f:\nstate 4\n'`)}

	reachable, err := checker.Reachable(context.Background(), "net.net",
		petri.Marking{"p0": 1}, []string{"p0"})
	require.NoError(t, err)
	assert.True(t, reachable)
}

func TestChecker_Unreachable(t *testing.T) {
	checker := &Checker{Path: fakeTool(t, `printf 'no state violates condition -f\n'`)}

	reachable, err := checker.Reachable(context.Background(), "net.net",
		petri.Marking{"p0": 1}, []string{"p0"})
	require.NoError(t, err)
	assert.False(t, reachable)
}

func TestChecker_Failure(t *testing.T) {
	checker := &Checker{Path: fakeTool(t, `exit 1`)}

	_, err := checker.Reachable(context.Background(), "net.net",
		petri.Marking{"p0": 1}, []string{"p0"})
	require.Error(t, err)
	assert.True(t, apperrors.IsOracleFailure(err))
}

func TestReducer_Shrink(t *testing.T) {
	output := filepath.Join(t.TempDir(), "reduced.net")
	reducer := &Reducer{
		ShrinkPath: fakeTool(t, `
while [ $# -gt 1 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
printf '# generated equations\n\n' > "$out"
`),
		UseShrink: true,
	}

	require.NoError(t, reducer.Reduce(context.Background(), "in.pnml", output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# generated equations")
}

func TestReducer_Failure(t *testing.T) {
	reducer := &Reducer{
		ShrinkPath: fakeTool(t, `exit 2`),
		UseShrink:  true,
	}

	err := reducer.Reduce(context.Background(), "in.pnml", "out.net")
	require.Error(t, err)
	assert.True(t, apperrors.IsReducerFailure(err))
}

func TestReducer_FallsBackToShrink(t *testing.T) {
	output := filepath.Join(t.TempDir(), "reduced.net")
	reducer := &Reducer{
		// A reduce binary that does not exist anywhere.
		ReducePath: filepath.Join(t.TempDir(), "no-such-reduce"),
		ShrinkPath: fakeTool(t, `: > /dev/null`),
	}

	assert.NoError(t, reducer.Reduce(context.Background(), "in.pnml", output))
}
