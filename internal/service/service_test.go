package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kong-analysis/pkg/config"
	"github.com/kong-analysis/pkg/utils"
)

const testNet = `
pl p (1)
pl q
pl r
tr t0 p -> q
tr t1 q -> r
`

// testReduced is what the fake reducer emits: p subsumed by q.
const testReduced = `# generated equations
# R |- p = q

pl q (1)
pl r
tr t1 q -> r
`

// writeScript drops an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not runnable on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// testEnv prepares an input net, a fake toolchain and a wired service.
type testEnv struct {
	svc    *Service
	cfg    *config.Config
	infile string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

// newTestEnv builds the environment with a fake reducer and an oracle
// that prints the given matrix.
func newTestEnv(t *testing.T, oracleOutput string, oracleExit int) *testEnv {
	t.Helper()
	dir := t.TempDir()

	infile := filepath.Join(dir, "net.net")
	require.NoError(t, os.WriteFile(infile, []byte(testNet), 0644))

	reducedFixture := filepath.Join(dir, "fixture_reduced.net")
	require.NoError(t, os.WriteFile(reducedFixture, []byte(testReduced), 0644))

	shrink := writeScript(t, dir, "shrink.sh", `
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
cp `+reducedFixture+` "$out"
`)

	oracle := writeScript(t, dir, "caesar.sh", `
case "$1" in
-concurrent-places|-dead-places)
  echo calls >> `+filepath.Join(dir, "oracle_calls")+`
  printf '`+oracleOutput+`'
  exit `+strconv.Itoa(oracleExit)+`
  ;;
esac
`)

	sift := writeScript(t, dir, "sift.sh", `printf 'some state violates condition -f:\nstate 3\n'`)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Tools.Shrink = shrink
	cfg.Tools.CaesarBDD = oracle
	cfg.Tools.Sift = sift

	svc := New(cfg, utils.NewDefaultLogger(utils.LevelError, nil))
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	svc.SetOutput(stdout, stderr)

	return &testEnv{svc: svc, cfg: cfg, infile: infile, stdout: stdout, stderr: stderr, dir: dir}
}

func defaultOptions() *Options {
	return &Options{UseShrink: true}
}

func TestConc_EndToEnd(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	err := env.svc.Conc(context.Background(), env.infile, defaultOptions())
	require.NoError(t, err)

	// p = q lifts the reduced 2x2 matrix to the 3x3 one.
	assert.Equal(t, "1\n11\n001\n", env.stdout.String())
}

func TestConc_ShowReducedResult(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	opts := defaultOptions()
	opts.ShowReducedResult = true
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	assert.Contains(t, env.stderr.String(), "# Reduced concurrency matrix")
	assert.Contains(t, env.stderr.String(), "# 1\n# 01\n")
}

func TestConc_ShowEquationsAndRatio(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	opts := defaultOptions()
	opts.ShowEquations = true
	opts.ShowReductionRatio = true
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	out := env.stdout.String()
	assert.Contains(t, out, "# System of equations")
	assert.Contains(t, out, "R |- p = q")
	assert.Contains(t, out, "# Reduction ratio: 33.3")
}

func TestConc_PartialOracle(t *testing.T) {
	// Exit status 5 with unknown cells: partial mode.
	env := newTestEnv(t, `.\n..\n`, 5)

	require.NoError(t, env.svc.Conc(context.Background(), env.infile, defaultOptions()))

	// No 1 without positive evidence; p inherits nothing decidable.
	out := env.stdout.String()
	assert.NotContains(t, out, "1")
}

func TestDead_EndToEnd(t *testing.T) {
	env := newTestEnv(t, `01\n`, 0)

	require.NoError(t, env.svc.Dead(context.Background(), env.infile, defaultOptions()))

	// q alive lifts to p; r stays dead.
	assert.Equal(t, "001\n", env.stdout.String())
}

func TestConc_SaveReducedNet(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	opts := defaultOptions()
	opts.SaveReducedNet = true
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	saved := filepath.Join(env.dir, "net_reduced.net")
	_, err := os.Stat(saved)
	assert.NoError(t, err)
}

func TestConc_PreReducedNet(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	// Break the reducer: it must not run when --reduced-net is given.
	env.cfg.Tools.Shrink = "/nonexistent/shrink"
	pre := filepath.Join(env.dir, "pre_reduced.net")
	require.NoError(t, os.WriteFile(pre, []byte(testReduced), 0644))

	opts := defaultOptions()
	opts.ReducedNetPath = pre
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	assert.Equal(t, "1\n11\n001\n", env.stdout.String())
}

func TestConc_PreComputedMatrix(t *testing.T) {
	env := newTestEnv(t, ``, 1) // the oracle would fail if consulted

	pre := filepath.Join(env.dir, "reduced_matrix.txt")
	require.NoError(t, os.WriteFile(pre, []byte("1\n01\n"), 0644))

	opts := defaultOptions()
	opts.ReducedResult = pre
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	assert.Equal(t, "1\n11\n001\n", env.stdout.String())
}

func TestConc_OracleFailure(t *testing.T) {
	env := newTestEnv(t, ``, 3)

	err := env.svc.Conc(context.Background(), env.infile, defaultOptions())
	assert.Error(t, err)
	assert.Empty(t, env.stdout.String())
}

func TestConc_DrawGraph(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)

	opts := defaultOptions()
	opts.DrawGraph = true
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, opts))

	data, err := os.ReadFile(filepath.Join(env.dir, "net_tfg.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "graph TFG {")
}

func TestReach_ViaChecker(t *testing.T) {
	env := newTestEnv(t, ``, 0)

	markingFile := filepath.Join(env.dir, "marking.txt")
	require.NoError(t, os.WriteFile(markingFile, []byte("p q*1"), 0644))

	opts := defaultOptions()
	opts.MarkingPath = markingFile
	opts.ShowProjectedMarking = true
	require.NoError(t, env.svc.Reach(context.Background(), env.infile, opts))

	out := env.stdout.String()
	assert.Contains(t, out, "REACHABLE")
	assert.Contains(t, out, "# Projected marking: - (q = 1")
}

func TestReach_ContradictionSkipsChecker(t *testing.T) {
	env := newTestEnv(t, ``, 0)
	// A checker that fails loudly: it must not be consulted.
	env.cfg.Tools.Sift = writeScript(t, env.dir, "sift_fail.sh", `exit 1`)

	markingFile := filepath.Join(env.dir, "marking.txt")
	// p = 1 with q = 0 contradicts p = q.
	require.NoError(t, os.WriteFile(markingFile, []byte("p*1"), 0644))

	opts := defaultOptions()
	opts.MarkingPath = markingFile
	require.NoError(t, env.svc.Reach(context.Background(), env.infile, opts))

	assert.Equal(t, "UNREACHABLE\n", env.stdout.String())
}

func TestReach_NoMarking(t *testing.T) {
	env := newTestEnv(t, ``, 0)

	err := env.svc.Reach(context.Background(), env.infile, defaultOptions())
	assert.Error(t, err)
}

func TestConc_CacheRoundTrip(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)
	env.cfg.Cache.Enabled = true
	env.cfg.Cache.Type = "sqlite"
	env.cfg.Cache.Path = filepath.Join(env.dir, "cache.db")
	require.NoError(t, env.svc.Initialize(context.Background()))

	require.NoError(t, env.svc.Conc(context.Background(), env.infile, defaultOptions()))
	first := env.stdout.String()

	env.stdout.Reset()
	require.NoError(t, env.svc.Conc(context.Background(), env.infile, defaultOptions()))
	assert.Equal(t, first, env.stdout.String())

	// The oracle ran only for the first invocation.
	calls, err := os.ReadFile(filepath.Join(env.dir, "oracle_calls"))
	require.NoError(t, err)
	assert.Equal(t, "calls\n", string(calls))
}

func TestConc_ArchiveUpload(t *testing.T) {
	env := newTestEnv(t, `1\n01\n`, 0)
	archiveDir := filepath.Join(env.dir, "archive")
	env.cfg.Archive.Enabled = true
	env.cfg.Archive.Type = "local"
	env.cfg.Archive.LocalPath = archiveDir
	require.NoError(t, env.svc.Initialize(context.Background()))

	require.NoError(t, env.svc.Conc(context.Background(), env.infile, defaultOptions()))

	data, err := os.ReadFile(filepath.Join(archiveDir, "nets", "net", "conc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n11\n001\n", string(data))
}
