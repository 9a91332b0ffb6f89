package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	apperrors "github.com/kong-analysis/pkg/errors"
	"github.com/kong-analysis/pkg/utils"
)

// Environment variables the oracle honours for bounding its marking
// graph exploration.
const (
	envBDDTimeout    = "CAESAR_BDD_TIMEOUT"
	envBDDIterations = "CAESAR_BDD_ITERATIONS"
)

// partialExitCode is the oracle status for a bounded, incomplete
// exploration.
const partialExitCode = 5

// Oracle runs caesar.bdd on a .nupn file and returns its raw textual
// output. The limits are passed through verbatim via the environment.
type Oracle struct {
	Path string

	// Timeout and Iterations bound the exploration; zero leaves the
	// corresponding variable untouched.
	Timeout    int
	Iterations int

	Logger utils.Logger
}

// ConcurrentPlaces computes the concurrency matrix of the net. The
// returned flag is true when the exploration completed.
func (o *Oracle) ConcurrentPlaces(ctx context.Context, nupnPath string) (string, bool, error) {
	return o.run(ctx, "-concurrent-places", nupnPath)
}

// DeadPlaces computes the dead places vector of the net.
func (o *Oracle) DeadPlaces(ctx context.Context, nupnPath string) (string, bool, error) {
	return o.run(ctx, "-dead-places", nupnPath)
}

// ConvertToPNML converts a .nupn input into .pnml, written to output.
func (o *Oracle) ConvertToPNML(ctx context.Context, nupnPath, pnmlPath string) error {
	out, err := os.Create(pnmlPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIO, "cannot create pnml file", err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, o.Path, "-pnml", nupnPath)
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		return apperrors.Wrap(apperrors.CodeOracleFailure, "nupn conversion failed", err)
	}
	return nil
}

// run invokes the oracle with one option and decodes its exit status:
// 0 is a complete result, 5 a partial one, anything else a failure.
func (o *Oracle) run(ctx context.Context, option, nupnPath string) (string, bool, error) {
	cmd := exec.CommandContext(ctx, o.Path, option, nupnPath)
	cmd.Env = o.environment()

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if o.Logger != nil {
		o.Logger.Debug("> Running %s", cmd.String())
	}

	err := cmd.Run()
	if err == nil {
		return stdout.String(), true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == partialExitCode {
		// Bounded exploration: switch to partial mode instead of
		// failing.
		return stdout.String(), false, nil
	}

	return "", false, apperrors.Wrap(apperrors.CodeOracleFailure,
		"unexpected oracle status", err)
}

// environment builds the oracle environment, overriding the exploration
// limits when configured and warning when they are inherited.
func (o *Oracle) environment() []string {
	env := os.Environ()

	if o.Timeout > 0 {
		value := fmt.Sprintf("%d", o.Timeout)
		env = append(env, envBDDTimeout+"="+value)
		if o.Logger != nil {
			o.Logger.Debug("> Set environment variable %s to `%s'", envBDDTimeout, value)
		}
	} else if inherited := os.Getenv(envBDDTimeout); inherited != "" && o.Logger != nil {
		o.Logger.Warn("> Environment variable %s is already set to `%s'", envBDDTimeout, inherited)
	}

	if o.Iterations > 0 {
		value := fmt.Sprintf("%d", o.Iterations)
		env = append(env, envBDDIterations+"="+value)
		if o.Logger != nil {
			o.Logger.Debug("> Set environment variable %s to `%s'", envBDDIterations, value)
		}
	} else if inherited := os.Getenv(envBDDIterations); inherited != "" && o.Logger != nil {
		o.Logger.Warn("> Environment variable %s is already set to `%s'", envBDDIterations, inherited)
	}

	return env
}
