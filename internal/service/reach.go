package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kong-analysis/internal/equation"
	"github.com/kong-analysis/internal/lifting"
	"github.com/kong-analysis/internal/petri"
	"github.com/kong-analysis/internal/tfg"
	"github.com/kong-analysis/internal/toolchain"
	apperrors "github.com/kong-analysis/pkg/errors"
	"github.com/kong-analysis/pkg/model"
	"github.com/kong-analysis/pkg/telemetry"
	"github.com/kong-analysis/pkg/utils"
)

// Reach decides whether the target marking is reachable in the net.
func (s *Service) Reach(ctx context.Context, infile string, opts *Options) error {
	if opts.MarkingPath == "" {
		return apperrors.New(apperrors.CodeInvalidMarking, "no marking specified")
	}

	ctx, span := telemetry.StartSpan(ctx, string(model.ModeReach))
	defer span.End()

	timer := utils.NewTimer()
	start := time.Now()

	// Read the initial Petri net.
	s.logger.Info("> Read the input net")
	initialNet, err := petri.Load(infile, &petri.LoadOptions{InitialNet: true, NoUnits: true})
	if err != nil {
		return err
	}
	if initialNet.Filename != infile {
		defer os.Remove(initialNet.Filename)
	}

	// Reduce the net.
	reducedPath, cleanupReduced, err := s.reduceNet(ctx, infile, initialNet.Filename, opts, timer)
	if err != nil {
		return err
	}
	defer cleanupReduced()

	// Read the reduced net.
	s.logger.Info("> Read the reduced net")
	reducedNet, err := petri.Load(reducedPath, nil)
	if err != nil {
		return err
	}

	if opts.ShowReductionRatio {
		s.showReductionRatio(initialNet, reducedNet)
	}

	// Build the Token Flow Graph.
	s.logger.Info("> Build the Token Flow Graph")
	equations, err := equation.ParseFile(reducedPath)
	if err != nil {
		return err
	}
	if opts.ShowEquations {
		fmt.Fprintln(s.stdout, "# System of equations")
		for _, eq := range equations {
			fmt.Fprintln(s.stdout, eq.Raw)
		}
	}

	graph := tfg.New(initialNet, reducedNet)
	if err := graph.Build(equations); err != nil {
		return err
	}

	if opts.DrawGraph {
		if err := s.drawGraph(graph, infile); err != nil {
			return err
		}
	}

	// Read the target marking.
	s.logger.Info("> Read the marking")
	data, err := os.ReadFile(opts.MarkingPath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIO, "cannot read marking file", err)
	}
	marking, err := petri.ParseMarking(string(data))
	if err != nil {
		return err
	}

	// Project the marking onto the reduced net.
	s.logger.Info("> Project the marking")
	verdict := model.VerdictUnreachable

	projected, ok := lifting.ProjectMarking(graph, marking)
	switch {
	case !ok:
		// The equations contradict the target: no query needed.
		verdict = model.VerdictUnreachable
	case len(projected) == 0:
		// Tautological projection.
		verdict = model.VerdictReachable
	default:
		if opts.ShowProjectedMarking {
			fmt.Fprintf(s.stdout, "# Projected marking: %s\n",
				toolchain.Formula(projected, reducedNet.Places))
		}

		s.logger.Info("> Query to sift")
		phase := timer.Start("checker")
		reachable, err := s.checker().Reachable(ctx, reducedPath, projected, reducedNet.Places)
		phase.Stop()
		if err != nil {
			return err
		}
		if reachable {
			verdict = model.VerdictReachable
		}
	}

	fmt.Fprintln(s.stdout, string(verdict))

	if opts.ShowTime {
		fmt.Fprintf(s.stdout, "# Computation time: %v (sift: %v)\n",
			time.Since(start), timer.GetDuration("checker"))
	}

	// Archive the verdict when configured.
	if s.archive != nil {
		key := fmt.Sprintf("nets/%s/%s.txt", infilePathBase(infile), model.ModeReach)
		if err := s.archive.Upload(ctx, key, strings.NewReader(string(verdict)+"\n")); err != nil {
			s.logger.Warn("> Cannot archive verdict: %v", err)
		}
	}

	return nil
}
