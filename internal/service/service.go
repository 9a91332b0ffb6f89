// Package service orchestrates the collaborators and the
// change-of-dimension core behind the conc, dead and reach entry
// points.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kong-analysis/internal/petri"
	"github.com/kong-analysis/internal/repository"
	"github.com/kong-analysis/internal/storage"
	"github.com/kong-analysis/internal/toolchain"
	"github.com/kong-analysis/pkg/config"
	"github.com/kong-analysis/pkg/utils"
)

// Options holds the per-invocation flags.
type Options struct {
	// Output shaping
	NoRLE      bool
	PlaceNames bool

	// Diagnostics
	ShowNUPNs            bool
	ShowReductionRatio   bool
	ShowEquations        bool
	ShowReducedResult    bool
	ShowProjectedMarking bool
	DrawGraph            bool
	ShowTime             bool

	// Pipeline selection
	NoUnits        bool
	UseShrink      bool
	SaveReducedNet bool
	ReducedNetPath string
	ReducedResult  string
	BDDTimeout     int
	BDDIterations  int

	// Reach input
	MarkingPath string
}

// Service is the driver: it owns the temporary file lifetimes, invokes
// the external collaborators and runs the lifting.
type Service struct {
	cfg    *config.Config
	logger utils.Logger

	stdout io.Writer
	stderr io.Writer

	cache   repository.ResultRepository
	archive storage.Storage
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) *Service {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Service{
		cfg:    cfg,
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetOutput redirects the primary and secondary streams, mainly for
// tests.
func (s *Service) SetOutput(stdout, stderr io.Writer) {
	s.stdout = stdout
	s.stderr = stderr
}

// Initialize sets up the optional cache and archive backends.
func (s *Service) Initialize(ctx context.Context) error {
	if s.cfg.Cache.Enabled {
		s.logger.Debug("> Connecting to the result cache (%s)", s.cfg.Cache.Type)
		db, err := repository.NewGormDB(&s.cfg.Cache)
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
		s.cache = repository.NewGormResultRepository(db)
	}

	if s.cfg.Archive.Enabled {
		s.logger.Debug("> Initializing the result archive (%s)", s.cfg.Archive.Type)
		store, err := storage.NewStorage(&s.cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to initialize archive: %w", err)
		}
		s.archive = store
	}

	return nil
}

// reducer assembles the reducer client for an invocation.
func (s *Service) reducer(opts *Options) *toolchain.Reducer {
	return &toolchain.Reducer{
		ReducePath: s.cfg.Tools.Reduce,
		ShrinkPath: s.cfg.Tools.Shrink,
		UseShrink:  opts.UseShrink,
		Logger:     s.logger,
	}
}

// oracle assembles the oracle client for an invocation. The flag values
// override the configured limits.
func (s *Service) oracle(opts *Options) *toolchain.Oracle {
	timeout := s.cfg.Oracle.Timeout
	if opts.BDDTimeout > 0 {
		timeout = opts.BDDTimeout
	}
	iterations := s.cfg.Oracle.Iterations
	if opts.BDDIterations > 0 {
		iterations = opts.BDDIterations
	}
	return &toolchain.Oracle{
		Path:       s.cfg.Tools.CaesarBDD,
		Timeout:    timeout,
		Iterations: iterations,
		Logger:     s.logger,
	}
}

// checker assembles the reachability checker client.
func (s *Service) checker() *toolchain.Checker {
	return &toolchain.Checker{
		Path:   s.cfg.Tools.Sift,
		Logger: s.logger,
	}
}

// reduceNet produces the reduced net file, honouring --reduced-net and
// --save-reduced-net, and
// returns its path together with a cleanup function for the temporary
// case.
func (s *Service) reduceNet(ctx context.Context, infile, netfile string, opts *Options, timer *utils.Timer) (string, func(), error) {
	cleanup := func() {}

	if opts.ReducedNetPath != "" {
		return opts.ReducedNetPath, cleanup, nil
	}

	var reducedPath string
	if opts.SaveReducedNet {
		reducedPath = replaceExt(infile, "_reduced.net")
	} else {
		tmp, err := os.CreateTemp("", "kong-*.net")
		if err != nil {
			return "", cleanup, fmt.Errorf("cannot create temporary net: %w", err)
		}
		tmp.Close()
		reducedPath = tmp.Name()
		cleanup = func() { os.Remove(reducedPath) }
	}

	s.logger.Info("> Reduce the input net")
	phase := timer.Start("reduction")
	err := s.reducer(opts).Reduce(ctx, netfile, reducedPath)
	phase.Stop()
	if err != nil {
		cleanup()
		return "", func() {}, err
	}

	if opts.ShowTime {
		fmt.Fprintf(s.stdout, "# Reduction time: %v\n", timer.GetDuration("reduction"))
	}

	return reducedPath, cleanup, nil
}

// replaceExt swaps the extension of a path for a suffix.
func replaceExt(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// showReductionRatio prints the place-count reduction percentage.
func (s *Service) showReductionRatio(initialNet, reducedNet *petri.PetriNet) {
	ratio := reductionRatio(initialNet, reducedNet)
	fmt.Fprintf(s.stdout, "# Reduction ratio: %v\n", ratio)
}

// reductionRatio computes the percentage of removed places.
func reductionRatio(initialNet, reducedNet *petri.PetriNet) float64 {
	if initialNet.NumberPlaces() == 0 {
		return 0
	}
	return (1 - float64(reducedNet.NumberPlaces())/float64(initialNet.NumberPlaces())) * 100
}

// drawGraph writes the DOT rendering of the graph next to the input
// file.
func (s *Service) drawGraph(g interface{ WriteDot(io.Writer) error }, infile string) error {
	path := replaceExt(infile, "_tfg.dot")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create graph file: %w", err)
	}
	defer f.Close()

	if err := g.WriteDot(f); err != nil {
		return err
	}
	s.logger.Info("> Token Flow Graph written to %s", path)
	return nil
}
