package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kong-analysis/internal/equation"
	"github.com/kong-analysis/internal/lifting"
	"github.com/kong-analysis/internal/matrix"
	"github.com/kong-analysis/internal/petri"
	"github.com/kong-analysis/internal/tfg"
	"github.com/kong-analysis/pkg/model"
	"github.com/kong-analysis/pkg/telemetry"
	"github.com/kong-analysis/pkg/utils"
)

// Conc computes the concurrency matrix of the net.
func (s *Service) Conc(ctx context.Context, infile string, opts *Options) error {
	return s.concDead(ctx, infile, opts, model.ModeConcurrency)
}

// Dead computes the dead places vector of the net.
func (s *Service) Dead(ctx context.Context, infile string, opts *Options) error {
	return s.concDead(ctx, infile, opts, model.ModeDead)
}

// concDead is the shared concurrent/dead places pipeline.
func (s *Service) concDead(ctx context.Context, infile string, opts *Options, mode model.Mode) error {
	computation := "concurrency matrix"
	if mode == model.ModeDead {
		computation = "dead places vector"
	}

	ctx, span := telemetry.StartSpan(ctx, string(mode))
	defer span.End()

	timer := utils.NewTimer()

	// Serve from the cache when possible.
	if served, err := s.serveFromCache(ctx, infile, opts, mode); served || err != nil {
		return err
	}

	// Convert a .nupn input to .pnml first.
	netfile := infile
	var tempFiles []string
	defer func() {
		for _, path := range tempFiles {
			os.Remove(path)
		}
	}()

	if strings.HasSuffix(strings.ToLower(infile), ".nupn") {
		s.logger.Info("> Convert '.nupn' to '.pnml'")
		tmp, err := os.CreateTemp("", "kong-*.pnml")
		if err != nil {
			return fmt.Errorf("cannot create temporary pnml: %w", err)
		}
		tmp.Close()
		tempFiles = append(tempFiles, tmp.Name())
		if err := s.oracle(opts).ConvertToPNML(ctx, infile, tmp.Name()); err != nil {
			return err
		}
		netfile = tmp.Name()
	}

	// Read the initial Petri net.
	s.logger.Info("> Read the input net")
	initialNet, err := petri.Load(netfile, &petri.LoadOptions{InitialNet: true, NoUnits: opts.NoUnits})
	if err != nil {
		return err
	}
	if initialNet.Filename != netfile {
		tempFiles = append(tempFiles, initialNet.Filename)
	}
	netfile = initialNet.Filename

	if opts.ShowNUPNs && initialNet.NUPN != nil {
		fmt.Fprintln(s.stdout, "# Initial NUPN")
		fmt.Fprintln(s.stdout, initialNet.NUPN)
	}

	// Reduce the net.
	reducedPath, cleanupReduced, err := s.reduceNet(ctx, infile, netfile, opts, timer)
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

	// Query the oracle on the reduced net.
	computeStart := time.Now()
	var reducedMatrix matrix.Matrix
	complete := true

	if reducedNet.NumberPlaces() > 0 {
		// Project the units of the initial net onto the reduced one.
		if !opts.NoUnits && initialNet.NUPN != nil {
			s.logger.Info("> Project units")
			graph.ProjectUnits()
		}

		if opts.ShowNUPNs && reducedNet.NUPN != nil {
			fmt.Fprintln(s.stdout, "# Reduced NUPN")
			fmt.Fprintln(s.stdout, reducedNet.NUPN)
		}

		reducedMatrix, complete, err = s.reducedResult(ctx, reducedNet, opts, mode, timer)
		if err != nil {
			return err
		}
	}

	if opts.ShowReducedResult {
		fmt.Fprintf(s.stderr, "# Reduced %s\n", computation)
		printOpts := matrix.PrintOptions{NoRLE: opts.NoRLE, PlaceNames: opts.PlaceNames, Prefix: "# "}
		if err := matrix.Fprint(s.stderr, reducedMatrix, reducedNet.Places, printOpts); err != nil {
			return err
		}
	}

	// Change of dimension.
	s.logger.Info("> Change of dimension")
	phase := timer.Start("lifting")
	var rows [][]matrix.Value
	var output bytes.Buffer
	printOpts := matrix.PrintOptions{NoRLE: opts.NoRLE, PlaceNames: opts.PlaceNames}

	if mode == model.ModeDead {
		var reducedVector matrix.Vector
		if len(reducedMatrix) > 0 {
			reducedVector = matrix.Vector(reducedMatrix[0])
		}
		vector := lifting.DeadPlacesVector(graph, reducedVector, complete)
		rows = [][]matrix.Value{vector}
	} else {
		rows = lifting.ConcurrencyMatrix(graph, reducedMatrix, complete)
	}
	phase.Stop()

	if err := matrix.Fprint(&output, rows, initialNet.Places, printOpts); err != nil {
		return err
	}
	if _, err := s.stdout.Write(output.Bytes()); err != nil {
		return err
	}

	if opts.ShowTime {
		oracleTime := timer.GetDuration("oracle")
		fmt.Fprintf(s.stdout, "# Computation time: %v (caesar.bdd: %v + Change of Dimension: %v)\n",
			time.Since(computeStart), oracleTime, timer.GetDuration("lifting"))
	}

	// Persist the result when a cache or archive is configured.
	s.persistResult(ctx, infile, initialNet, reducedNet, rows, complete, mode, timer)

	return nil
}

// reducedResult obtains the matrix or vector of the reduced net, either
// from the oracle or from a pre-computed file.
func (s *Service) reducedResult(ctx context.Context, reducedNet *petri.PetriNet, opts *Options, mode model.Mode, timer *utils.Timer) (matrix.Matrix, bool, error) {
	computation := "concurrency matrix"
	if mode == model.ModeDead {
		computation = "dead places vector"
	}

	if opts.ReducedResult != "" {
		s.logger.Info("> Read the %s of the reduced net", computation)
		data, err := os.ReadFile(opts.ReducedResult)
		if err != nil {
			return nil, false, fmt.Errorf("cannot read reduced result: %w", err)
		}
		m, complete, err := matrix.Decode(string(data))
		return m, complete, err
	}

	// Export the reduced net in the .nupn format the oracle consumes.
	s.logger.Info("> Convert the reduced Petri net to '.nupn' format")
	tmp, err := os.CreateTemp("", "kong-*.nupn")
	if err != nil {
		return nil, false, fmt.Errorf("cannot create temporary nupn: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())
	if err := reducedNet.ExportNUPN(tmp.Name()); err != nil {
		return nil, false, err
	}

	s.logger.Info("> Compute the %s of the reduced net", computation)
	phase := timer.Start("oracle")
	var raw string
	var completeRun bool
	if mode == model.ModeDead {
		raw, completeRun, err = s.oracle(opts).DeadPlaces(ctx, tmp.Name())
	} else {
		raw, completeRun, err = s.oracle(opts).ConcurrentPlaces(ctx, tmp.Name())
	}
	phase.Stop()
	if err != nil {
		return nil, false, err
	}

	m, completeCells, err := matrix.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	return m, completeRun && completeCells, nil
}

// persistResult stores the computed result in the cache and uploads it
// to the archive, when configured.
func (s *Service) persistResult(ctx context.Context, infile string, initialNet, reducedNet *petri.PetriNet, rows [][]matrix.Value, complete bool, mode model.Mode, timer *utils.Timer) {
	if s.cache == nil && s.archive == nil {
		return
	}

	// The canonical stored form is the cell-per-cell rendering.
	var canonical bytes.Buffer
	if err := matrix.Fprint(&canonical, rows, initialNet.Places, matrix.PrintOptions{NoRLE: true}); err != nil {
		return
	}

	digest, err := model.DigestFile(infile)
	if err != nil {
		s.logger.Warn("> Cannot digest input net: %v", err)
		return
	}

	result := &model.Result{
		NetName:        infilePathBase(infile),
		NetDigest:      digest,
		Mode:           mode,
		Complete:       complete,
		Places:         initialNet.NumberPlaces(),
		ReducedPlaces:  reducedNet.NumberPlaces(),
		ReductionRatio: reductionRatio(initialNet, reducedNet),
		Output:         canonical.String(),
		ReductionTime:  timer.GetDuration("reduction"),
		OracleTime:     timer.GetDuration("oracle"),
		LiftingTime:    timer.GetDuration("lifting"),
		ComputedAt:     time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.SaveResult(ctx, result); err != nil {
			s.logger.Warn("> Cannot cache result: %v", err)
		}
	}

	if s.archive != nil {
		key := fmt.Sprintf("nets/%s/%s.txt", result.NetName, mode)
		if err := s.archive.Upload(ctx, key, strings.NewReader(result.Output)); err != nil {
			s.logger.Warn("> Cannot archive result: %v", err)
		} else {
			s.logger.Debug("> Result archived to %s", s.archive.GetURL(key))
		}
	}
}

// serveFromCache prints a cached result when the cache holds one for
// this input. The canonical stored matrix is re-encoded with the
// current rendering options.
func (s *Service) serveFromCache(ctx context.Context, infile string, opts *Options, mode model.Mode) (bool, error) {
	// Cached entries hold no place names, so a --place-names run always
	// recomputes.
	if s.cache == nil || opts.PlaceNames {
		return false, nil
	}

	digest, err := model.DigestFile(infile)
	if err != nil {
		// Let the pipeline surface the read failure with context.
		return false, nil
	}

	cached, err := s.cache.GetResult(ctx, digest, mode)
	if err != nil {
		s.logger.Warn("> Cache lookup failed: %v", err)
		return false, nil
	}
	if cached == nil {
		return false, nil
	}

	s.logger.Info("> Result served from cache")
	rows, _, err := matrix.Decode(cached.Output)
	if err != nil {
		s.logger.Warn("> Corrupt cache entry, recomputing: %v", err)
		return false, nil
	}

	places := make([]string, len(rows))
	if mode == model.ModeDead && len(rows) == 1 {
		places = make([]string, len(rows[0]))
	}
	for i := range places {
		places[i] = fmt.Sprintf("p%d", i)
	}

	printOpts := matrix.PrintOptions{NoRLE: opts.NoRLE}
	if err := matrix.Fprint(s.stdout, rows, places, printOpts); err != nil {
		return true, err
	}
	return true, nil
}

// infilePathBase returns the file name without directory and extension.
func infilePathBase(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
