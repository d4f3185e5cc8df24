// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/katalvlaran/sparsekit/baseline"
	"github.com/katalvlaran/sparsekit/generate"
	"github.com/katalvlaran/sparsekit/gpu"
	"github.com/katalvlaran/sparsekit/matrix"
	"github.com/katalvlaran/sparsekit/mtx"
	"github.com/katalvlaran/sparsekit/spgemm"
	"github.com/katalvlaran/sparsekit/spy"
)

// engineNames lists the engines in report order.
var engineNames = []string{"dense", "sparse", "par", "coo-par", "gpu", "gonum"}

var (
	errUnknownEngine = errors.New("unknown engine")
	errMismatch      = errors.New("result differs from the dense product")
	errNoEngine      = errors.New("no engine selected")
)

type config struct {
	PathA, PathB      string
	Rows, Inner, Cols int
	Density           float64
	Seed              int64
	Engines           []string
	Workers           int
	Schedule          string
	Batch             int
	Backend           string
	GPUBatch          int // 0 means gpu.DefaultBatchSize
	Verify            bool
	OutPath, SpyPath  string
}

// outcome is one engine's product in every form the reporting needs.
type outcome struct {
	dense   *matrix.Dense
	coo     *matrix.COO
	stored  int // entries as produced
	elapsed time.Duration
}

type engineFunc func(ctx context.Context, a, b *matrix.CSR) (outcome, error)

func run(ctx context.Context, cfg config, stdout io.Writer, log *slog.Logger) error {
	if len(cfg.Engines) == 0 {
		return errNoEngine
	}
	for _, name := range cfg.Engines {
		if !slices.Contains(engineNames, name) {
			return fmt.Errorf("%q: %w", name, errUnknownEngine)
		}
	}
	sched, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}
	if cfg.Batch <= 0 || cfg.Workers < 0 {
		return fmt.Errorf("batch must be > 0 and workers >= 0")
	}
	if cfg.GPUBatch < 0 || cfg.GPUBatch > gpu.MaxBatchSize {
		return fmt.Errorf("gpu batch must be in [0, %d]", gpu.MaxBatchSize)
	}

	a, err := operand(cfg.PathA, cfg.Rows, cfg.Inner, cfg.Density, cfg.Seed)
	if err != nil {
		return fmt.Errorf("operand A: %w", err)
	}
	b, err := operand(cfg.PathB, cfg.Inner, cfg.Cols, cfg.Density, cfg.Seed+1)
	if err != nil {
		return fmt.Errorf("operand B: %w", err)
	}
	predicted, err := spgemm.PredictNNZ(a, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "A %dx%d nnz=%d  B %dx%d nnz=%d  predicted=%d\n",
		a.Rows(), a.Cols(), a.NNZ(), b.Rows(), b.Cols(), b.NNZ(), predicted)

	eng := spgemm.NewEngine(
		spgemm.WithWorkers(cfg.Workers),
		spgemm.WithSchedule(sched),
		spgemm.WithBatchSize(cfg.Batch),
		spgemm.WithLogger(log),
	)
	defer eng.Close()

	engines := map[string]engineFunc{
		"dense":   denseEngine,
		"sparse":  sparseEngine,
		"par":     parEngine(eng),
		"coo-par": cooParEngine(eng),
		"gpu":     gpuEngine(cfg.Backend, cfg.GPUBatch, log),
		"gonum":   gonumEngine,
	}

	var reference *matrix.Dense
	if cfg.Verify {
		if reference, err = spgemm.Product(a, b); err != nil {
			return err
		}
	}

	var first *outcome
	for _, name := range cfg.Engines {
		res, err := engines[name](ctx, a, b)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Debug("engine finished", "engine", name, "stored", res.stored, "elapsed", res.elapsed)
		fmt.Fprintf(stdout, "%-8s stored=%-10d elapsed=%v\n", name, res.stored, res.elapsed)

		if reference != nil {
			ok, err := matrix.AllClose(res.dense, reference, 0, matrix.DefaultAbsTol)
			if err != nil {
				return fmt.Errorf("%s: verify: %w", name, err)
			}
			if !ok {
				diff, _ := matrix.MaxAbsDiff(res.dense, reference)
				return fmt.Errorf("%s: max |Δ| = %g: %w", name, diff, errMismatch)
			}
		}
		if first == nil {
			first = &res
		}
	}
	if cfg.Verify {
		fmt.Fprintln(stdout, "verify: all engines agree")
	}

	return emit(cfg, first, log)
}

// emit writes the optional product file and plot of the first engine.
func emit(cfg config, res *outcome, log *slog.Logger) error {
	if cfg.OutPath == "" && cfg.SpyPath == "" {
		return nil
	}
	coo := res.coo
	if coo == nil {
		csr, err := matrix.NewCSRFromDense(res.dense)
		if err != nil {
			return err
		}
		coo = csr.ToCOO()
	}
	if cfg.OutPath != "" {
		if err := mtx.WriteFile(cfg.OutPath, coo); err != nil {
			return err
		}
		log.Info("product written", "path", cfg.OutPath, "entries", coo.Len())
	}
	if cfg.SpyPath != "" {
		if err := spy.SaveFile(cfg.SpyPath, coo, spy.WithTitle("A·B")); err != nil {
			return err
		}
		log.Info("pattern plotted", "path", cfg.SpyPath)
	}

	return nil
}

func parseSchedule(s string) (spgemm.Schedule, error) {
	switch s {
	case "static":
		return spgemm.ScheduleStatic, nil
	case "dynamic":
		return spgemm.ScheduleDynamic, nil
	default:
		return 0, fmt.Errorf("schedule %q: want static or dynamic", s)
	}
}

// operand reads path, or generates an integer-valued rows×cols matrix when
// path is empty. Files need not be sorted by row.
func operand(path string, rows, cols int, density float64, seed int64) (*matrix.CSR, error) {
	var (
		coo *matrix.COO
		err error
	)
	if path == "" {
		coo, err = generate.RandomSparse(rows, cols, density, generate.WithSeed(seed), generate.DefaultIntValues())
	} else {
		coo, err = mtx.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	return matrix.NewCSRFromCOO(coo, matrix.WithRowSort())
}

func denseEngine(_ context.Context, a, b *matrix.CSR) (outcome, error) {
	start := time.Now()
	d, err := spgemm.Product(a, b)
	if err != nil {
		return outcome{}, err
	}

	return outcome{dense: d, stored: d.NNZ(), elapsed: time.Since(start)}, nil
}

func sparseEngine(_ context.Context, a, b *matrix.CSR) (outcome, error) {
	start := time.Now()
	c, err := spgemm.ProductSparse(a, b)
	if err != nil {
		return outcome{}, err
	}
	elapsed := time.Since(start)

	return outcome{dense: c.ToDense(), coo: c.ToCOO(), stored: c.NNZ(), elapsed: elapsed}, nil
}

func parEngine(eng *spgemm.Engine) engineFunc {
	return func(_ context.Context, a, b *matrix.CSR) (outcome, error) {
		start := time.Now()
		c, err := eng.ProductSparsePar(a, b)
		if err != nil {
			return outcome{}, err
		}
		elapsed := time.Since(start)

		return outcome{dense: c.ToDense(), coo: c.ToCOO(), stored: c.NNZ(), elapsed: elapsed}, nil
	}
}

func cooParEngine(eng *spgemm.Engine) engineFunc {
	return func(ctx context.Context, a, b *matrix.CSR) (outcome, error) {
		start := time.Now()
		c, err := eng.ProductSparseToCOOPar(ctx, a, b)
		if err != nil {
			return outcome{}, err
		}
		elapsed := time.Since(start)

		return outcome{dense: c.ToDense(), coo: c, stored: c.Len(), elapsed: elapsed}, nil
	}
}

func gpuEngine(backend string, batch int, log *slog.Logger) engineFunc {
	return func(ctx context.Context, a, b *matrix.CSR) (outcome, error) {
		var (
			dev gpu.Device
			err error
		)
		switch backend {
		case "soft":
			dev = gpu.NewSoftwareDevice(gpu.WithDeviceLogger(log))
		case "webgpu":
			if dev, err = gpu.NewWebGPUDevice(ctx, gpu.WithDeviceLogger(log)); err != nil {
				return outcome{}, err
			}
		default:
			return outcome{}, fmt.Errorf("gpu backend %q: want soft or webgpu", backend)
		}
		defer dev.Close()

		opts := []gpu.Option{gpu.WithLogger(log)}
		if batch > 0 {
			opts = append(opts, gpu.WithBatchSize(batch))
		}
		m, err := gpu.NewMultiplier(dev, opts...)
		if err != nil {
			return outcome{}, err
		}
		defer m.Close()

		start := time.Now()
		c, err := m.Multiply(ctx, a, b)
		if err != nil {
			return outcome{}, err
		}
		elapsed := time.Since(start)
		// Readback order is arbitrary; .mtx output and the spy plot want rows sorted.
		c = c.Coalesce()

		return outcome{dense: c.ToDense(), coo: c, stored: c.Len(), elapsed: elapsed}, nil
	}
}

func gonumEngine(_ context.Context, a, b *matrix.CSR) (outcome, error) {
	res, err := baseline.MultiplyCSR(a, b)
	if err != nil {
		return outcome{}, err
	}

	return outcome{dense: res.Product, stored: res.Product.NNZ(), elapsed: res.Total}, nil
}
