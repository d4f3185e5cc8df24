// SPDX-License-Identifier: MIT

// Command sparsekit multiplies two sparse matrices with one or more engines,
// reports timings and optionally checks that the engines agree.
//
// Usage:
//
//	sparsekit -a A.mtx -b B.mtx -engine all -verify
//	sparsekit -rows 2000 -inner 2000 -cols 2000 -density 0.001 -engine par,gpu
//	sparsekit -a A.mtx -b B.mtx -engine sparse -out C.mtx -spy C.png
//
// Without -a/-b both operands are generated from -seed. Engines:
// dense, sparse, par, coo-par, gpu, gonum, or all.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/katalvlaran/sparsekit/gpu"
)

var (
	pathA    = flag.String("a", "", "left operand (.mtx); generated when empty")
	pathB    = flag.String("b", "", "right operand (.mtx); generated when empty")
	rows     = flag.Int("rows", 512, "rows of a generated A")
	inner    = flag.Int("inner", 512, "cols of a generated A and rows of a generated B")
	cols     = flag.Int("cols", 512, "cols of a generated B")
	density  = flag.Float64("density", 0.01, "fill probability of generated operands")
	seed     = flag.Int64("seed", 1, "seed of generated operands")
	engines  = flag.String("engine", "sparse", "comma-separated engines ("+strings.Join(engineNames, ",")+") or 'all'")
	workers  = flag.Int("workers", 0, "worker count of the parallel engines (0 = GOMAXPROCS)")
	schedule = flag.String("schedule", "dynamic", "row schedule of the parallel engines: static or dynamic")
	batch    = flag.Int("batch", 64, "rows per batch of the parallel engines")
	backend  = flag.String("gpu-backend", "soft", "device of the gpu engine: soft or webgpu")
	gpuBatch = flag.Int("gpu-batch", gpu.DefaultBatchSize, "rows of A the gpu engine accumulates at once")
	verify   = flag.Bool("verify", false, "compare every result with the dense product")
	outPath  = flag.String("out", "", "write the first engine's product to this .mtx file")
	spyPath  = flag.String("spy", "", "plot the first engine's product pattern (format from extension)")
	verbose  = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config{
		PathA:    *pathA,
		PathB:    *pathB,
		Rows:     *rows,
		Inner:    *inner,
		Cols:     *cols,
		Density:  *density,
		Seed:     *seed,
		Engines:  parseEngines(*engines),
		Workers:  *workers,
		Schedule: *schedule,
		Batch:    *batch,
		Backend:  *backend,
		GPUBatch: *gpuBatch,
		Verify:   *verify,
		OutPath:  *outPath,
		SpyPath:  *spyPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func parseEngines(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 1 && out[0] == "all" {
		return engineNames
	}

	return out
}
