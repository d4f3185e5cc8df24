// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/mtx"
)

func quiet() *slog.Logger { return slog.New(slog.DiscardHandler) }

func generated(engines ...string) config {
	return config{
		Rows: 24, Inner: 30, Cols: 18,
		Density:  0.2,
		Seed:     7,
		Engines:  engines,
		Schedule: "dynamic",
		Batch:    4,
		Backend:  "soft",
		GPUBatch: 5,
		Verify:   true,
	}
}

func TestRun_AllEnginesAgree(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), generated(engineNames...), &out, quiet()))
	require.Contains(t, out.String(), "verify: all engines agree")
	for _, name := range engineNames {
		require.Contains(t, out.String(), name)
	}
}

func TestRun_FilesInAndOut(t *testing.T) {
	dir := t.TempDir()
	pa, pb := filepath.Join(dir, "a.mtx"), filepath.Join(dir, "b.mtx")
	require.NoError(t, os.WriteFile(pa, []byte("2 2 2\n2 2 2\n1 1 1\n"), 0o600))
	require.NoError(t, os.WriteFile(pb, []byte("2 2 2\n1 1 3\n2 2 4\n"), 0o600))

	cfg := generated("sparse", "gpu")
	cfg.PathA, cfg.PathB = pa, pb
	cfg.OutPath = filepath.Join(dir, "c.mtx")
	cfg.SpyPath = filepath.Join(dir, "c.png")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out, quiet()))

	c, err := mtx.ReadFile(cfg.OutPath)
	require.NoError(t, err)
	d := c.ToDense()
	require.Equal(t, []float64{3, 0}, d.RawRowView(0))
	require.Equal(t, []float64{0, 8}, d.RawRowView(1))

	info, err := os.Stat(cfg.SpyPath)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestRun_DenseFirstStillWrites(t *testing.T) {
	cfg := generated("gonum")
	cfg.OutPath = filepath.Join(t.TempDir(), "c.mtx")
	require.NoError(t, run(context.Background(), cfg, &bytes.Buffer{}, quiet()))
	_, err := mtx.ReadFile(cfg.OutPath)
	require.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	require.ErrorIs(t, run(ctx, generated("magic"), &bytes.Buffer{}, quiet()), errUnknownEngine)
	require.ErrorIs(t, run(ctx, generated(), &bytes.Buffer{}, quiet()), errNoEngine)

	cfg := generated("sparse")
	cfg.Schedule = "random"
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}, quiet()))

	cfg = generated("sparse")
	cfg.Inner = 0
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}, quiet()))

	cfg = generated("gpu")
	cfg.Backend = "quantum"
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}, quiet()))

	cfg = generated("gpu")
	cfg.GPUBatch = -1
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}, quiet()))

	cfg = generated("sparse")
	cfg.PathA = filepath.Join(t.TempDir(), "missing.mtx")
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}, quiet()))
}

func TestParseEngines(t *testing.T) {
	require.Equal(t, engineNames, parseEngines("all"))
	require.Equal(t, []string{"par", "gpu"}, parseEngines(" par, ,gpu "))
	require.Empty(t, parseEngines(""))
}
