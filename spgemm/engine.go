// SPDX-License-Identifier: MIT

package spgemm

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/sparsekit/matrix"
	"github.com/katalvlaran/sparsekit/workerpool"
)

// Engine runs the parallel product variants on a fixed worker pool.
//
// Concurrency model:
//   - Operands are shared read-only by every worker; no locks are taken.
//   - Rows are the unit of isolation: each output row is produced by exactly
//     one worker with its own accumulator.
//   - The only cross-worker coordination is the barrier at the end of each
//     parallel phase followed by a single ordered merge.
//
// Both parallel variants run on the Engine's pool with its schedule. An
// Engine may be used by several goroutines at once; each call owns its output
// buffers. Close releases the pool.
type Engine struct {
	pool     *workerpool.Pool
	schedule Schedule
	batch    int
	log      *slog.Logger
	accs     sync.Pool // *accumulator, keyed by column count at use
}

// NewEngine starts the worker pool.
func NewEngine(opts ...Option) *Engine {
	o := gatherOptions(opts...)
	e := &Engine{
		pool:     workerpool.New(o.workers),
		schedule: o.schedule,
		batch:    o.batch,
		log:      o.logger,
	}
	e.log.Debug("spgemm: engine started",
		"workers", e.pool.Workers(), "schedule", e.schedule.String(), "batch", e.batch)

	return e
}

// Workers returns the pool size.
func (e *Engine) Workers() int { return e.pool.Workers() }

// Close stops the pool. Calls made after Close run on the caller's goroutine.
func (e *Engine) Close() { e.pool.Close() }

// getAccumulator returns a reset-ready accumulator for n columns.
func (e *Engine) getAccumulator(n int) *accumulator {
	if v := e.accs.Get(); v != nil {
		acc := v.(*accumulator)
		if len(acc.sums) == n {
			return acc
		}
	}

	return newAccumulator(n)
}

func (e *Engine) putAccumulator(acc *accumulator) { e.accs.Put(acc) }

// forRows runs fn over [0, rows) with the configured schedule and waits.
func (e *Engine) forRows(rows int, fn func(lo, hi int)) {
	if e.schedule == ScheduleStatic {
		e.pool.Static(rows, fn)
		return
	}
	e.pool.Dynamic(rows, e.batch, fn)
}

// forChunks runs fn over [0, chunks) where every index is a pre-batched
// chunk of rows: the dynamic schedule claims one chunk at a time.
func (e *Engine) forChunks(chunks int, fn func(lo, hi int)) {
	if e.schedule == ScheduleStatic {
		e.pool.Static(chunks, fn)
		return
	}
	e.pool.Dynamic(chunks, 1, fn)
}

// ProductSparsePar computes A·B into a CSR using the worker pool.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible, then the per-row candidate bound.
//   - Stage 2: prefix sums of the bounds pre-index one shared output buffer:
//     row i writes only [offsets[i], offsets[i+1]), so segments are disjoint.
//   - Stage 3: workers gather and flush their rows into their own segments and
//     record the true row length (barrier: forRows returns).
//   - Stage 4: one ordered compaction pass slides every segment left and
//     builds rowPtr.
//
// The result is identical to ProductSparse for every schedule and worker count.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//
// Complexity:
//   - Time O((m + flops + Σ t_i log t_i)/workers + nnz(C)), Space O(flops + workers*n).
func (e *Engine) ProductSparsePar(a, b *matrix.CSR) (*matrix.CSR, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, spgemmErrorf(opProductPar, err)
	}

	m, n := a.Rows(), b.Cols()
	offsets := make([]int, m+1)
	for i, bound := range rowCandidates(a, b) {
		offsets[i+1] = offsets[i] + bound
	}
	colBuf := make([]int, offsets[m])
	valBuf := make([]float64, offsets[m])
	lengths := make([]int, m)

	e.log.Debug("spgemm: sparse parallel product",
		"rows", m, "cols", n, "predicted_nnz", offsets[m], "workers", e.pool.Workers())

	e.forRows(m, func(lo, hi int) {
		acc := e.getAccumulator(n)
		defer e.putAccumulator(acc)
		for i := lo; i < hi; i++ {
			acc.reset()
			acc.gather(a, b, i)
			s, t := offsets[i], offsets[i+1]
			lengths[i] = acc.flushInto(colBuf[s:t], valBuf[s:t])
		}
	})

	// Compaction: write cursor never overtakes the read cursor, so copy
	// (memmove semantics) is safe in place.
	rowPtr := make([]int, m+1)
	w := 0
	for i := 0; i < m; i++ {
		s, l := offsets[i], lengths[i]
		if w != s {
			copy(colBuf[w:w+l], colBuf[s:s+l])
			copy(valBuf[w:w+l], valBuf[s:s+l])
		}
		w += l
		rowPtr[i+1] = w
	}

	e.log.Debug("spgemm: sparse parallel product done", "nnz", w, "predicted_nnz", offsets[m])

	out, err := matrix.NewCSR(m, n, rowPtr, colBuf[:w:w], valBuf[:w:w])
	if err != nil {
		return nil, spgemmErrorf(opProductPar, err)
	}

	return out, nil
}

// ProductSparseToCOOPar computes A·B into a COO sorted by (row, col).
//
// Rows are split into chunks of the configured batch size. Chunks are the
// pool's work items under the configured schedule (static: contiguous runs of
// chunks per worker; dynamic: one chunk per claim); each chunk appends its
// rows as triplets to a private slice. Parts are concatenated in chunk order
// after the barrier, so the output is deterministic. ctx is checked before
// every chunk; once it is done the remaining chunks are skipped and ctx.Err()
// is returned.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//   - ctx.Err() when ctx is done before every chunk has run.
//
// Complexity:
//   - Time O((m + flops + Σ t_i log t_i)/workers + nnz(C)), Space O(nnz(C) + workers*n).
func (e *Engine) ProductSparseToCOOPar(ctx context.Context, a, b *matrix.CSR) (*matrix.COO, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, spgemmErrorf(opProductCOOPar, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, spgemmErrorf(opProductCOOPar, err)
	}

	m, n := a.Rows(), b.Cols()
	chunks := (m + e.batch - 1) / e.batch
	parts := make([][]matrix.Triplet, chunks)
	var skipped atomic.Bool

	e.log.Debug("spgemm: coo parallel product", "rows", m, "cols", n, "chunks", chunks)

	e.forChunks(chunks, func(lo, hi int) {
		acc := e.getAccumulator(n)
		defer e.putAccumulator(acc)
		for c := lo; c < hi; c++ {
			if ctx.Err() != nil {
				skipped.Store(true)
				return
			}
			var part []matrix.Triplet
			for i := c * e.batch; i < min((c+1)*e.batch, m); i++ {
				acc.reset()
				acc.gather(a, b, i)
				part = acc.flushTriplets(i, part)
			}
			parts[c] = part
		}
	})
	if skipped.Load() {
		return nil, spgemmErrorf(opProductCOOPar, ctx.Err())
	}

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	entries := make([]matrix.Triplet, 0, total)
	for _, part := range parts {
		entries = append(entries, part...)
	}

	out, err := matrix.NewCOOFromTriplets(m, n, entries, matrix.WithNoValidateNaNInf())
	if err != nil {
		return nil, spgemmErrorf(opProductCOOPar, err)
	}

	return out, nil
}
