// SPDX-License-Identifier: MIT

package spgemm

import (
	"slices"

	"github.com/katalvlaran/sparsekit/matrix"
)

// accumulator is the sparse row accumulator of Gustavson's algorithm: a
// column → partial-sum map for one output row at a time.
//
// It is backed by two arrays of length n (sums, stamps) allocated once, plus
// the list of columns touched by the current row. A column belongs to the
// current row iff stamps[j] == stamp, so starting a new row costs O(1)
// instead of clearing n cells. Flushing costs O(t log t) for t touched columns.
//
// An accumulator is owned by exactly one goroutine at a time.
type accumulator struct {
	sums    []float64
	stamps  []uint32
	touched []int
	stamp   uint32
}

func newAccumulator(cols int) *accumulator {
	return &accumulator{
		sums:   make([]float64, cols),
		stamps: make([]uint32, cols),
	}
}

// reset starts a new output row.
func (acc *accumulator) reset() {
	acc.stamp++
	if acc.stamp == 0 {
		// Stamp wrapped after 2^32 rows: forget every old mark once.
		clear(acc.stamps)
		acc.stamp = 1
	}
	acc.touched = acc.touched[:0]
}

// add accumulates v into column j of the current row.
func (acc *accumulator) add(j int, v float64) {
	if acc.stamps[j] != acc.stamp {
		acc.stamps[j] = acc.stamp
		acc.sums[j] = v
		acc.touched = append(acc.touched, j)
		return
	}
	acc.sums[j] += v
}

// gather expands row i of a through the rows of b into the accumulator.
func (acc *accumulator) gather(a, b *matrix.CSR, i int) {
	aCols, aVals := a.Row(i)
	for p, k := range aCols {
		av := aVals[p]
		bCols, bVals := b.Row(k)
		for q, j := range bCols {
			acc.add(j, av*bVals[q])
		}
	}
}

// len returns the number of distinct columns of the current row.
func (acc *accumulator) len() int { return len(acc.touched) }

// flush appends the current row sorted by column and returns the grown slices.
func (acc *accumulator) flush(cols []int, vals []float64) ([]int, []float64) {
	slices.Sort(acc.touched)
	for _, j := range acc.touched {
		cols = append(cols, j)
		vals = append(vals, acc.sums[j])
	}

	return cols, vals
}

// flushInto writes the current row sorted by column into the fixed segments
// cols/vals and returns the number of entries written. The segments must hold
// at least acc.len() entries.
func (acc *accumulator) flushInto(cols []int, vals []float64) int {
	slices.Sort(acc.touched)
	for n, j := range acc.touched {
		cols[n] = j
		vals[n] = acc.sums[j]
	}

	return len(acc.touched)
}

// flushTriplets appends the current row i as sorted triplets.
func (acc *accumulator) flushTriplets(i int, out []matrix.Triplet) []matrix.Triplet {
	slices.Sort(acc.touched)
	for _, j := range acc.touched {
		out = append(out, matrix.Triplet{Row: i, Col: j, Value: acc.sums[j]})
	}

	return out
}
