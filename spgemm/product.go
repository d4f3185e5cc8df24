// SPDX-License-Identifier: MIT

package spgemm

import (
	"fmt"

	"github.com/katalvlaran/sparsekit/matrix"
)

// Operation name constants for unified error wrapping.
const (
	opPredict       = "PredictNNZ"
	opProduct       = "Product"
	opProductSparse = "ProductSparse"
	opProductPar    = "ProductSparsePar"
	opProductCOOPar = "ProductSparseToCOOPar"
)

// spgemmErrorf wraps err with an operation tag, preserving it for errors.Is.
func spgemmErrorf(tag string, err error) error {
	return fmt.Errorf("spgemm: %s: %w", tag, err)
}

// Product computes A·B into a fresh dense matrix.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible (fails before any allocation).
//   - Stage 2: allocate the m×n zero matrix.
//   - Stage 3: Gustavson traversal accumulating straight into row i of the
//     output; no row accumulator is needed because every (i, j) is addressable.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//
// Complexity:
//   - Time O(m*n + flops), Space O(m*n), flops = PredictNNZ(A, B).
func Product(a, b *matrix.CSR) (*matrix.Dense, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, spgemmErrorf(opProduct, err)
	}
	out, err := matrix.NewDense(a.Rows(), b.Cols())
	if err != nil {
		return nil, spgemmErrorf(opProduct, err)
	}

	for i := 0; i < a.Rows(); i++ {
		row := out.RawRowView(i)
		aCols, aVals := a.Row(i)
		for p, k := range aCols {
			av := aVals[p]
			bCols, bVals := b.Row(k)
			for q, j := range bCols {
				row[j] += av * bVals[q]
			}
		}
	}

	return out, nil
}

// ProductSparse computes A·B into a CSR.
//
// Each output row is gathered in a sparse row accumulator (column → partial
// sum) and flushed sorted by column before the next row starts, so a sparse
// result row never costs O(n). Output storage is pre-sized with PredictNNZ.
// Entries whose partial products cancel to exactly zero are kept.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//
// Complexity:
//   - Time O(m + flops + Σ t_i log t_i), Space O(n + nnz(C)).
func ProductSparse(a, b *matrix.CSR) (*matrix.CSR, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, spgemmErrorf(opProductSparse, err)
	}
	bound := candidates(a, b)

	m := a.Rows()
	rowPtr := make([]int, m+1)
	colIdx := make([]int, 0, bound)
	values := make([]float64, 0, bound)

	acc := newAccumulator(b.Cols())
	for i := 0; i < m; i++ {
		acc.reset()
		acc.gather(a, b, i)
		colIdx, values = acc.flush(colIdx, values)
		rowPtr[i+1] = len(values)
	}

	out, err := matrix.NewCSR(m, b.Cols(), rowPtr, colIdx, values)
	if err != nil {
		return nil, spgemmErrorf(opProductSparse, err)
	}

	return out, nil
}
