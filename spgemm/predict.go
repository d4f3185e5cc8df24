// SPDX-License-Identifier: MIT

package spgemm

import (
	"github.com/katalvlaran/sparsekit/matrix"
)

// PredictNNZ returns an upper bound of nnz(A·B):
//
//	Σ_i Σ_{k ∈ cols(A_i)} nnz(B_k)
//
// which is the number of partial products Gustavson's algorithm emits before
// duplicate columns collapse. Accumulation only ever merges candidates, so the
// bound never under-counts; it is exact when no two candidates of a row share
// a column.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//
// Complexity:
//   - Time O(rows(A) + nnz(A)), Space O(1).
func PredictNNZ(a, b *matrix.CSR) (int, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return 0, spgemmErrorf(opPredict, err)
	}

	return candidates(a, b), nil
}

// PredictRowNNZ returns the same bound split per output row:
// bounds[i] ≥ nnz(row i of A·B). The slice has length rows(A).
//
// Complexity:
//   - Time O(rows(A) + nnz(A)), Space O(rows(A)).
func PredictRowNNZ(a, b *matrix.CSR) ([]int, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, spgemmErrorf(opPredict, err)
	}

	return rowCandidates(a, b), nil
}

// candidates counts partial products; operands must already be validated.
func candidates(a, b *matrix.CSR) int {
	bPtr := b.RowPtr()
	total := 0
	for _, k := range a.ColIdx() {
		total += bPtr[k+1] - bPtr[k]
	}

	return total
}

// rowCandidates is candidates split per row of a.
func rowCandidates(a, b *matrix.CSR) []int {
	bPtr := b.RowPtr()
	bounds := make([]int, a.Rows())
	for i := range bounds {
		cols, _ := a.Row(i)
		n := 0
		for _, k := range cols {
			n += bPtr[k+1] - bPtr[k]
		}
		bounds[i] = n
	}

	return bounds
}
