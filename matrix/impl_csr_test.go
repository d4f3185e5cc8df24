// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/matrix"
)

func cooOf(t *testing.T, r, c int, entries ...matrix.Triplet) *matrix.COO {
	t.Helper()
	m, err := matrix.NewCOOFromTriplets(r, c, entries)
	require.NoError(t, err)

	return m
}

func TestNewCSRFromCOO_Layout(t *testing.T) {
	coo := cooOf(t, 4, 3,
		matrix.Triplet{Row: 1, Col: 0, Value: 1},
		matrix.Triplet{Row: 1, Col: 2, Value: 2},
		matrix.Triplet{Row: 2, Col: 1, Value: 3},
	)
	csr, err := matrix.NewCSRFromCOO(coo)
	require.NoError(t, err)

	// Leading and trailing zero rows.
	require.Equal(t, []int{0, 0, 2, 3, 3}, csr.RowPtr())
	require.Equal(t, []int{0, 2, 1}, csr.ColIdx())
	require.Equal(t, []float64{1, 2, 3}, csr.Values())
	require.Equal(t, 3, csr.NNZ())
	require.Equal(t, 0, csr.RowNNZ(0))
	require.Equal(t, 2, csr.RowNNZ(1))

	cols, vals := csr.Row(1)
	require.Equal(t, []int{0, 2}, cols)
	require.Equal(t, []float64{1, 2}, vals)

	require.Zero(t, coo.Len(), "the COO is consumed")
}

func TestNewCSRFromCOO_RowOrder(t *testing.T) {
	coo := cooOf(t, 3, 3,
		matrix.Triplet{Row: 2, Col: 0, Value: 1},
		matrix.Triplet{Row: 0, Col: 1, Value: 2},
		matrix.Triplet{Row: 2, Col: 0, Value: 3},
	)

	_, err := matrix.NewCSRFromCOO(coo)
	require.ErrorIs(t, err, matrix.ErrRowOrder)
	require.Equal(t, 3, coo.Len(), "left untouched on error")

	csr, err := matrix.NewCSRFromCOO(coo, matrix.WithRowSort())
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 1, 3}, csr.RowPtr())
	require.Equal(t, []int{1, 0, 0}, csr.ColIdx())
	require.Equal(t, []float64{2, 1, 3}, csr.Values(), "stable: duplicates keep storage order")

	_, err = matrix.NewCSRFromCOO(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestCSR_ToDenseMatchesCOO(t *testing.T) {
	entries := []matrix.Triplet{
		{Row: 0, Col: 1, Value: 1.5},
		{Row: 0, Col: 1, Value: 0.5},
		{Row: 2, Col: 0, Value: -3},
	}
	want := cooOf(t, 3, 2, entries...).ToDense()

	csr, err := matrix.NewCSRFromCOO(cooOf(t, 3, 2, entries...))
	require.NoError(t, err)
	ok, err := matrix.AllClose(csr.ToDense(), want, 0, matrix.DefaultAbsTol)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCSR_DenseCOORoundTrip(t *testing.T) {
	d, err := matrix.NewDenseFrom(3, 3, []float64{
		0, 2, 0,
		0, 0, 0,
		4, 0, 5,
	})
	require.NoError(t, err)

	csr, err := matrix.NewCSRFromDense(d)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 1, 3}, csr.RowPtr())

	// CSR → Dense → COO → CSR.
	mid, err := matrix.NewCSRFromDense(csr.ToDense())
	require.NoError(t, err)
	back, err := matrix.NewCSRFromCOO(mid.ToCOO())
	require.NoError(t, err)
	require.Equal(t, csr.RowPtr(), back.RowPtr())
	require.Equal(t, csr.ColIdx(), back.ColIdx())
	require.Equal(t, csr.Values(), back.Values())
}

func TestNewCSRFromDense_KeepZeros(t *testing.T) {
	d, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	sparse, err := matrix.NewCSRFromDense(d)
	require.NoError(t, err)
	require.Zero(t, sparse.NNZ())

	full, err := matrix.NewCSRFromDense(d, matrix.WithKeepZeros())
	require.NoError(t, err)
	require.Equal(t, 4, full.NNZ())

	_, err = matrix.NewCSRFromDense(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestNewCSR_Validation(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		cols   int
		rowPtr []int
		colIdx []int
		values []float64
		want   error
	}{
		{"valid", 2, 2, []int{0, 1, 2}, []int{1, 0}, []float64{1, 2}, nil},
		{"bad shape", 0, 2, []int{0}, nil, nil, matrix.ErrInvalidDimensions},
		{"short rowPtr", 2, 2, []int{0, 2}, []int{0, 1}, []float64{1, 2}, matrix.ErrDataLength},
		{"ragged arrays", 1, 2, []int{0, 2}, []int{0, 1}, []float64{1}, matrix.ErrDataLength},
		{"rowPtr[0] != 0", 1, 2, []int{1, 1}, []int{0}, []float64{1}, matrix.ErrDataLength},
		{"decreasing rowPtr", 3, 2, []int{0, 2, 1, 2}, []int{0, 1}, []float64{1, 2}, matrix.ErrRowOrder},
		{"column out of range", 1, 2, []int{0, 1}, []int{2}, []float64{1}, matrix.ErrOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := matrix.NewCSR(tc.rows, tc.cols, tc.rowPtr, tc.colIdx, tc.values)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCSR_String(t *testing.T) {
	csr, err := matrix.NewCSR(2, 2, []int{0, 1, 1}, []int{1}, []float64{3})
	require.NoError(t, err)
	require.Equal(t, "CSR(2×2, nnz=1) rowPtr=[0 1 1] colIdx=[1] values=[3]", csr.String())
}
