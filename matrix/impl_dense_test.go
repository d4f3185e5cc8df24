// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/matrix"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)                      // zero rows
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions) // expect ErrInvalidDimensions

	_, err = matrix.NewDense(5, -1)                      // negative columns
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions) // expect ErrInvalidDimensions
}

// TestRowsCols verifies that Rows(), Cols() and Shape() agree.
func TestRowsCols(t *testing.T) {
	m, err := matrix.NewDense(3, 4)
	require.NoError(t, err)

	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())
	require.Equal(t, matrix.Shape{Rows: 3, Cols: 4}, m.Shape())
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Add(0, -1, 4.56), matrix.ErrOutOfRange)
}

// TestSetGetAdd validates Set and Add followed by At on valid indices.
func TestSetGetAdd(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 7.5))
	require.NoError(t, m.Add(1, 2, 0.5))
	val, err := m.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 8.0, val)
}

// TestNumericPolicy checks NaN/Inf rejection and its opt-out.
func TestNumericPolicy(t *testing.T) {
	strict, err := matrix.NewDense(1, 1)
	require.NoError(t, err)
	require.ErrorIs(t, strict.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.NoError(t, strict.Set(0, 0, math.MaxFloat64))
	require.ErrorIs(t, strict.Add(0, 0, math.MaxFloat64), matrix.ErrNaNInf) // overflows to +Inf

	loose, err := matrix.NewDense(1, 1, matrix.WithNoValidateNaNInf())
	require.NoError(t, err)
	require.NoError(t, loose.Set(0, 0, math.Inf(-1)))
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, 1))

	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3)) // modify the clone only

	orig, _ := m.At(0, 0)
	got, _ := clone.At(0, 0)
	require.Equal(t, 1.0, orig)
	require.Equal(t, 3.0, got)
}

// TestStringOutput checks that String() formats the matrix row by row.
func TestStringOutput(t *testing.T) {
	m, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}

// TestNewDenseFrom covers ownership and the length check.
func TestNewDenseFrom(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	m, err := matrix.NewDenseFrom(2, 3, data)
	require.NoError(t, err)

	data[5] = 60 // the matrix adopts the slice
	v, _ := m.At(1, 2)
	require.Equal(t, 60.0, v)

	_, err = matrix.NewDenseFrom(2, 2, data)
	require.ErrorIs(t, err, matrix.ErrDataLength)
}

// TestColumnMajorRoundTrip converts to the BLAS layout and back.
func TestColumnMajorRoundTrip(t *testing.T) {
	m, err := matrix.NewDenseFrom(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	cm := m.ColumnMajor()
	require.Equal(t, []float64{1, 4, 2, 5, 3, 6}, cm)

	back, err := matrix.NewDenseFromColumnMajor(2, 3, cm)
	require.NoError(t, err)
	ok, err := matrix.AllClose(m, back, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = matrix.NewDenseFromColumnMajor(2, 3, cm[:5])
	require.ErrorIs(t, err, matrix.ErrDataLength)
}

// TestRawRowView checks write-through and the panic on a bad row.
func TestRawRowView(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	row := m.RawRowView(1)
	require.Len(t, row, 2)
	row[0] = 9
	v, _ := m.At(1, 0)
	require.Equal(t, 9.0, v)
	require.Equal(t, 1, m.NNZ())

	require.Panics(t, func() { m.RawRowView(2) })
}

// TestDoEarlyStop verifies row-major order and early termination.
func TestDoEarlyStop(t *testing.T) {
	m, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	var seen []float64
	m.Do(func(_, _ int, v float64) bool {
		seen = append(seen, v)
		return v < 3
	})
	require.Equal(t, []float64{1, 2, 3}, seen)
}
