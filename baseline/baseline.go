// SPDX-License-Identifier: MIT

// Package baseline multiplies dense matrices with gonum's BLAS-backed
// mat.Dense. It is the reference the sparse engines are compared and timed
// against: Raw covers the library multiply alone, Total adds the conversion
// into and out of gonum's representation.
package baseline

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/sparsekit/matrix"
)

// Result is a product with its timings.
type Result struct {
	Product *matrix.Dense
	Raw     time.Duration // mat.Dense.Mul only
	Total   time.Duration // conversion in, Mul, conversion out
}

// RawMicros returns Raw in whole microseconds.
func (r Result) RawMicros() int64 { return r.Raw.Microseconds() }

// TotalMicros returns Total in whole microseconds.
func (r Result) TotalMicros() int64 { return r.Total.Microseconds() }

// Multiply computes a·b with gonum.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch (checked before any copy).
func Multiply(a, b *matrix.Dense) (Result, error) {
	if a == nil || b == nil {
		return Result{}, fmt.Errorf("baseline: Multiply: %w", matrix.ErrNilMatrix)
	}
	if err := matrix.ValidateMulShapes(a.Shape(), b.Shape()); err != nil {
		return Result{}, fmt.Errorf("baseline: Multiply: %w", err)
	}

	start := time.Now()
	ga, gb := toGonum(a), toGonum(b)

	var gc mat.Dense
	mulStart := time.Now()
	gc.Mul(ga, gb)
	raw := time.Since(mulStart)

	out, err := fromGonum(&gc)
	if err != nil {
		return Result{}, fmt.Errorf("baseline: Multiply: %w", err)
	}

	return Result{Product: out, Raw: raw, Total: time.Since(start)}, nil
}

// MultiplyCSR expands both operands and runs Multiply. The expansion is not
// part of the reported timings.
func MultiplyCSR(a, b *matrix.CSR) (Result, error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return Result{}, fmt.Errorf("baseline: MultiplyCSR: %w", err)
	}

	return Multiply(a.ToDense(), b.ToDense())
}

// toGonum copies m into a fresh row-major gonum matrix.
func toGonum(m *matrix.Dense) *mat.Dense {
	r, c := m.Rows(), m.Cols()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}

	return mat.NewDense(r, c, data)
}

// fromGonum copies g honouring its stride.
func fromGonum(g *mat.Dense) (*matrix.Dense, error) {
	raw := g.RawMatrix()
	data := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		data = append(data, raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols]...)
	}

	return matrix.NewDenseFrom(raw.Rows, raw.Cols, data, matrix.WithNoValidateNaNInf())
}
