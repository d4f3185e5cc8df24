// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for shape and operand checks.
//  - Keep kernels minimal by delegating nil/shape/compatibility checks here.
//  - Return tagged sentinel errors so call sites can wrap uniformly.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing except
//    ValidateCSR, which walks the arrays once (O(rows + nnz)).
//
// Note:
//  - Each composite validator follows a fixed sequence (NotNil → Shape → ...).

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateShape ensures both dimensions are positive.
// Complexity: O(1).
func ValidateShape(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return validatorErrorf("ValidateShape", ErrInvalidDimensions)
	}

	return nil
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Catches both untyped nil and typed nil pointers for the concrete types of
// this package.
// Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}
	if d, ok := m.(*Dense); ok && d == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSameShape ensures matrices a and b have equal dimensions.
// Assumes a and b are not nil (caller must ensure).
// Complexity: O(1).
func ValidateSameShape(a, b Matrix) error {
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}

	return nil
}

// ValidateMulShapes checks the inner dimension of a product a·b.
// Complexity: O(1).
func ValidateMulShapes(a, b Shape) error {
	if a.Cols != b.Rows {
		return validatorErrorf("ValidateMulShapes",
			fmt.Errorf("(%d×%d)·(%d×%d): %w", a.Rows, a.Cols, b.Rows, b.Cols, ErrDimensionMismatch))
	}

	return nil
}

// ValidateMulCompatible is the canonical guard of every sparse product:
// both operands non-nil, then a.Cols == b.Rows.
//
// Implementation:
//   - Stage 1: nil checks (ErrNilMatrix).
//   - Stage 2: inner-dimension check (ErrDimensionMismatch).
//
// Complexity: O(1).
func ValidateMulCompatible(a, b *CSR) error {
	if a == nil || b == nil {
		return validatorErrorf("ValidateMulCompatible", ErrNilMatrix)
	}

	return ValidateMulShapes(a.shape, b.shape)
}

// ValidateCSR walks the compressed arrays of m and checks every structural
// invariant: len(rowPtr)==rows+1, rowPtr[0]==0, monotone rowPtr,
// rowPtr[rows]==nnz, parallel colIdx/values, column indices in range.
// CSRs built by this package always pass; the check exists for values
// assembled by hand through NewCSR.
//
// Complexity: O(rows + nnz).
func ValidateCSR(m *CSR) error {
	if m == nil {
		return validatorErrorf("ValidateCSR", ErrNilMatrix)
	}
	if !m.shape.Valid() {
		return validatorErrorf("ValidateCSR", ErrInvalidDimensions)
	}
	if len(m.rowPtr) != m.shape.Rows+1 {
		return validatorErrorf("ValidateCSR: rowPtr length", ErrDataLength)
	}
	if len(m.colIdx) != len(m.values) {
		return validatorErrorf("ValidateCSR: colIdx/values length", ErrDataLength)
	}
	if m.rowPtr[0] != 0 || m.rowPtr[m.shape.Rows] != len(m.values) {
		return validatorErrorf("ValidateCSR: rowPtr bounds", ErrDataLength)
	}
	for i := 0; i < m.shape.Rows; i++ {
		if m.rowPtr[i] > m.rowPtr[i+1] {
			return validatorErrorf(fmt.Sprintf("ValidateCSR: row %d", i), ErrRowOrder)
		}
	}
	for p, j := range m.colIdx {
		if j < 0 || j >= m.shape.Cols {
			return validatorErrorf(fmt.Sprintf("ValidateCSR: entry %d col %d", p, j), ErrOutOfRange)
		}
	}

	return nil
}
