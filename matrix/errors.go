// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the matrix
// package and by the multiplication engines built on top of it. All
// constructors and kernels MUST return these sentinels and tests MUST check
// them via errors.Is. No exported function panics on user-triggered error
// conditions; panics are reserved for invalid option values.

package matrix

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "matrix: ..." for consistency and to allow
// easy grepping across logs. Call sites add context with
// fmt.Errorf("<op>: %w", ErrX) so errors.Is keeps matching.
//
// ERROR PRIORITY (documented, enforced in tests):
// nil -> shape -> index/NaN -> row order -> dimension mismatch.

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set/Append) MUST return this, not panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. a product where a.Cols != b.Rows, or a comparison of different shapes.
	// This is the contract-violation sentinel: it is returned before any work is done.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNaNInf signals a NaN or ±Inf value was encountered where finite values
	// are required by the numeric policy (ingestion, Set).
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil matrix (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrRowOrder indicates a COO whose entries are not in non-decreasing row order
	// was handed to the CSR builder without WithRowSort.
	ErrRowOrder = errors.New("matrix: COO entries not in ascending row order")

	// ErrDataLength indicates a backing slice whose length does not match rows*cols.
	ErrDataLength = errors.New("matrix: data length does not match shape")
)
