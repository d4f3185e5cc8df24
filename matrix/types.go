// SPDX-License-Identifier: MIT

// Package matrix: domain types shared by the storage formats.
// This file intentionally contains ONLY domain-facing types (Shape, Triplet)
// and the public Matrix interface. Errors and options live in dedicated
// files (errors.go, options.go).
package matrix

// Shape is the (rows, cols) pair of a matrix. Both must be > 0 for every
// public constructor in this package.
type Shape struct {
	Rows int // number of rows
	Cols int // number of columns
}

// Valid reports whether both dimensions are positive.
func (s Shape) Valid() bool { return s.Rows > 0 && s.Cols > 0 }

// Contains reports whether (row, col) addresses a cell inside the shape.
// Complexity: O(1).
func (s Shape) Contains(row, col int) bool {
	return row >= 0 && row < s.Rows && col >= 0 && col < s.Cols
}

// Triplet is one coordinate entry (row, col, value) of a COO matrix.
// Indices are zero-based.
type Triplet struct {
	Row   int
	Col   int
	Value float64
}

// Matrix represents a two-dimensional mutable array of float64 values.
//
// Complexity notes: all methods are expected O(1) except Clone (O(r*c)).
type Matrix interface {
	// Rows returns the number of rows in the matrix.
	Rows() int

	// Cols returns the number of columns in the matrix.
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i<0, i>=Rows(), j<0 or j>=Cols().
	At(i, j int) (float64, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid.
	Set(i, j int, v float64) error

	// Clone returns a deep copy of the matrix.
	// Complexity: O(rows*cols).
	Clone() Matrix
}
