// Package matrix holds the storage formats of the sparse product engines.
//
// The matrix package provides:
//
//   - COO, a coordinate (triplet) list in insertion order; the exchange format
//     produced by parsers, generators and the GPU readback.
//   - CSR, the immutable compressed-row operand format, built once from a
//     consumed COO and shared read-only by any number of multiplications.
//   - Dense, a row-major float64 buffer used as the dense product output and
//     as the comparison target of every sparse path.
//
// All constructors validate shapes and indices and return package sentinels
// (ErrInvalidDimensions, ErrOutOfRange, ErrRowOrder, ErrDimensionMismatch, ...)
// that callers match with errors.Is.
//
// A COO must be in non-decreasing row order to be compressed; pass
// WithRowSort to NewCSRFromCOO to sort it instead of failing.
package matrix
