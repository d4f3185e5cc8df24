// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for ingestion and format conversion.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors (panic only on nonsensical values),
//   - gatherOptions helper (internal).
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each flag impacts behavior and is covered by tests.
//   - Options fields are unexported; public APIs consume ...Option.
//
// Notes:
//   - Row-order policy for COO→CSR: the builder scans entries once in storage
//     order and assumes non-decreasing rows. By default an out-of-order entry is
//     rejected with ErrRowOrder. WithRowSort opts in to a stable (row, col) sort
//     before the scan; it costs O(nnz log nnz) and never changes values.
//   - Numeric policy is orthogonal: validateNaNInf controls whether ingestion
//     (COO.Append, Dense.Set) rejects NaN/±Inf.
package matrix

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on ingestion and Set.
	DefaultValidateNaNInf = true

	// DefaultRowSort controls whether the CSR builder sorts COO entries first.
	// false ⇒ validate-and-fail on out-of-order rows (ErrRowOrder).
	DefaultRowSort = false

	// DefaultDropZeros controls whether NewCSRFromDense skips exact zeros.
	DefaultDropZeros = true
)

// Option mutates internal options. Safe to apply repeatedly (idempotent).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Public entry points accept `...Option` and resolve them via gatherOptions.
type Options struct {
	validateNaNInf bool // DefaultValidateNaNInf
	rowSort        bool // DefaultRowSort
	dropZeros      bool // DefaultDropZeros
}

// WithValidateNaNInf enables strict finite-value validation (default).
// Complexity: O(1).
func WithValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = true }
}

// WithNoValidateNaNInf disables NaN/Inf validation on newly created matrices.
// Existing matrices keep the policy they were created with.
func WithNoValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = false }
}

// WithRowSort makes NewCSRFromCOO stable-sort the entries by (row, col)
// before compression instead of rejecting out-of-order input.
//
// Behavior highlights:
//   - Duplicates keep their relative order, so the summation order inside a
//     row is the storage order of the COO.
//
// Complexity:
//   - Adds O(nnz log nnz) to the conversion.
func WithRowSort() Option {
	return func(o *Options) { o.rowSort = true }
}

// WithKeepZeros makes NewCSRFromDense store explicit zeros (every cell becomes an entry).
// Mostly useful in tests that need a structurally full CSR.
func WithKeepZeros() Option {
	return func(o *Options) { o.dropZeros = false }
}

// NewMatrixOptions resolves user options on top of the defaults.
// Exposed for packages that forward matrix options (mtx, generate).
func NewMatrixOptions(opts ...Option) Options {
	return gatherOptions(opts...)
}

// ValidateNaNInf reports the resolved numeric policy.
func (o Options) ValidateNaNInf() bool { return o.validateNaNInf }

// RowSort reports whether the CSR builder sorts its input.
func (o Options) RowSort() bool { return o.rowSort }

// defaultOptions returns the zero-configuration policy.
func defaultOptions() Options {
	return Options{
		validateNaNInf: DefaultValidateNaNInf,
		rowSort:        DefaultRowSort,
		dropZeros:      DefaultDropZeros,
	}
}

// gatherOptions applies user setters in order; later setters win.
// nil setters are skipped so callers can build option slices conditionally.
func gatherOptions(user ...Option) Options {
	o := defaultOptions()
	for _, fn := range user {
		if fn == nil {
			continue
		}
		fn(&o)
	}

	return o
}
