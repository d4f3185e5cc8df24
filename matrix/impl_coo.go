// SPDX-License-Identifier: MIT

// Package matrix - COO (coordinate list) storage.
//
// Purpose:
//   - Universal exchange format: parsers, generators and the GPU readback all
//     produce COO; the CSR builder consumes it.
//   - Entries are kept in insertion order. Duplicated (row, col) pairs are
//     permitted and stored as separate entries; every consumer sums them.
//
// Complexity quicksheet:
//   - Append: amortized O(1); ToDense: O(r*c + nnz); Coalesce: O(nnz log nnz).

package matrix

import (
	"fmt"
	"math"
	"slices"
)

const ctxAppend = "Append"

// COO is a coordinate-list sparse matrix.
type COO struct {
	shape          Shape
	data           []Triplet
	validateNaNInf bool
}

// NewCOO returns an empty rows×cols COO.
//
// Errors:
//   - ErrInvalidDimensions for non-positive shape.
func NewCOO(rows, cols int, opts ...Option) (*COO, error) {
	if err := ValidateShape(rows, cols); err != nil {
		return nil, err
	}
	o := gatherOptions(opts...)

	return &COO{shape: Shape{Rows: rows, Cols: cols}, validateNaNInf: o.validateNaNInf}, nil
}

// NewCOOWithCapacity is NewCOO with a pre-sized entry buffer.
func NewCOOWithCapacity(rows, cols, capacity int, opts ...Option) (*COO, error) {
	m, err := NewCOO(rows, cols, opts...)
	if err != nil {
		return nil, err
	}
	if capacity > 0 {
		m.data = make([]Triplet, 0, capacity)
	}

	return m, nil
}

// NewCOOFromTriplets validates and copies a triplet list.
// Each entry passes through Append, so bounds and numeric policy apply.
func NewCOOFromTriplets(rows, cols int, entries []Triplet, opts ...Option) (*COO, error) {
	m, err := NewCOOWithCapacity(rows, cols, len(entries), opts...)
	if err != nil {
		return nil, err
	}
	for _, t := range entries {
		if err = m.Append(t.Row, t.Col, t.Value); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Append stores the entry (row, col, v).
//
// Implementation:
//   - Stage 1: bounds check against the shape (ErrOutOfRange).
//   - Stage 2: numeric policy (ErrNaNInf when enabled).
//   - Stage 3: append; duplicates are not merged.
func (m *COO) Append(row, col int, v float64) error {
	if !m.shape.Contains(row, col) {
		return fmt.Errorf("COO.%s(%d,%d): %w", ctxAppend, row, col, ErrOutOfRange)
	}
	if m.validateNaNInf && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return fmt.Errorf("COO.%s(%d,%d): %w", ctxAppend, row, col, ErrNaNInf)
	}
	m.data = append(m.data, Triplet{Row: row, Col: col, Value: v})

	return nil
}

// Shape returns the matrix shape.
func (m *COO) Shape() Shape { return m.shape }

// Rows returns the row count.
func (m *COO) Rows() int { return m.shape.Rows }

// Cols returns the column count.
func (m *COO) Cols() int { return m.shape.Cols }

// Len returns the number of stored entries (duplicates included).
func (m *COO) Len() int { return len(m.data) }

// At returns the k-th stored entry in storage order.
// Panics if k is out of range, like a slice index.
func (m *COO) At(k int) (row, col int, v float64) {
	t := m.data[k]

	return t.Row, t.Col, t.Value
}

// Entries returns the stored triplets. The slice is a read-only view.
func (m *COO) Entries() []Triplet { return m.data }

// RowSorted reports whether entries are in non-decreasing row order,
// the order the CSR builder requires without WithRowSort.
// Complexity: O(nnz).
func (m *COO) RowSorted() bool {
	for k := 1; k < len(m.data); k++ {
		if m.data[k].Row < m.data[k-1].Row {
			return false
		}
	}

	return true
}

// ToDense expands the matrix; duplicated coordinates are summed.
// Complexity: O(r*c + nnz).
func (m *COO) ToDense() *Dense {
	d := &Dense{
		r:              m.shape.Rows,
		c:              m.shape.Cols,
		data:           make([]float64, m.shape.Rows*m.shape.Cols),
		validateNaNInf: m.validateNaNInf,
	}
	for _, t := range m.data {
		d.data[t.Row*d.c+t.Col] += t.Value
	}

	return d
}

// Coalesce returns a new COO sorted by (row, col) in which duplicated
// coordinates are summed into a single entry. The receiver is unchanged.
// Used to normalise unordered results (GPU readback) into canonical form.
//
// Complexity: O(nnz log nnz).
func (m *COO) Coalesce() *COO {
	sorted := slices.Clone(m.data)
	slices.SortStableFunc(sorted, compareTriplet)

	out := make([]Triplet, 0, len(sorted))
	for _, t := range sorted {
		last := len(out) - 1
		if last >= 0 && out[last].Row == t.Row && out[last].Col == t.Col {
			out[last].Value += t.Value
			continue
		}
		out = append(out, t)
	}

	return &COO{shape: m.shape, data: out, validateNaNInf: m.validateNaNInf}
}

// release hands the entry slice to the caller and leaves m empty.
// Used by NewCSRFromCOO, which consumes its input.
func (m *COO) release() []Triplet {
	data := m.data
	m.data = nil

	return data
}

// compareTriplet orders triplets by row, then column.
func compareTriplet(a, b Triplet) int {
	if a.Row != b.Row {
		return a.Row - b.Row
	}

	return a.Col - b.Col
}
