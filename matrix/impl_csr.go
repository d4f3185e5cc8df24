// SPDX-License-Identifier: MIT

// Package matrix - CSR (compressed sparse row) storage.
//
// Layout (Gustavson's IA/JA/A notation):
//   - rowPtr (IA): length rows+1, non-decreasing, rowPtr[0]=0, rowPtr[rows]=nnz.
//   - colIdx (JA): column of each stored entry, length nnz.
//   - values (A) : value of each stored entry, length nnz.
//   - Row i owns the half-open segment [rowPtr[i], rowPtr[i+1]).
//
// Ownership:
//   - A CSR is built once (from a consumed COO, a Dense, or raw arrays) and is
//     immutable afterwards. There is no mutating API; it is safe to share one
//     CSR between goroutines and between several multiplications.
//   - Accessors that return slices return views of the internal arrays. They
//     MUST NOT be modified.
//
// Complexity quicksheet:
//   - NewCSRFromCOO: O(rows + nnz) (+ O(nnz log nnz) with WithRowSort).
//   - Row(i): O(1); ToDense: O(r*c + nnz); ToCOO: O(nnz).

package matrix

import (
	"fmt"
	"slices"
)

const (
	opFromCOO   = "NewCSRFromCOO"
	opFromDense = "NewCSRFromDense"
	opNewCSR    = "NewCSR"
)

// CSR is a compressed-sparse-row matrix.
type CSR struct {
	shape  Shape
	rowPtr []int
	colIdx []int
	values []float64
}

// NewCSRFromCOO compresses coo into CSR form and consumes it.
//
// Implementation:
//   - Stage 1: nil check; resolve options.
//   - Stage 2: WithRowSort ⇒ stable sort by (row, col) on a copy;
//     otherwise verify non-decreasing rows (ErrRowOrder) and in-range indices.
//   - Stage 3: single ascending scan: count entries per row, prefix-sum into
//     rowPtr, copy columns/values in storage order.
//   - Stage 4: release the COO's storage (the input is left empty).
//
// Behavior highlights:
//   - Zero rows anywhere (leading, inner, trailing) give rowPtr[i]==rowPtr[i+1].
//   - Duplicated coordinates remain separate entries inside their row.
//   - On error the COO is left untouched.
//
// Errors:
//   - ErrNilMatrix, ErrRowOrder, ErrOutOfRange.
//
// Complexity:
//   - Time O(rows + nnz), Space O(rows + nnz).
func NewCSRFromCOO(coo *COO, opts ...Option) (*CSR, error) {
	if coo == nil {
		return nil, matrixErrorf(opFromCOO, ErrNilMatrix)
	}
	o := gatherOptions(opts...)
	shape := coo.shape
	entries := coo.data

	if o.rowSort {
		entries = slices.Clone(entries)
		slices.SortStableFunc(entries, compareTriplet)
	}

	// Validate the whole input before taking ownership.
	prevRow := 0
	for k, t := range entries {
		if !shape.Contains(t.Row, t.Col) {
			return nil, matrixErrorf(opFromCOO,
				fmt.Errorf("entry %d (%d,%d): %w", k, t.Row, t.Col, ErrOutOfRange))
		}
		if t.Row < prevRow {
			return nil, matrixErrorf(opFromCOO,
				fmt.Errorf("entry %d row %d after row %d: %w", k, t.Row, prevRow, ErrRowOrder))
		}
		prevRow = t.Row
	}

	nnz := len(entries)
	rowPtr := make([]int, shape.Rows+1)
	colIdx := make([]int, nnz)
	values := make([]float64, nnz)

	// Count per row (shifted by one), then prefix-sum.
	for _, t := range entries {
		rowPtr[t.Row+1]++
	}
	for i := 0; i < shape.Rows; i++ {
		rowPtr[i+1] += rowPtr[i]
	}
	// Rows are ascending, so storage order is already the global CSR order.
	for k, t := range entries {
		colIdx[k] = t.Col
		values[k] = t.Value
	}

	coo.release()

	return &CSR{shape: shape, rowPtr: rowPtr, colIdx: colIdx, values: values}, nil
}

// NewCSR adopts raw compressed arrays after validating every invariant
// (see ValidateCSR). The slices are owned by the CSR afterwards.
func NewCSR(rows, cols int, rowPtr, colIdx []int, values []float64) (*CSR, error) {
	m := &CSR{shape: Shape{Rows: rows, Cols: cols}, rowPtr: rowPtr, colIdx: colIdx, values: values}
	if err := ValidateCSR(m); err != nil {
		return nil, matrixErrorf(opNewCSR, err)
	}

	return m, nil
}

// NewCSRFromDense compresses a dense matrix row by row.
// Exact zeros are skipped unless WithKeepZeros is given.
// Complexity: O(r*c).
func NewCSRFromDense(d *Dense, opts ...Option) (*CSR, error) {
	if d == nil {
		return nil, matrixErrorf(opFromDense, ErrNilMatrix)
	}
	o := gatherOptions(opts...)

	rowPtr := make([]int, d.r+1)
	colIdx := make([]int, 0, d.r)
	values := make([]float64, 0, d.r)
	var i, j int
	for i = 0; i < d.r; i++ {
		row := d.data[i*d.c : (i+1)*d.c]
		for j = 0; j < d.c; j++ {
			if o.dropZeros && row[j] == 0 {
				continue
			}
			colIdx = append(colIdx, j)
			values = append(values, row[j])
		}
		rowPtr[i+1] = len(values)
	}

	return &CSR{shape: d.Shape(), rowPtr: rowPtr, colIdx: colIdx, values: values}, nil
}

// Shape returns the matrix shape.
func (m *CSR) Shape() Shape { return m.shape }

// Rows returns the row count.
func (m *CSR) Rows() int { return m.shape.Rows }

// Cols returns the column count.
func (m *CSR) Cols() int { return m.shape.Cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.values) }

// RowPtr returns the row-pointer array (read-only view, length rows+1).
func (m *CSR) RowPtr() []int { return m.rowPtr }

// ColIdx returns the column-index array (read-only view, length nnz).
func (m *CSR) ColIdx() []int { return m.colIdx }

// Values returns the value array (read-only view, length nnz).
func (m *CSR) Values() []float64 { return m.values }

// Row returns the column indices and values stored in row i (read-only views).
// Panics if i is out of range, like a slice index.
// Complexity: O(1).
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]

	return m.colIdx[lo:hi:hi], m.values[lo:hi:hi]
}

// RowNNZ returns the number of entries stored in row i.
func (m *CSR) RowNNZ(i int) int { return m.rowPtr[i+1] - m.rowPtr[i] }

// ToDense expands the matrix; duplicated entries of a row are summed.
// Complexity: O(r*c + nnz).
func (m *CSR) ToDense() *Dense {
	d := &Dense{
		r:              m.shape.Rows,
		c:              m.shape.Cols,
		data:           make([]float64, m.shape.Rows*m.shape.Cols),
		validateNaNInf: DefaultValidateNaNInf,
	}
	var i, p int
	for i = 0; i < m.shape.Rows; i++ {
		base := i * d.c
		for p = m.rowPtr[i]; p < m.rowPtr[i+1]; p++ {
			d.data[base+m.colIdx[p]] += m.values[p]
		}
	}

	return d
}

// ToCOO returns the entries as a row-major COO (a fresh copy).
// Complexity: O(nnz).
func (m *CSR) ToCOO() *COO {
	out := make([]Triplet, 0, len(m.values))
	var i, p int
	for i = 0; i < m.shape.Rows; i++ {
		for p = m.rowPtr[i]; p < m.rowPtr[i+1]; p++ {
			out = append(out, Triplet{Row: i, Col: m.colIdx[p], Value: m.values[p]})
		}
	}

	return &COO{shape: m.shape, data: out, validateNaNInf: DefaultValidateNaNInf}
}

// String summarises the matrix; the arrays are printed only for small inputs.
func (m *CSR) String() string {
	const maxDump = 64
	head := fmt.Sprintf("CSR(%d×%d, nnz=%d)", m.shape.Rows, m.shape.Cols, len(m.values))
	if len(m.values) > maxDump {
		return head
	}

	return fmt.Sprintf("%s rowPtr=%v colIdx=%v values=%v", head, m.rowPtr, m.colIdx, m.values)
}
