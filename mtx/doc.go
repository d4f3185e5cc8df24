// SPDX-License-Identifier: MIT

// Package mtx reads and writes the MatrixMarket coordinate format:
//
//	%%MatrixMarket matrix coordinate real general
//	% any number of comment lines
//	rows cols nnz
//	row col value      (nnz lines, 1-based indices)
//
// The banner is optional; without it the file is read as "coordinate real
// general". Supported fields are real, integer and pattern (entries without
// a value, read as 1). Symmetry general and symmetric are supported; a
// symmetric file stores the lower triangle and is expanded on read.
//
// Indices are 1-based on disk and 0-based in memory. Entries are returned in
// file order: duplicates are kept (and summed by every consumer), and a file
// not sorted by row needs matrix.WithRowSort when converted to CSR.
package mtx
