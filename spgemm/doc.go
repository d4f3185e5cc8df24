// SPDX-License-Identifier: MIT

// Package spgemm multiplies two CSR matrices on the CPU with Gustavson's
// row-wise algorithm:
//
//	for each row i of A
//	    for each stored (k, a_ik) in row i of A
//	        for each stored (j, b_kj) in row k of B
//	            C[i][j] += a_ik * b_kj
//
// Variants:
//
//   - Product: dense output; C is an m×n zero-initialised Dense.
//   - ProductSparse: CSR output; each row is gathered in a sparse row
//     accumulator and flushed sorted by column.
//   - Engine.ProductSparsePar: CSR output; rows are spread over a fixed
//     worker pool writing into a pre-sized, pre-indexed buffer, compacted in
//     row order after the barrier.
//   - Engine.ProductSparseToCOOPar: COO output; row chunks are the pool's work
//     items and their triplet lists are concatenated in row order.
//
// PredictNNZ is the symbolic dry run of the same traversal: it counts the
// candidate products before accumulation, an upper bound of the true nnz
// used to size output buffers here and in the gpu package.
//
// Every entry point checks A.Cols == B.Rows first and returns
// matrix.ErrDimensionMismatch before allocating anything. Operand indices are
// trusted: they were validated when the CSR was built.
package spgemm
