// SPDX-License-Identifier: MIT

// Package generate builds deterministic sparse test matrices.
//
// Every generator returns a fresh *matrix.COO in row-major order, so the
// result converts straight into a CSR (matrix.NewCSRFromCOO) without sorting.
// Randomised generators draw from the RNG in the resolved options: fix it
// with WithSeed for reproducible fixtures and benchmarks.
//
//	coo, err := generate.RandomSparse(1000, 1000, 0.01, generate.WithSeed(42))
//	a, err := matrix.NewCSRFromCOO(coo)
package generate
