// Package sparsekit multiplies sparse matrices on the CPU and on a GPU compute
// pipeline, from one shared compressed-row data model.
//
// 🚀 What is in the box?
//
//	• Storage: COO triplet lists, immutable CSR operands, row-major Dense results
//	• Prediction: a cheap upper bound on the product's non-zeros, used to
//	  pre-size every output buffer
//	• CPU engine: Gustavson's row-wise product with dense, sparse and
//	  parallel (pre-indexed CSR / chunked COO) variants
//	• GPU pipeline: WGSL kernel, staged buffer transfer and asynchronous
//	  readback behind a small Device contract, with an in-process software
//	  device and a WebGPU device (build tag webgpu)
//	• Tooling: Matrix Market I/O, seeded generators, a gonum baseline,
//	  sparsity plots and the sparsekit command
//
// Under the hood, everything is organized into subpackages:
//
//	matrix/       COO, CSR, Dense, sentinels, validators, AllClose
//	spgemm/       PredictNNZ, Product, ProductSparse, Engine (parallel variants)
//	workerpool/   persistent fixed-size pool with static and dynamic schedules
//	gpu/          Device, Multiplier state machine, record codec, kernel
//	mtx/          Matrix Market coordinate reader/writer
//	generate/     random, diagonal and banded COO generators
//	baseline/     dense gonum product with raw and total timings
//	spy/          sparsity pattern plots (gonum/plot)
//	cmd/          the sparsekit command
//
// Quick example:
//
//	a, _ := matrix.NewCSRFromCOO(cooA)
//	b, _ := matrix.NewCSRFromCOO(cooB)
//	c, err := spgemm.ProductSparse(a, b)
//
//	go get github.com/katalvlaran/sparsekit
package sparsekit
