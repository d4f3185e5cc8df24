// SPDX-License-Identifier: MIT

package spgemm

import (
	"context"

	"github.com/katalvlaran/sparsekit/matrix"
)

// ProductSparsePar is the one-shot form of Engine.ProductSparsePar: it starts
// an engine with opts, runs one product and stops the engine.
func ProductSparsePar(a, b *matrix.CSR, opts ...Option) (*matrix.CSR, error) {
	e := NewEngine(opts...)
	defer e.Close()

	return e.ProductSparsePar(a, b)
}

// ProductSparseToCOOPar is the one-shot form of Engine.ProductSparseToCOOPar.
func ProductSparseToCOOPar(ctx context.Context, a, b *matrix.CSR, opts ...Option) (*matrix.COO, error) {
	e := NewEngine(opts...)
	defer e.Close()

	return e.ProductSparseToCOOPar(ctx, a, b)
}
