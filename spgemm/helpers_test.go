// SPDX-License-Identifier: MIT

package spgemm_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/matrix"
)

// csrOf compresses a row-major literal; rows must be rectangular.
func csrOf(tb testing.TB, rows [][]float64) *matrix.CSR {
	tb.Helper()
	d := denseOf(tb, rows)
	m, err := matrix.NewCSRFromDense(d)
	require.NoError(tb, err)

	return m
}

func denseOf(tb testing.TB, rows [][]float64) *matrix.Dense {
	tb.Helper()
	r, c := len(rows), len(rows[0])
	flat := make([]float64, 0, r*c)
	for _, row := range rows {
		require.Len(tb, row, c)
		flat = append(flat, row...)
	}
	d, err := matrix.NewDenseFrom(r, c, flat)
	require.NoError(tb, err)

	return d
}

// randomCSR draws roughly density*r*c integer-valued entries in [-4, 4].
func randomCSR(tb testing.TB, r, c int, density float64, seed int64) *matrix.CSR {
	tb.Helper()
	rng := rand.New(rand.NewSource(seed))
	coo, err := matrix.NewCOO(r, c)
	require.NoError(tb, err)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if rng.Float64() < density {
				require.NoError(tb, coo.Append(i, j, float64(rng.Intn(9)-4)))
			}
		}
	}
	m, err := matrix.NewCSRFromCOO(coo)
	require.NoError(tb, err)

	return m
}

// requireClose asserts |got-want| <= DefaultAbsTol element-wise.
func requireClose(tb testing.TB, want, got *matrix.Dense) {
	tb.Helper()
	ok, err := matrix.AllClose(got, want, 0, matrix.DefaultAbsTol)
	require.NoError(tb, err)
	require.True(tb, ok, "want\n%s\ngot\n%s", want, got)
}
