// SPDX-License-Identifier: MIT

package generate

import (
	"fmt"
	"math"

	"github.com/katalvlaran/sparsekit/matrix"
)

const (
	methodRandomSparse = "RandomSparse"
	methodDiagonal     = "Diagonal"
	methodBanded       = "Banded"
	probMin            = 0.0
	probMax            = 1.0
)

// RandomSparse samples a rows×cols matrix in which every cell is stored
// independently with probability density.
//
// Contract:
//   - rows, cols ≥ 1 (else matrix.ErrInvalidDimensions).
//   - 0 ≤ density ≤ 1 (else ErrInvalidProbability).
//   - an RNG is required when 0 < density < 1 (else ErrNeedRandSource).
//
// Cells are visited row-major and the gap to the next stored cell is drawn
// from the geometric distribution, so the cost follows nnz rather than
// rows*cols. Output order is row-major.
//
// Complexity: O(nnz) expected time and space.
func RandomSparse(rows, cols int, density float64, opts ...Option) (*matrix.COO, error) {
	if err := matrix.ValidateShape(rows, cols); err != nil {
		return nil, fmt.Errorf("%s: %w", methodRandomSparse, err)
	}
	if density < probMin || density > probMax || math.IsNaN(density) {
		return nil, fmt.Errorf("%s: density=%.6f not in [%.1f,%.1f]: %w",
			methodRandomSparse, density, probMin, probMax, ErrInvalidProbability)
	}
	cfg := newConfig(opts...)
	if cfg.rng == nil && density > probMin && density < probMax {
		return nil, fmt.Errorf("%s: %w", methodRandomSparse, ErrNeedRandSource)
	}

	cells := rows * cols
	expected := int(math.Ceil(float64(cells) * density))
	out, err := matrix.NewCOOWithCapacity(rows, cols, expected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodRandomSparse, err)
	}
	if density == probMin {
		return out, nil
	}

	// Gap sampling: with q = log(1-density) the number of skipped cells is
	// floor(log(U)/q). density == 1 stores every cell.
	var q float64
	if density < probMax {
		q = math.Log1p(-density)
	}
	for cell := -1; ; {
		skip := 0.0
		if density < probMax {
			skip = math.Floor(math.Log(1-cfg.rng.Float64()) / q)
		}
		if skip >= float64(cells-cell-1) {
			break
		}
		cell += int(skip) + 1
		if err := out.Append(cell/cols, cell%cols, cfg.valueFn(cfg.rng)); err != nil {
			return nil, fmt.Errorf("%s: Append: %w", methodRandomSparse, err)
		}
	}

	return out, nil
}

// Diagonal returns the n×n matrix with values on its main diagonal, n = len(values).
// Zero values are stored like any other.
func Diagonal(values []float64) (*matrix.COO, error) {
	n := len(values)
	out, err := matrix.NewCOOWithCapacity(n, n, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodDiagonal, err)
	}
	for i, v := range values {
		if err := out.Append(i, i, v); err != nil {
			return nil, fmt.Errorf("%s: Append: %w", methodDiagonal, err)
		}
	}

	return out, nil
}

// Banded returns an n×n matrix storing every cell with |i-j| ≤ halfWidth,
// valued by the configured value function. halfWidth 0 is a diagonal.
//
// Complexity: O(n*(2*halfWidth+1)).
func Banded(n, halfWidth int, opts ...Option) (*matrix.COO, error) {
	if halfWidth < 0 {
		return nil, fmt.Errorf("%s: halfWidth=%d < 0: %w", methodBanded, halfWidth, ErrTooFew)
	}
	cfg := newConfig(opts...)
	out, err := matrix.NewCOOWithCapacity(n, n, n*(2*halfWidth+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodBanded, err)
	}
	for i := 0; i < n; i++ {
		for j := max(0, i-halfWidth); j <= min(n-1, i+halfWidth); j++ {
			if err := out.Append(i, j, cfg.valueFn(cfg.rng)); err != nil {
				return nil, fmt.Errorf("%s: Append: %w", methodBanded, err)
			}
		}
	}

	return out, nil
}
