// SPDX-License-Identifier: MIT

// Package generate: sentinel errors. Branch on them with errors.Is; call
// sites attach the method and parameters with %w.
package generate

import "errors"

// ErrInvalidProbability indicates a density outside [0, 1].
var ErrInvalidProbability = errors.New("generate: probability out of range")

// ErrNeedRandSource indicates a stochastic generator without an RNG
// (use WithSeed or WithRand).
var ErrNeedRandSource = errors.New("generate: rng is required")

// ErrTooFew indicates a size parameter below its minimum.
var ErrTooFew = errors.New("generate: parameter too small")
