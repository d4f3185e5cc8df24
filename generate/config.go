// SPDX-License-Identifier: MIT

package generate

import (
	"fmt"
	"math/rand"
)

// Option configures a generator call.
type Option func(*config)

// config aggregates the generator knobs, resolved once per call.
type config struct {
	// rng drives every stochastic choice; nil means "no randomness".
	rng *rand.Rand
	// valueFn draws the value of one stored entry.
	valueFn func(*rand.Rand) float64
}

// Deterministic defaults.
const (
	defaultValue  = 1.0
	defaultIntMin = -4
	defaultIntMax = 4
)

func newConfig(opts ...Option) config {
	cfg := config{
		valueFn: func(*rand.Rand) float64 { return defaultValue },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithRand provides an explicit RNG. Panics on nil; prefer WithSeed.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("generate: WithRand(nil)")
	}

	return func(c *config) { c.rng = r }
}

// WithSeed seeds a fresh RNG: same seed, same matrix.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithValueFn overrides the value drawn for each stored entry. fn receives
// the configured RNG (possibly nil). Panics on nil.
func WithValueFn(fn func(*rand.Rand) float64) Option {
	if fn == nil {
		panic("generate: WithValueFn(nil)")
	}

	return func(c *config) { c.valueFn = fn }
}

// WithIntValues draws integer values uniformly from [lo, hi]. Integer
// operands keep every product exactly representable in float32, which makes
// CPU and GPU results comparable bit for bit. Panics if lo > hi.
func WithIntValues(lo, hi int) Option {
	if lo > hi {
		panic(fmt.Sprintf("generate: WithIntValues(%d, %d): lo > hi", lo, hi))
	}

	return WithValueFn(func(r *rand.Rand) float64 {
		if r == nil {
			return float64(lo)
		}
		return float64(lo + r.Intn(hi-lo+1))
	})
}

// WithUniformValues draws values uniformly from [lo, hi).
func WithUniformValues(lo, hi float64) Option {
	return WithValueFn(func(r *rand.Rand) float64 {
		if r == nil {
			return lo
		}
		return lo + (hi-lo)*r.Float64()
	})
}

// DefaultIntValues is WithIntValues over the range the tests use.
func DefaultIntValues() Option { return WithIntValues(defaultIntMin, defaultIntMax) }
