// SPDX-License-Identifier: MIT

// Package gpu: functional configuration of the Multiplier and the software
// device. Defaults live in one place; setters panic only on nonsensical values.
package gpu

import (
	"log/slog"
	"time"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultPollInterval is the pause between device polls while waiting
	// for the two map completions.
	DefaultPollInterval = 50 * time.Microsecond

	// DefaultMaxBufferSize mirrors WebGPU's default maxBufferSize limit (256 MiB).
	DefaultMaxBufferSize = 256 << 20

	// DefaultMaxWorkgroups mirrors maxComputeWorkgroupsPerDimension.
	DefaultMaxWorkgroups = 65535

	// DefaultInvocationBatch is the number of invocations a software worker
	// claims at once.
	DefaultInvocationBatch = 16

	// DefaultBatchSize is the number of rows of A in flight at once: one
	// accumulator slot of cols(B) cells per row.
	DefaultBatchSize = 1024

	// MaxBatchSize keeps a dispatch of the embedded kernel (64 invocations
	// per workgroup) within DefaultMaxWorkgroups.
	MaxBatchSize = DefaultMaxWorkgroups * 64
)

const (
	panicPollInterval = "gpu: WithPollInterval: d must be > 0"
	panicMaxBuffer    = "gpu: WithMaxBufferSize: n must be > 0"
	panicDevWorkers   = "gpu: WithDeviceWorkers: n must be >= 0"
	panicBatchSize    = "gpu: WithBatchSize: n must be in [1, MaxBatchSize]"
)

// Option configures a Multiplier.
type Option func(*Options)

// Options is the resolved Multiplier configuration.
type Options struct {
	shaderPath   string
	pollInterval time.Duration
	batchSize    int
	logger       *slog.Logger
}

// WithShaderPath loads the kernel source from path instead of the embedded copy.
func WithShaderPath(path string) Option {
	return func(o *Options) { o.shaderPath = path }
}

// WithPollInterval sets the pause between polls while awaiting the mappings.
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	if d <= 0 {
		panic(panicPollInterval)
	}

	return func(o *Options) { o.pollInterval = d }
}

// WithBatchSize sets how many rows of A the device accumulates at once.
// Each costs 8*cols(B) bytes of workspace; rows beyond the batch are taken
// in turn by the same invocations. Panics if n is outside [1, MaxBatchSize].
func WithBatchSize(n int) Option {
	if n < 1 || n > MaxBatchSize {
		panic(panicBatchSize)
	}

	return func(o *Options) { o.batchSize = n }
}

// WithLogger routes stage transitions to l. nil restores the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func gatherOptions(user ...Option) Options {
	o := Options{pollInterval: DefaultPollInterval, batchSize: DefaultBatchSize}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return o
}

// DeviceOption configures the software device.
type DeviceOption func(*deviceOptions)

type deviceOptions struct {
	workers       int
	maxBufferSize uint64
	logger        *slog.Logger
}

// WithDeviceWorkers sets how many goroutines execute kernel invocations.
// 0 means GOMAXPROCS. Panics if n < 0.
func WithDeviceWorkers(n int) DeviceOption {
	if n < 0 {
		panic(panicDevWorkers)
	}

	return func(o *deviceOptions) { o.workers = n }
}

// WithMaxBufferSize caps single buffer allocations. Panics if n == 0.
func WithMaxBufferSize(n uint64) DeviceOption {
	if n == 0 {
		panic(panicMaxBuffer)
	}

	return func(o *deviceOptions) { o.maxBufferSize = n }
}

// WithDeviceLogger routes device records (submissions, maps) to l.
func WithDeviceLogger(l *slog.Logger) DeviceOption {
	return func(o *deviceOptions) { o.logger = l }
}

func gatherDeviceOptions(user ...DeviceOption) deviceOptions {
	o := deviceOptions{maxBufferSize: DefaultMaxBufferSize}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return o
}
