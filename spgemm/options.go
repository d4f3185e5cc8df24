// SPDX-License-Identifier: MIT

// Package spgemm: functional configuration of the parallel Engine.
//
// Design goals:
//   - Deterministic results: every schedule produces the same CSR/COO
//     (rows are the unit of work and the merge is in row order).
//   - Safe by construction: WithX panics only on nonsensical values.
package spgemm

import (
	"fmt"
	"log/slog"
)

// Schedule selects how rows are distributed over the workers.
type Schedule int

const (
	// ScheduleStatic gives every worker one contiguous chunk of rows.
	ScheduleStatic Schedule = iota
	// ScheduleDynamic lets workers claim batches of rows through an atomic cursor.
	ScheduleDynamic
)

// String implements fmt.Stringer.
func (s Schedule) String() string {
	switch s {
	case ScheduleStatic:
		return "static"
	case ScheduleDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("Schedule(%d)", int(s))
	}
}

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultWorkers = 0 means GOMAXPROCS.
	DefaultWorkers = 0

	// DefaultSchedule is the work-stealing schedule: row costs of sparse
	// products are typically very uneven.
	DefaultSchedule = ScheduleDynamic

	// DefaultBatchSize is the number of rows claimed per atomic grab
	// (dynamic schedule) and the chunk granularity of the COO variant.
	DefaultBatchSize = 64
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicWorkersInvalid   = "spgemm: WithWorkers: n must be >= 0"
	panicScheduleInvalid  = "spgemm: WithSchedule: unknown schedule"
	panicBatchSizeInvalid = "spgemm: WithBatchSize: n must be > 0"
)

// Option configures an Engine.
type Option func(*Options)

// Options is the resolved Engine configuration.
type Options struct {
	workers  int
	schedule Schedule
	batch    int
	logger   *slog.Logger
}

// WithWorkers fixes the pool size. 0 means GOMAXPROCS.
// Panics if n < 0.
func WithWorkers(n int) Option {
	if n < 0 {
		panic(panicWorkersInvalid)
	}

	return func(o *Options) { o.workers = n }
}

// WithSchedule selects the row distribution.
// Panics on values other than ScheduleStatic / ScheduleDynamic.
func WithSchedule(s Schedule) Option {
	if s != ScheduleStatic && s != ScheduleDynamic {
		panic(panicScheduleInvalid)
	}

	return func(o *Options) { o.schedule = s }
}

// WithBatchSize sets the row batch of the dynamic schedule and of the COO
// variant's chunks. Panics if n <= 0.
func WithBatchSize(n int) Option {
	if n <= 0 {
		panic(panicBatchSizeInvalid)
	}

	return func(o *Options) { o.batch = n }
}

// WithLogger routes the engine's debug records to l. nil restores the
// discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func defaultOptions() Options {
	return Options{
		workers:  DefaultWorkers,
		schedule: DefaultSchedule,
		batch:    DefaultBatchSize,
	}
}

// gatherOptions applies setters in order and fills the logger fallback.
func gatherOptions(user ...Option) Options {
	o := defaultOptions()
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
