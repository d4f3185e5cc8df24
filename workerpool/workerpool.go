// SPDX-License-Identifier: MIT

// Package workerpool provides a persistent, fixed-size pool of goroutines that
// split an index range [0, n) into disjoint pieces. A Pool is created once and
// reused across many products, so no goroutines are spawned per call.
//
// Two schedules are offered:
//
//   - Static: every worker receives one contiguous chunk of ceil(n/workers) indices.
//   - Dynamic: workers repeatedly claim the next batch of indices through an
//     atomic cursor, which balances rows of very different cost.
//
// Both calls block until every index has been processed exactly once; that
// return is the barrier callers merge after.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.Static(rows, func(lo, hi int) {
//	    for i := lo; i < hi; i++ {
//	        processRow(i)
//	    }
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. The zero value is not usable; call New.
//
// Static, Dynamic and Close may be called from any goroutine: submissions
// hold mu for reading across their sends, so Close (which takes it for
// writing) never closes tasks under a sender. fn must not call back into
// the same pool.
type Pool struct {
	workers int
	tasks   chan task
	mu      sync.RWMutex
	closed  bool // guarded by mu
}

// task is one unit of work plus the barrier it reports to.
type task struct {
	run  func()
	done *sync.WaitGroup
}

// New spawns a pool of n workers. n <= 0 means GOMAXPROCS.
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: n,
		tasks:   make(chan task, n*2),
	}
	for range n {
		go p.loop()
	}

	return p
}

func (p *Pool) loop() {
	for t := range p.tasks {
		t.run()
		t.done.Done()
	}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// Close stops the workers after pending work completes. Safe to call twice.
// A closed pool still accepts calls and runs them on the calling goroutine.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// submit hands runs to the workers and waits for all of them. It reports
// false, without running anything, when the pool is closed.
func (p *Pool) submit(runs []func()) bool {
	var wg sync.WaitGroup
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return false
	}
	wg.Add(len(runs))
	for _, run := range runs {
		p.tasks <- task{run: run, done: &wg}
	}
	p.mu.RUnlock()
	wg.Wait()

	return true
}

// Static runs fn over contiguous chunks covering [0, n) and waits.
// fn receives half-open ranges [lo, hi); ranges are disjoint and ordered by
// chunk index.
func (p *Pool) Static(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := min(p.workers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	runs := make([]func(), 0, workers)
	for w := range workers {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := min(lo+chunk, n)
		runs = append(runs, func() { fn(lo, hi) })
	}
	if !p.submit(runs) {
		fn(0, n)
	}
}

// Dynamic runs fn over batches of at most batch indices claimed through an
// atomic cursor, and waits. batch <= 0 means 1.
func (p *Pool) Dynamic(n, batch int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if batch <= 0 {
		batch = 1
	}
	batches := (n + batch - 1) / batch
	workers := min(p.workers, batches)
	if workers == 1 {
		fn(0, n)
		return
	}

	var cursor atomic.Int64
	claim := func() {
		for {
			lo := int(cursor.Add(int64(batch))) - batch
			if lo >= n {
				return
			}
			fn(lo, min(lo+batch, n))
		}
	}
	runs := make([]func(), workers)
	for w := range runs {
		runs[w] = claim
	}
	if !p.submit(runs) {
		fn(0, n)
	}
}
