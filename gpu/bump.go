// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"sync/atomic"
)

// BumpAllocator is the append cursor shared by every kernel invocation.
//
// Claim atomically takes the next slot. The cursor keeps advancing past
// Capacity so that the final count records the true demand; slots at or
// beyond Capacity are refused (saturated) and nothing is written for them.
// The host turns Count() > Capacity() into ErrResultOverflow instead of
// reading past the buffer.
//
// The capacity is the predicted nnz bound, which is never below the number
// of cells the kernel emits, so a well-formed dispatch never saturates.
type BumpAllocator struct {
	counter  *uint32
	capacity uint32
}

// NewBumpAllocator binds an allocator to a counter cell.
// The cell must only be accessed atomically while the allocator is in use.
func NewBumpAllocator(counter *uint32, capacity uint32) *BumpAllocator {
	return &BumpAllocator{counter: counter, capacity: capacity}
}

// Claim returns the next slot and whether it lies within capacity.
func (b *BumpAllocator) Claim() (slot uint32, ok bool) {
	slot = atomic.AddUint32(b.counter, 1) - 1

	return slot, slot < b.capacity
}

// Count returns the number of claims so far, refused ones included.
func (b *BumpAllocator) Count() uint32 { return atomic.LoadUint32(b.counter) }

// Capacity returns the number of slots.
func (b *BumpAllocator) Capacity() uint32 { return b.capacity }

// Saturated reports whether at least one claim was refused.
func (b *BumpAllocator) Saturated() bool { return b.Count() > b.capacity }

// checkHeader validates a read-back header against the allocated capacity.
func checkHeader(h Header, capacity uint32) error {
	if h.Capacity != capacity {
		return fmt.Errorf("header capacity %d, allocated %d: %w", h.Capacity, capacity, ErrDeviceFailure)
	}
	if h.Count > h.Capacity {
		return fmt.Errorf("%d records emitted into %d slots: %w", h.Count, h.Capacity, ErrResultOverflow)
	}

	return nil
}
