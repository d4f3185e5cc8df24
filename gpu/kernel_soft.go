// SPDX-License-Identifier: MIT

package gpu

import "math"

// softKernelFunc executes one invocation: gid is global_invocation_id.x,
// stride the total number of invocations of the dispatch, and groups holds
// the bound buffers as [group][binding].
type softKernelFunc func(gid, stride uint32, groups [][]*softBuffer)

// softKernelImpl is a native implementation of a WGSL kernel together with
// the binding layout its source must declare.
type softKernelImpl struct {
	layout []Binding
	run    softKernelFunc
}

var softKernels = map[string]softKernelImpl{
	KernelName: {layout: sparseMulLayout, run: runSparseMul},
}

// runSparseMul mirrors shader/sparse_mul.wgsl line for line.
func runSparseMul(gid, stride uint32, groups [][]*softBuffer) {
	aPtr, aCol, aVal := groups[groupA][0].words, groups[groupA][1].words, groups[groupA][2].words
	bPtr, bCol, bVal := groups[groupB][0].words, groups[groupB][1].words, groups[groupB][2].words
	res := groups[groupResult]
	header, entries := res[resHeader].words, res[resEntries].words
	sums, marks := res[resSums].words, res[resMarks].words

	if stride == 0 || len(aPtr) == 0 {
		return
	}
	width := uint32(len(marks)) / stride
	base := gid * width
	rows := uint32(len(aPtr)) - 1
	alloc := NewBumpAllocator(&header[0], load(header, 1))

	for i := gid; i < rows; i += stride {
		stamp := i + 1
		for p := aPtr[i]; p < aPtr[i+1]; p++ {
			k := load(aCol, p)
			av := math.Float32frombits(load(aVal, p))
			for q := load(bPtr, k); q < load(bPtr, k+1); q++ {
				cell := base + load(bCol, q)
				v := av * math.Float32frombits(load(bVal, q))
				if load(marks, cell) != stamp {
					store(marks, uint64(cell), stamp)
					store(sums, uint64(cell), math.Float32bits(v))
				} else {
					store(sums, uint64(cell), math.Float32bits(math.Float32frombits(load(sums, cell))+v))
				}
			}
		}
		for p := aPtr[i]; p < aPtr[i+1]; p++ {
			k := load(aCol, p)
			for q := load(bPtr, k); q < load(bPtr, k+1); q++ {
				col := load(bCol, q)
				cell := base + col
				if load(marks, cell) != stamp {
					continue
				}
				store(marks, uint64(cell), 0)
				slot, ok := alloc.Claim()
				if !ok {
					continue
				}
				at := uint64(slot) * (RecordSize / wordSize)
				store(entries, at, i)
				store(entries, at+1, col)
				store(entries, at+2, load(sums, cell))
			}
		}
	}
}

// load reads words[i]; out-of-bounds reads yield 0 as under WGSL robust
// buffer access.
func load(words []uint32, i uint32) uint32 {
	if uint64(i) >= uint64(len(words)) {
		return 0
	}

	return words[i]
}

// store writes words[i]; out-of-bounds writes are discarded.
func store(words []uint32, i uint64, v uint32) {
	if i < uint64(len(words)) {
		words[i] = v
	}
}
