// SPDX-License-Identifier: MIT

package gpu

// BufferUsage is a bit set of the ways a buffer may be used.
type BufferUsage uint32

const (
	UsageStorage BufferUsage = 1 << iota
	UsageCopySrc
	UsageCopyDst
	UsageMapRead
)

// Has reports whether every bit of want is set.
func (u BufferUsage) Has(want BufferUsage) bool { return u&want == want }

// Resource is any device object with an explicit lifetime.
type Resource interface {
	Release()
}

// Buffer is a linear device allocation.
type Buffer interface {
	Resource
	Size() uint64
	Usage() BufferUsage
}

// Kernel is a compiled shader module.
type Kernel interface {
	Resource
	Spec() KernelSpec
}

// BindGroupLayout describes the storage bindings of one group.
type BindGroupLayout interface {
	Resource
	Entries() []Access
}

// BindGroup binds concrete buffers to a layout, in binding order.
type BindGroup interface {
	Resource
}

// Pipeline is a compute pipeline: kernel plus one layout per group.
type Pipeline interface {
	Resource
}

// CommandBuffer is a finished, submittable command list.
type CommandBuffer interface {
	Resource
}

// Copy is one buffer-to-buffer transfer. Offsets and size must be multiples of 4.
type Copy struct {
	Src, Dst             Buffer
	SrcOffset, DstOffset uint64
	Size                 uint64
}

// Commands is the content of one command buffer: a single compute pass
// (pipeline, bind groups in group order, workgroup counts) followed by copies.
type Commands struct {
	Pipeline   Pipeline
	BindGroups []BindGroup
	Workgroups [3]uint32
	Copies     []Copy
}

// Device is the device context the Multiplier runs on. It mirrors the WebGPU
// object model closely enough to map 1:1 onto a native implementation.
//
// Submit is asynchronous. MapAsync only registers a request; callbacks run
// from inside Poll once the work submitted before the request has finished.
// A Device may serve several Multipliers one after the other; concurrent
// submissions need external serialisation.
type Device interface {
	// Compile builds a kernel. Failure wraps ErrResourceUnavailable.
	Compile(spec KernelSpec) (Kernel, error)

	// CreateBufferInit creates a buffer holding contents.
	CreateBufferInit(label string, contents []byte, usage BufferUsage) (Buffer, error)
	// CreateBuffer creates a zeroed buffer of size bytes.
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)

	CreateBindGroupLayout(label string, entries []Access) (BindGroupLayout, error)
	CreateBindGroup(label string, layout BindGroupLayout, buffers []Buffer) (BindGroup, error)
	CreatePipeline(label string, kernel Kernel, layouts []BindGroupLayout) (Pipeline, error)

	// Encode records cmds into a command buffer.
	Encode(label string, cmds Commands) (CommandBuffer, error)
	// Submit queues a command buffer for execution and returns immediately.
	Submit(cb CommandBuffer) error

	// MapAsync requests host access to [offset, offset+size) of a buffer
	// with UsageMapRead. done receives nil or the mapping error.
	MapAsync(buf Buffer, offset, size uint64, done func(error)) error
	// MappedRange returns the bytes of a mapped range.
	MappedRange(buf Buffer, offset, size uint64) ([]byte, error)
	// Unmap releases every mapped range of buf.
	Unmap(buf Buffer)

	// Poll drives completion. With wait it blocks until the queue is empty.
	// It reports whether no work and no map request is pending.
	Poll(wait bool) bool

	// Close releases the device. Later calls fail with ErrDeviceClosed.
	Close() error
}

// releaseAll releases every non-nil resource.
func releaseAll[R Resource](rs ...R) {
	for _, r := range rs {
		if any(r) != nil {
			r.Release()
		}
	}
}
