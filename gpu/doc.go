// SPDX-License-Identifier: MIT

// Package gpu multiplies two CSR matrices with a compute kernel.
//
// A Multiplier drives one product through an explicit state machine:
//
//	Uninitialized → DeviceReady → BuffersLoaded → Dispatched → ResultMapped → Done
//
//   - NewMultiplier compiles the sparse_mul kernel (naga front end, then the
//     Device) and checks its bindings against the pipeline.
//   - Load uploads both operands as read-only storage buffers, sizes the
//     result with spgemm.PredictNNZ and creates a device-local result pair
//     (header + records), a host-visible staging pair of the same layout and
//     the accumulator workspace (WithBatchSize slots of cols(B) cells).
//   - Dispatch records one command buffer (compute pass + copy to staging)
//     and submits it. The context is consulted only before submission.
//   - Read maps the staging header and the staging records independently,
//     waits for both completions while polling the device, then decodes the
//     emitted records into a COO.
//
// Each invocation accumulates whole rows in its workspace slot and emits
// every cell of a row once through an atomic bump allocator. The COO holds
// no duplicates but its order is arbitrary; Coalesce sorts it. Values
// travel as float32.
//
// Two devices are provided: NewSoftwareDevice, an in-process implementation
// of the same object model (asynchronous queue, explicit map/poll), and
// NewWebGPUDevice on top of wgpu-native, compiled in with the webgpu build tag.
// There is no fallback from one to the other.
package gpu
