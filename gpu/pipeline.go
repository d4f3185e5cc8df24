// SPDX-License-Identifier: MIT

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/katalvlaran/sparsekit/matrix"
	"github.com/katalvlaran/sparsekit/spgemm"
)

// Operation names for error wrapping.
const (
	opNewMultiplier = "NewMultiplier"
	opLoad          = "Load"
	opDispatch      = "Dispatch"
	opRead          = "Read"
	opMultiply      = "Multiply"
)

// Multiplier runs sparse products on one Device.
//
// A Multiplier owns the buffers of the product in flight exclusively, from
// Load until Release. It is safe to call from several goroutines, but the
// stages of one product must still come in order; a stage called from the
// wrong state fails with ErrInvalidState. On any other failure the
// multiplier stays in the state it failed in and Release brings it back to
// DeviceReady.
type Multiplier struct {
	mu           sync.Mutex
	dev          Device
	log          *slog.Logger
	pollInterval time.Duration
	batchSize    int
	kernel       Kernel
	state        State

	// Per-product resources (BuffersLoaded and later).
	shape      matrix.Shape
	rows       uint32
	capacity   uint32
	workgroups uint32
	operands   []Buffer // A then B: rowPtr, colIdx, values
	result     [4]Buffer
	staging    [2]Buffer
	layouts   []BindGroupLayout
	groups    []BindGroup
	pipeline  Pipeline
	submitted CommandBuffer
}

// Bindings of the result group. Only header and entries are staged.
const (
	resHeader  = 0
	resEntries = 1
	resSums    = 2
	resMarks   = 3
)

// NewMultiplier loads and compiles the sparse_mul kernel on dev:
// Uninitialized → DeviceReady.
//
// Errors:
//   - ErrResourceUnavailable when dev is nil, the kernel source cannot be
//     read, its interface does not match the pipeline, or compilation fails.
func NewMultiplier(dev Device, opts ...Option) (*Multiplier, error) {
	o := gatherOptions(opts...)
	m := &Multiplier{dev: dev, log: o.logger, pollInterval: o.pollInterval, batchSize: o.batchSize, state: Uninitialized}
	if dev == nil {
		return nil, gpuErrorf(opNewMultiplier, fmt.Errorf("nil device: %w", ErrResourceUnavailable))
	}

	spec, err := loadKernel(o.shaderPath)
	if err != nil {
		return nil, gpuErrorf(opNewMultiplier, err)
	}
	k, err := dev.Compile(spec)
	if err != nil {
		return nil, gpuErrorf(opNewMultiplier, err)
	}
	m.kernel = k
	m.transition(DeviceReady)

	return m, nil
}

// State returns the current stage.
func (m *Multiplier) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *Multiplier) transition(to State) {
	m.log.Debug("gpu: stage", "from", m.state.String(), "to", to.String())
	m.state = to
}

// Load uploads the operands and allocates the result: DeviceReady → BuffersLoaded.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible; nothing touches the device on mismatch.
//   - Stage 2: capacity = spgemm.PredictNNZ(a, b), an upper bound of the
//     entries the kernel emits.
//   - Stage 3: six read-only storage buffers (rowPtr, colIdx, values of A
//     and B); a device-local result pair {header, entries} and a
//     host-visible staging pair of the same sizes; the device-local
//     workspace {sums, marks}, one slot of cols(B) cells per invocation.
//     The dispatch has min(rows(A), batch size) invocations rounded up to
//     whole workgroups.
//   - Stage 4: three bind-group layouts and bind groups (A, B, result).
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
//   - ErrResourceUnavailable when a dimension or the capacity does not fit in
//     u32, or an allocation fails.
//   - ErrInvalidState outside DeviceReady.
func (m *Multiplier) Load(a, b *matrix.CSR) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != DeviceReady {
		return stateErrorf(opLoad, m.state, DeviceReady)
	}
	if err := m.load(a, b); err != nil {
		m.releaseBuffers()
		return gpuErrorf(opLoad, err)
	}
	m.transition(BuffersLoaded)

	return nil
}

func (m *Multiplier) load(a, b *matrix.CSR) error {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return err
	}
	predicted, err := spgemm.PredictNNZ(a, b)
	if err != nil {
		return err
	}
	if uint64(predicted) > math.MaxUint32 || uint64(a.Rows()) >= math.MaxUint32-MaxBatchSize || uint64(b.Cols()) > math.MaxUint32 {
		return fmt.Errorf("%d×%d result with %d candidates exceeds u32 addressing: %w",
			a.Rows(), b.Cols(), predicted, ErrResourceUnavailable)
	}
	m.shape = matrix.Shape{Rows: a.Rows(), Cols: b.Cols()}
	m.rows = uint32(a.Rows())
	m.capacity = uint32(predicted)
	wgSize := m.kernel.Spec().Interface.WorkgroupSize[0]
	m.workgroups = (uint32(min(a.Rows(), m.batchSize)) + wgSize - 1) / wgSize
	slots := uint64(max(m.workgroups, 1)) * uint64(wgSize)
	workspace := slots * uint64(max(b.Cols(), 1)) * wordSize
	m.log.Debug("gpu: loading operands",
		"a_rows", a.Rows(), "a_nnz", a.NNZ(), "b_cols", b.Cols(), "b_nnz", b.NNZ(),
		"capacity", m.capacity, "slots", slots, "workspace_bytes", workspace)

	for _, op := range []struct {
		name string
		csr  *matrix.CSR
	}{{"A", a}, {"B", b}} {
		bufs, err := m.uploadCSR(op.name, op.csr)
		if err != nil {
			return err
		}
		m.operands = append(m.operands, bufs...)
	}

	head := make([]byte, HeaderSize)
	PutHeader(head, Header{Count: 0, Capacity: m.capacity})
	dataSize := recordBytes(m.capacity)

	if m.result[resHeader], err = m.dev.CreateBufferInit("C.header", head, UsageStorage|UsageCopySrc); err != nil {
		return err
	}
	if m.result[resEntries], err = m.dev.CreateBuffer("C.entries", dataSize, UsageStorage|UsageCopySrc); err != nil {
		return err
	}
	if m.result[resSums], err = m.dev.CreateBuffer("C.sums", workspace, UsageStorage); err != nil {
		return err
	}
	if m.result[resMarks], err = m.dev.CreateBuffer("C.marks", workspace, UsageStorage); err != nil {
		return err
	}
	if m.staging[resHeader], err = m.dev.CreateBuffer("C.header.staging", HeaderSize, UsageMapRead|UsageCopyDst); err != nil {
		return err
	}
	if m.staging[resEntries], err = m.dev.CreateBuffer("C.entries.staging", dataSize, UsageMapRead|UsageCopyDst); err != nil {
		return err
	}

	readOnly := []Access{AccessRead, AccessRead, AccessRead}
	readWrite := []Access{AccessReadWrite, AccessReadWrite, AccessReadWrite, AccessReadWrite}
	for _, spec := range []struct {
		label   string
		entries []Access
		buffers []Buffer
	}{
		groupA:      {"A", readOnly, m.operands[0:3]},
		groupB:      {"B", readOnly, m.operands[3:6]},
		groupResult: {"C", readWrite, m.result[:]},
	} {
		layout, err := m.dev.CreateBindGroupLayout("layout "+spec.label, spec.entries)
		if err != nil {
			return err
		}
		m.layouts = append(m.layouts, layout)
		group, err := m.dev.CreateBindGroup("group "+spec.label, layout, spec.buffers)
		if err != nil {
			return err
		}
		m.groups = append(m.groups, group)
	}

	return nil
}

// uploadCSR creates the rowPtr, colIdx and values buffers of one operand.
func (m *Multiplier) uploadCSR(name string, c *matrix.CSR) ([]Buffer, error) {
	rowPtr, err := encodeIndices(c.RowPtr())
	if err != nil {
		return nil, fmt.Errorf("%s.rowPtr: %w: %w", name, ErrResourceUnavailable, err)
	}
	colIdx, err := encodeIndices(c.ColIdx())
	if err != nil {
		return nil, fmt.Errorf("%s.colIdx: %w: %w", name, ErrResourceUnavailable, err)
	}

	out := make([]Buffer, 0, 3)
	for _, part := range []struct {
		label string
		data  []byte
	}{
		{name + ".rowPtr", rowPtr},
		{name + ".colIdx", colIdx},
		{name + ".values", encodeValues(c.Values())},
	} {
		buf, err := m.dev.CreateBufferInit(part.label, part.data, UsageStorage)
		if err != nil {
			releaseAll(out...)
			return nil, err
		}
		out = append(out, buf)
	}

	return out, nil
}

// Dispatch submits the product: BuffersLoaded → Dispatched.
//
// One command buffer holds the compute pass (one invocation per
// accumulator slot) followed by the copies of the result pair into the staging pair. ctx is
// checked here, before submission; a submitted command buffer always runs
// to completion.
//
// Errors:
//   - ctx.Err() when ctx is already done (state unchanged).
//   - ErrResourceUnavailable when the pipeline cannot be built or the grid
//     exceeds the device limits.
//   - ErrInvalidState outside BuffersLoaded.
func (m *Multiplier) Dispatch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != BuffersLoaded {
		return stateErrorf(opDispatch, m.state, BuffersLoaded)
	}

	if m.pipeline == nil {
		p, err := m.dev.CreatePipeline("sparse_mul", m.kernel, m.layouts)
		if err != nil {
			return gpuErrorf(opDispatch, err)
		}
		m.pipeline = p
	}

	wgSize := m.kernel.Spec().Interface.WorkgroupSize[0]
	cmds := Commands{
		Pipeline:   m.pipeline,
		BindGroups: m.groups,
		Workgroups: [3]uint32{m.workgroups, 1, 1},
		Copies: []Copy{
			{Src: m.result[resHeader], Dst: m.staging[resHeader], Size: HeaderSize},
			{Src: m.result[resEntries], Dst: m.staging[resEntries], Size: recordBytes(m.capacity)},
		},
	}
	cb, err := m.dev.Encode("sparse_mul", cmds)
	if err != nil {
		return gpuErrorf(opDispatch, err)
	}

	if err := ctx.Err(); err != nil {
		cb.Release()
		return gpuErrorf(opDispatch, err)
	}
	if err := m.dev.Submit(cb); err != nil {
		cb.Release()
		return gpuErrorf(opDispatch, failureErrorf("submit", err))
	}
	m.submitted = cb
	m.log.Debug("gpu: dispatched", "workgroups", m.workgroups, "workgroup_size", wgSize)
	m.transition(Dispatched)

	return nil
}

// Read waits for the result and decodes it: Dispatched → ResultMapped → Done.
//
// The staging header and the staging entries are mapped independently and
// both completions are awaited while the device is polled. The header's
// count n is then checked against the allocated capacity and the first n
// records are decoded into a rows(A)×cols(B) COO.
//
// Every (row, col) of the product appears exactly once, rows in no
// particular order and columns of a row in first-touch order. Sort it
// (Coalesce, or matrix.NewCSRFromCOO with WithRowSort) where order matters.
//
// Errors:
//   - ErrDeviceFailure when a mapping fails, a range has the wrong length,
//     or a record addresses a cell outside the result shape.
//   - ErrResultOverflow (an ErrDeviceFailure) when n > capacity.
//   - ErrInvalidState outside Dispatched.
func (m *Multiplier) Read() (*matrix.COO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Dispatched {
		return nil, stateErrorf(opRead, m.state, Dispatched)
	}

	dataSize := recordBytes(m.capacity)
	err := mapRegions(m.dev, m.pollInterval,
		region{name: "header", buf: m.staging[resHeader], offset: 0, size: HeaderSize},
		region{name: "entries", buf: m.staging[resEntries], offset: 0, size: dataSize},
	)
	defer m.dev.Unmap(m.staging[resHeader])
	defer m.dev.Unmap(m.staging[resEntries])
	if err != nil {
		return nil, gpuErrorf(opRead, err)
	}
	m.transition(ResultMapped)

	out, err := m.decode(dataSize)
	if err != nil {
		return nil, gpuErrorf(opRead, err)
	}
	m.transition(Done)

	return out, nil
}

func (m *Multiplier) decode(dataSize uint64) (*matrix.COO, error) {
	head, err := m.dev.MappedRange(m.staging[resHeader], 0, HeaderSize)
	if err != nil {
		return nil, failureErrorf("header", err)
	}
	if len(head) != HeaderSize {
		return nil, fmt.Errorf("header is %d bytes: %w", len(head), ErrDeviceFailure)
	}
	h := DecodeHeader(head)
	m.log.Debug("gpu: result header", "count", h.Count, "capacity", h.Capacity)
	if err := checkHeader(h, m.capacity); err != nil {
		return nil, err
	}

	data, err := m.dev.MappedRange(m.staging[resEntries], 0, dataSize)
	if err != nil {
		return nil, failureErrorf("entries", err)
	}
	if uint64(len(data)) != dataSize {
		return nil, fmt.Errorf("entries are %d bytes, want %d: %w", len(data), dataSize, ErrDeviceFailure)
	}
	records, err := DecodeRecords(data, int(h.Count))
	if err != nil {
		return nil, failureErrorf("entries", err)
	}

	out, err := matrix.NewCOOWithCapacity(m.shape.Rows, m.shape.Cols, len(records), matrix.WithNoValidateNaNInf())
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := out.Append(int(r.Row), int(r.Col), float64(r.Value)); err != nil {
			return nil, failureErrorf("record", err)
		}
	}

	return out, nil
}

// Multiply runs Load, Dispatch and Read, then releases the product's
// buffers so the multiplier is DeviceReady again.
func (m *Multiplier) Multiply(ctx context.Context, a, b *matrix.CSR) (*matrix.COO, error) {
	if err := m.Load(a, b); err != nil {
		return nil, gpuErrorf(opMultiply, err)
	}
	defer m.Release()

	if err := m.Dispatch(ctx); err != nil {
		return nil, gpuErrorf(opMultiply, err)
	}
	out, err := m.Read()
	if err != nil {
		return nil, gpuErrorf(opMultiply, err)
	}

	return out, nil
}

// Release frees the buffers, bind groups and pipeline of the current
// product and returns to DeviceReady. A product still executing on the
// device is waited for first. No-op before Load.
func (m *Multiplier) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Uninitialized || m.state == DeviceReady {
		return
	}
	if m.state == Dispatched {
		m.dev.Poll(true)
	}
	m.releaseBuffers()
	m.transition(DeviceReady)
}

func (m *Multiplier) releaseBuffers() {
	if m.submitted != nil {
		m.submitted.Release()
		m.submitted = nil
	}
	if m.pipeline != nil {
		m.pipeline.Release()
		m.pipeline = nil
	}
	releaseAll(m.groups...)
	releaseAll(m.layouts...)
	releaseAll(m.operands...)
	releaseAll(m.result[:]...)
	releaseAll(m.staging[:]...)
	m.groups, m.layouts, m.operands = nil, nil, nil
	m.result, m.staging = [4]Buffer{}, [2]Buffer{}
	m.capacity, m.rows, m.workgroups = 0, 0, 0
}

// Close releases everything including the compiled kernel; the multiplier
// returns to Uninitialized. The device is not closed.
func (m *Multiplier) Close() {
	m.Release()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kernel != nil {
		m.kernel.Release()
		m.kernel = nil
	}
	m.transition(Uninitialized)
}
