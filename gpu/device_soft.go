// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/katalvlaran/sparsekit/workerpool"
)

var (
	errForeign     = errors.New("object belongs to another device")
	errReleased    = errors.New("object already released")
	errUsage       = errors.New("buffer usage does not allow this operation")
	errAlignment   = errors.New("offset or size misaligned")
	errRange       = errors.New("range outside buffer")
	errMapPending  = errors.New("buffer already mapped or map pending")
	errNotMapped   = errors.New("buffer not mapped")
	errResubmitted = errors.New("command buffer already submitted")
	errLayout      = errors.New("bind group does not match layout")
)

// softDevice executes the Device contract in-process.
//
// Concurrency model:
//   - One queue goroutine executes submitted command buffers in order.
//   - A dispatch spreads its invocations over a workerpool.Pool and ends
//     with a barrier before the command buffer's copies run.
//   - mu guards the queue, the submission counters, map state and the
//     pending map requests; cond signals both new work and completions.
type softDevice struct {
	opts deviceOptions
	log  *slog.Logger
	pool *workerpool.Pool

	mu        sync.Mutex
	cond      *sync.Cond
	work      []*softCommandBuffer
	submitted uint64
	completed uint64
	pending   []mapRequest
	closed    bool
	stopped   chan struct{}
}

type mapRequest struct {
	buf          *softBuffer
	offset, size uint64
	after        uint64 // submission count the request waits for
	done         func(error)
}

// NewSoftwareDevice starts an in-process device.
//
// It accepts the embedded sparse_mul kernel (and any WGSL source exposing the
// same interface) and runs it natively, one goroutine-pool task batch per
// group of invocations. Values are computed in float32 as on hardware.
func NewSoftwareDevice(opts ...DeviceOption) Device {
	o := gatherDeviceOptions(opts...)
	d := &softDevice{
		opts:    o,
		log:     o.logger,
		pool:    workerpool.New(o.workers),
		stopped: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	d.log.Debug("gpu: software device ready", "workers", d.pool.Workers(), "max_buffer", o.maxBufferSize)

	return d
}

// ---------- resources ----------

type softBuffer struct {
	dev     *softDevice
	label   string
	size    uint64
	usage   BufferUsage
	words   []uint32
	mapped  bool // guarded by dev.mu
	mapping bool // guarded by dev.mu
	gone    bool // guarded by dev.mu
}

func (b *softBuffer) Size() uint64       { return b.size }
func (b *softBuffer) Usage() BufferUsage { return b.usage }

func (b *softBuffer) Release() {
	b.dev.mu.Lock()
	b.gone = true
	b.mapped = false
	b.dev.mu.Unlock()
}

type softKernel struct {
	spec KernelSpec
	impl softKernelImpl
}

func (k *softKernel) Spec() KernelSpec { return k.spec }
func (k *softKernel) Release()         {}

type softLayout struct {
	dev     *softDevice
	entries []Access
}

func (l *softLayout) Entries() []Access { return l.entries }
func (l *softLayout) Release()          {}

type softBindGroup struct {
	layout  *softLayout
	buffers []*softBuffer
}

func (g *softBindGroup) Release() {}

type softPipeline struct {
	dev     *softDevice
	kernel  *softKernel
	layouts []*softLayout
}

func (p *softPipeline) Release() {}

type softCommandBuffer struct {
	dev         *softDevice
	label       string
	run         softKernelFunc
	groups      [][]*softBuffer
	invocations int
	copies      []Copy
	submitted   bool // guarded by dev.mu
}

func (c *softCommandBuffer) Release() {}

// ---------- Device ----------

func (d *softDevice) Compile(spec KernelSpec) (Kernel, error) {
	const op = "Compile"
	impl, ok := softKernels[spec.Name]
	if !ok {
		return nil, resourceErrorf(op, fmt.Errorf("no software implementation of kernel %q", spec.Name))
	}
	in, err := ParseInterface(spec.Source, EntryPoint)
	if err != nil {
		return nil, gpuErrorf(op, err)
	}
	if !sameLayout(in.Bindings, impl.layout) {
		return nil, resourceErrorf(op, fmt.Errorf("kernel %q: declared bindings %v", spec.Name, in.Bindings))
	}
	if in.WorkgroupSize[1] != 1 || in.WorkgroupSize[2] != 1 {
		return nil, resourceErrorf(op, fmt.Errorf("kernel %q: workgroup_size %v is not one-dimensional", spec.Name, in.WorkgroupSize))
	}
	spec.Interface = in
	d.log.Debug("gpu: kernel compiled", "kernel", spec.Name, "workgroup_size", in.WorkgroupSize[0], "bindings", len(in.Bindings))

	return &softKernel{spec: spec, impl: impl}, nil
}

func (d *softDevice) CreateBufferInit(label string, contents []byte, usage BufferUsage) (Buffer, error) {
	b, err := d.newBuffer("CreateBufferInit", label, uint64(len(contents)), usage)
	if err != nil {
		return nil, err
	}
	for i := 0; i+wordSize <= len(contents); i += wordSize {
		b.words[i/wordSize] = binary.LittleEndian.Uint32(contents[i:])
	}
	if rem := len(contents) % wordSize; rem != 0 {
		var tail [wordSize]byte
		copy(tail[:], contents[len(contents)-rem:])
		b.words[len(b.words)-1] = binary.LittleEndian.Uint32(tail[:])
	}

	return b, nil
}

func (d *softDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	return d.newBuffer("CreateBuffer", label, size, usage)
}

func (d *softDevice) newBuffer(op, label string, size uint64, usage BufferUsage) (*softBuffer, error) {
	if err := d.alive(op); err != nil {
		return nil, err
	}
	if size > d.opts.maxBufferSize {
		return nil, resourceErrorf(op, fmt.Errorf("buffer %q: %d bytes exceeds limit %d", label, size, d.opts.maxBufferSize))
	}
	if usage.Has(UsageMapRead) && usage&^(UsageMapRead|UsageCopyDst) != 0 {
		return nil, gpuErrorf(op, fmt.Errorf("buffer %q: MapRead combines only with CopyDst: %w", label, errUsage))
	}

	return &softBuffer{
		dev:   d,
		label: label,
		size:  size,
		usage: usage,
		words: make([]uint32, (size+wordSize-1)/wordSize),
	}, nil
}

func (d *softDevice) CreateBindGroupLayout(_ string, entries []Access) (BindGroupLayout, error) {
	if err := d.alive("CreateBindGroupLayout"); err != nil {
		return nil, err
	}

	return &softLayout{dev: d, entries: append([]Access(nil), entries...)}, nil
}

func (d *softDevice) CreateBindGroup(label string, layout BindGroupLayout, buffers []Buffer) (BindGroup, error) {
	const op = "CreateBindGroup"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	l, ok := layout.(*softLayout)
	if !ok || l.dev != d {
		return nil, gpuErrorf(op, errForeign)
	}
	if len(buffers) != len(l.entries) {
		return nil, gpuErrorf(op, fmt.Errorf("%q: %d buffers for %d entries: %w", label, len(buffers), len(l.entries), errLayout))
	}
	g := &softBindGroup{layout: l, buffers: make([]*softBuffer, len(buffers))}
	for i, buf := range buffers {
		b, err := d.own(buf)
		if err != nil {
			return nil, gpuErrorf(op, err)
		}
		if !b.usage.Has(UsageStorage) || b.size == 0 {
			return nil, gpuErrorf(op, fmt.Errorf("%q binding %d: %w", label, i, errUsage))
		}
		g.buffers[i] = b
	}

	return g, nil
}

func (d *softDevice) CreatePipeline(label string, kernel Kernel, layouts []BindGroupLayout) (Pipeline, error) {
	const op = "CreatePipeline"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	k, ok := kernel.(*softKernel)
	if !ok {
		return nil, gpuErrorf(op, errForeign)
	}
	in := k.spec.Interface
	if len(layouts) != in.Groups() {
		return nil, gpuErrorf(op, fmt.Errorf("%q: %d layouts for %d groups: %w", label, len(layouts), in.Groups(), errLayout))
	}
	p := &softPipeline{dev: d, kernel: k, layouts: make([]*softLayout, len(layouts))}
	for g, layout := range layouts {
		l, ok := layout.(*softLayout)
		if !ok || l.dev != d {
			return nil, gpuErrorf(op, errForeign)
		}
		want := in.Group(uint32(g))
		if len(want) != len(l.entries) {
			return nil, gpuErrorf(op, fmt.Errorf("%q group %d: %w", label, g, errLayout))
		}
		for i, bnd := range want {
			if bnd.Binding != uint32(i) || bnd.Access != l.entries[i] {
				return nil, gpuErrorf(op, fmt.Errorf("%q group %d binding %d: %w", label, g, i, errLayout))
			}
		}
		p.layouts[g] = l
	}

	return p, nil
}

func (d *softDevice) Encode(label string, cmds Commands) (CommandBuffer, error) {
	const op = "Encode"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	cb := &softCommandBuffer{dev: d, label: label, copies: append([]Copy(nil), cmds.Copies...)}
	if cmds.Pipeline != nil {
		if err := d.encodePass(label, cmds, cb); err != nil {
			return nil, gpuErrorf(op, err)
		}
	}
	for i, c := range cmds.Copies {
		if err := d.checkCopy(c); err != nil {
			return nil, gpuErrorf(op, fmt.Errorf("%q copy %d: %w", label, i, err))
		}
	}

	return cb, nil
}

// encodePass validates the compute pass of cmds and records it into cb.
func (d *softDevice) encodePass(label string, cmds Commands, cb *softCommandBuffer) error {
	p, ok := cmds.Pipeline.(*softPipeline)
	if !ok || p.dev != d {
		return errForeign
	}
	if len(cmds.BindGroups) != len(p.layouts) {
		return fmt.Errorf("%q: %d bind groups for %d layouts: %w", label, len(cmds.BindGroups), len(p.layouts), errLayout)
	}
	groups := make([][]*softBuffer, len(cmds.BindGroups))
	for i, bg := range cmds.BindGroups {
		g, ok := bg.(*softBindGroup)
		if !ok || g.layout != p.layouts[i] {
			return fmt.Errorf("%q group %d: %w", label, i, errLayout)
		}
		groups[i] = g.buffers
	}
	wg := cmds.Workgroups
	if wg[0] > DefaultMaxWorkgroups || wg[1] != 1 || wg[2] != 1 {
		return fmt.Errorf("%q: workgroups %v unsupported: %w", label, wg, ErrResourceUnavailable)
	}
	cb.run = p.kernel.impl.run
	cb.groups = groups
	cb.invocations = int(wg[0]) * int(p.kernel.spec.Interface.WorkgroupSize[0])

	return nil
}

func (d *softDevice) checkCopy(c Copy) error {
	src, err := d.own(c.Src)
	if err != nil {
		return err
	}
	dst, err := d.own(c.Dst)
	if err != nil {
		return err
	}
	if !src.usage.Has(UsageCopySrc) || !dst.usage.Has(UsageCopyDst) {
		return errUsage
	}
	if (c.SrcOffset|c.DstOffset|c.Size)%wordSize != 0 {
		return errAlignment
	}
	if c.SrcOffset+c.Size > src.size || c.DstOffset+c.Size > dst.size {
		return errRange
	}

	return nil
}

func (d *softDevice) Submit(cb CommandBuffer) error {
	const op = "Submit"
	c, ok := cb.(*softCommandBuffer)
	if !ok || c.dev != d {
		return gpuErrorf(op, errForeign)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpuErrorf(op, ErrDeviceClosed)
	}
	if c.submitted {
		return gpuErrorf(op, errResubmitted)
	}
	c.submitted = true
	d.submitted++
	d.work = append(d.work, c)
	d.cond.Broadcast()
	d.log.Debug("gpu: submitted", "label", c.label, "invocations", c.invocations, "copies", len(c.copies), "seq", d.submitted)

	return nil
}

func (d *softDevice) MapAsync(buf Buffer, offset, size uint64, done func(error)) error {
	const op = "MapAsync"
	b, err := d.own(buf)
	if err != nil {
		return gpuErrorf(op, err)
	}
	if !b.usage.Has(UsageMapRead) {
		return gpuErrorf(op, errUsage)
	}
	if offset%8 != 0 || size%wordSize != 0 {
		return gpuErrorf(op, errAlignment)
	}
	if offset+size > b.size {
		return gpuErrorf(op, errRange)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpuErrorf(op, ErrDeviceClosed)
	}
	if b.mapped || b.mapping {
		return gpuErrorf(op, fmt.Errorf("%q: %w", b.label, errMapPending))
	}
	b.mapping = true
	d.pending = append(d.pending, mapRequest{buf: b, offset: offset, size: size, after: d.submitted, done: done})

	return nil
}

func (d *softDevice) MappedRange(buf Buffer, offset, size uint64) ([]byte, error) {
	const op = "MappedRange"
	b, err := d.own(buf)
	if err != nil {
		return nil, gpuErrorf(op, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !b.mapped {
		return nil, gpuErrorf(op, fmt.Errorf("%q: %w", b.label, errNotMapped))
	}
	if offset%8 != 0 || size%wordSize != 0 {
		return nil, gpuErrorf(op, errAlignment)
	}
	if offset+size > b.size {
		return nil, gpuErrorf(op, errRange)
	}
	out := make([]byte, size)
	for i := uint64(0); i < size; i += wordSize {
		binary.LittleEndian.PutUint32(out[i:], b.words[(offset+i)/wordSize])
	}

	return out, nil
}

func (d *softDevice) Unmap(buf Buffer) {
	if b, err := d.own(buf); err == nil {
		d.mu.Lock()
		b.mapped = false
		d.mu.Unlock()
	}
}

func (d *softDevice) Poll(wait bool) bool {
	d.mu.Lock()
	if wait {
		for d.completed < d.submitted && !d.closed {
			d.cond.Wait()
		}
	}

	var ready []mapRequest
	keep := d.pending[:0]
	for _, r := range d.pending {
		if r.after <= d.completed {
			ready = append(ready, r)
			continue
		}
		keep = append(keep, r)
	}
	d.pending = keep

	errs := make([]error, len(ready))
	for i, r := range ready {
		r.buf.mapping = false
		if r.buf.gone {
			errs[i] = fmt.Errorf("%q: %w", r.buf.label, errReleased)
			continue
		}
		r.buf.mapped = true
	}
	idle := d.completed == d.submitted && len(d.pending) == 0
	d.mu.Unlock()

	for i, r := range ready {
		if errs[i] == nil {
			d.log.Debug("gpu: mapped", "label", r.buf.label, "offset", r.offset, "size", r.size)
		}
		if r.done != nil {
			r.done(errs[i])
		}
	}

	return idle
}

func (d *softDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.cond.Broadcast()
	orphans := d.pending
	d.pending = nil
	for _, r := range orphans {
		r.buf.mapping = false
	}
	d.mu.Unlock()

	<-d.stopped
	d.pool.Close()
	for _, r := range orphans {
		if r.done != nil {
			r.done(ErrDeviceClosed)
		}
	}
	d.log.Debug("gpu: software device closed", "submitted", d.submitted, "completed", d.completed)

	return nil
}

// ---------- internals ----------

// run is the queue goroutine. After Close it drains what was already
// submitted, then exits.
func (d *softDevice) run() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		for len(d.work) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.work) == 0 {
			d.mu.Unlock()
			return
		}
		c := d.work[0]
		d.work = d.work[1:]
		d.mu.Unlock()

		d.execute(c)

		d.mu.Lock()
		d.completed++
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

// execute runs the compute pass, waits for every invocation, then copies.
func (d *softDevice) execute(c *softCommandBuffer) {
	if c.run != nil {
		d.pool.Dynamic(c.invocations, DefaultInvocationBatch, func(lo, hi int) {
			for gid := lo; gid < hi; gid++ {
				c.run(uint32(gid), uint32(c.invocations), c.groups)
			}
		})
	}
	for _, cp := range c.copies {
		src, dst := cp.Src.(*softBuffer), cp.Dst.(*softBuffer)
		n := cp.Size / wordSize
		copy(dst.words[cp.DstOffset/wordSize:cp.DstOffset/wordSize+n], src.words[cp.SrcOffset/wordSize:cp.SrcOffset/wordSize+n])
	}
}

func (d *softDevice) alive(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpuErrorf(op, ErrDeviceClosed)
	}

	return nil
}

// own unwraps a buffer created by this device and not yet released.
func (d *softDevice) own(buf Buffer) (*softBuffer, error) {
	b, ok := buf.(*softBuffer)
	if !ok || b.dev != d {
		return nil, errForeign
	}
	d.mu.Lock()
	gone := b.gone
	d.mu.Unlock()
	if gone {
		return nil, fmt.Errorf("%q: %w", b.label, errReleased)
	}

	return b, nil
}
