// SPDX-License-Identifier: MIT

//go:build webgpu

package gpu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openfluke/webgpu/wgpu"
)

// wgpuDevice implements Device on wgpu-native.
type wgpuDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	log      *slog.Logger
}

// NewWebGPUDevice acquires a high-performance adapter, its device and queue.
// ctx is checked before the (blocking) acquisition starts.
//
// Errors:
//   - ErrResourceUnavailable when no adapter or device can be obtained.
func NewWebGPUDevice(ctx context.Context, opts ...DeviceOption) (Device, error) {
	const op = "NewWebGPUDevice"
	if err := ctx.Err(); err != nil {
		return nil, gpuErrorf(op, err)
	}
	o := gatherDeviceOptions(opts...)

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, resourceErrorf(op, err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, resourceErrorf(op, err)
	}
	o.logger.Debug("gpu: webgpu device ready")

	return &wgpuDevice{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		log:      o.logger,
	}, nil
}

// ---------- resources ----------

type wgpuBuffer struct {
	buf   *wgpu.Buffer
	size  uint64
	usage BufferUsage
}

func (b *wgpuBuffer) Size() uint64       { return b.size }
func (b *wgpuBuffer) Usage() BufferUsage { return b.usage }
func (b *wgpuBuffer) Release()           { b.buf.Release() }

type wgpuKernel struct {
	spec   KernelSpec
	module *wgpu.ShaderModule
}

func (k *wgpuKernel) Spec() KernelSpec { return k.spec }
func (k *wgpuKernel) Release()         { k.module.Release() }

type wgpuLayout struct {
	layout  *wgpu.BindGroupLayout
	entries []Access
}

func (l *wgpuLayout) Entries() []Access { return l.entries }
func (l *wgpuLayout) Release()          { l.layout.Release() }

type wgpuBindGroup struct{ group *wgpu.BindGroup }

func (g *wgpuBindGroup) Release() { g.group.Release() }

type wgpuPipeline struct {
	layout   *wgpu.PipelineLayout
	pipeline *wgpu.ComputePipeline
}

func (p *wgpuPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
}

type wgpuCommandBuffer struct{ cb *wgpu.CommandBuffer }

func (c *wgpuCommandBuffer) Release() { c.cb.Release() }

func toWGPUUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u.Has(UsageStorage) {
		out |= wgpu.BufferUsageStorage
	}
	if u.Has(UsageCopySrc) {
		out |= wgpu.BufferUsageCopySrc
	}
	if u.Has(UsageCopyDst) {
		out |= wgpu.BufferUsageCopyDst
	}
	if u.Has(UsageMapRead) {
		out |= wgpu.BufferUsageMapRead
	}

	return out
}

// ---------- Device ----------

func (d *wgpuDevice) Compile(spec KernelSpec) (Kernel, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          spec.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: spec.Source},
	})
	if err != nil {
		return nil, resourceErrorf("Compile", err)
	}

	return &wgpuKernel{spec: spec, module: module}, nil
}

func (d *wgpuDevice) CreateBufferInit(label string, contents []byte, usage BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    toWGPUUsage(usage),
	})
	if err != nil {
		return nil, resourceErrorf("CreateBufferInit", err)
	}

	return &wgpuBuffer{buf: buf, size: uint64(len(contents)), usage: usage}, nil
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: toWGPUUsage(usage),
	})
	if err != nil {
		return nil, resourceErrorf("CreateBuffer", err)
	}

	return &wgpuBuffer{buf: buf, size: size, usage: usage}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(label string, entries []Access) (BindGroupLayout, error) {
	wentries := make([]wgpu.BindGroupLayoutEntry, len(entries))
	for i, acc := range entries {
		typ := wgpu.BufferBindingTypeReadOnlyStorage
		if acc == AccessReadWrite {
			typ = wgpu.BufferBindingTypeStorage
		}
		wentries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: typ},
		}
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: wentries,
	})
	if err != nil {
		return nil, resourceErrorf("CreateBindGroupLayout", err)
	}

	return &wgpuLayout{layout: layout, entries: append([]Access(nil), entries...)}, nil
}

func (d *wgpuDevice) CreateBindGroup(label string, layout BindGroupLayout, buffers []Buffer) (BindGroup, error) {
	l, ok := layout.(*wgpuLayout)
	if !ok {
		return nil, gpuErrorf("CreateBindGroup", fmt.Errorf("foreign layout %T", layout))
	}
	entries := make([]wgpu.BindGroupEntry, len(buffers))
	for i, b := range buffers {
		wb, ok := b.(*wgpuBuffer)
		if !ok {
			return nil, gpuErrorf("CreateBindGroup", fmt.Errorf("foreign buffer %T", b))
		}
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: wb.buf, Size: wgpu.WholeSize}
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  l.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, resourceErrorf("CreateBindGroup", err)
	}

	return &wgpuBindGroup{group: group}, nil
}

func (d *wgpuDevice) CreatePipeline(label string, kernel Kernel, layouts []BindGroupLayout) (Pipeline, error) {
	const op = "CreatePipeline"
	k, ok := kernel.(*wgpuKernel)
	if !ok {
		return nil, gpuErrorf(op, fmt.Errorf("foreign kernel %T", kernel))
	}
	wlayouts := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		wl, ok := l.(*wgpuLayout)
		if !ok {
			return nil, gpuErrorf(op, fmt.Errorf("foreign layout %T", l))
		}
		wlayouts[i] = wl.layout
	}
	pl, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: wlayouts,
	})
	if err != nil {
		return nil, resourceErrorf(op, err)
	}
	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label,
		Layout: pl,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     k.module,
			EntryPoint: EntryPoint,
		},
	})
	if err != nil {
		pl.Release()
		return nil, resourceErrorf(op, err)
	}

	return &wgpuPipeline{layout: pl, pipeline: pipeline}, nil
}

func (d *wgpuDevice) Encode(label string, cmds Commands) (CommandBuffer, error) {
	const op = "Encode"
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, resourceErrorf(op, err)
	}
	defer encoder.Release()

	if cmds.Pipeline != nil {
		if err := encodePass(encoder, cmds); err != nil {
			return nil, gpuErrorf(op, err)
		}
	}

	for _, c := range cmds.Copies {
		src, ok1 := c.Src.(*wgpuBuffer)
		dst, ok2 := c.Dst.(*wgpuBuffer)
		if !ok1 || !ok2 {
			return nil, gpuErrorf(op, fmt.Errorf("foreign copy buffers %T, %T", c.Src, c.Dst))
		}
		if err := encoder.CopyBufferToBuffer(src.buf, c.SrcOffset, dst.buf, c.DstOffset, c.Size); err != nil {
			return nil, resourceErrorf(op, err)
		}
	}

	cb, err := encoder.Finish(nil)
	if err != nil {
		return nil, resourceErrorf(op, err)
	}

	return &wgpuCommandBuffer{cb: cb}, nil
}

// encodePass records the compute pass of cmds.
func encodePass(encoder *wgpu.CommandEncoder, cmds Commands) error {
	p, ok := cmds.Pipeline.(*wgpuPipeline)
	if !ok {
		return fmt.Errorf("foreign pipeline %T", cmds.Pipeline)
	}
	groups := make([]*wgpu.BindGroup, len(cmds.BindGroups))
	for i, bg := range cmds.BindGroups {
		g, ok := bg.(*wgpuBindGroup)
		if !ok {
			return fmt.Errorf("foreign bind group %T", bg)
		}
		groups[i] = g.group
	}

	pass := encoder.BeginComputePass(nil)
	defer pass.Release()
	pass.SetPipeline(p.pipeline)
	for i, g := range groups {
		pass.SetBindGroup(uint32(i), g, nil)
	}
	pass.DispatchWorkgroups(cmds.Workgroups[0], cmds.Workgroups[1], cmds.Workgroups[2])

	return pass.End()
}

func (d *wgpuDevice) Submit(cb CommandBuffer) error {
	c, ok := cb.(*wgpuCommandBuffer)
	if !ok {
		return gpuErrorf("Submit", fmt.Errorf("foreign command buffer %T", cb))
	}
	d.queue.Submit(c.cb)
	d.log.Debug("gpu: submitted")

	return nil
}

func (d *wgpuDevice) MapAsync(buf Buffer, offset, size uint64, done func(error)) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return gpuErrorf("MapAsync", fmt.Errorf("foreign buffer %T", buf))
	}

	return b.buf.MapAsync(wgpu.MapModeRead, offset, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done(fmt.Errorf("map status %v", status))
			return
		}
		done(nil)
	})
}

func (d *wgpuDevice) MappedRange(buf Buffer, offset, size uint64) ([]byte, error) {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return nil, gpuErrorf("MappedRange", fmt.Errorf("foreign buffer %T", buf))
	}
	view := b.buf.GetMappedRange(uint(offset), uint(size))
	// The view dies with Unmap; hand out a copy.
	return append([]byte(nil), view...), nil
}

func (d *wgpuDevice) Unmap(buf Buffer) {
	if b, ok := buf.(*wgpuBuffer); ok {
		b.buf.Unmap()
	}
}

func (d *wgpuDevice) Poll(wait bool) bool {
	return d.device.Poll(wait, nil)
}

func (d *wgpuDevice) Close() error {
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()

	return nil
}
