// SPDX-License-Identifier: MIT

package gpu_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/gpu"
)

// awaitMap maps [0,size) of buf and polls until the callback fires.
func awaitMap(t *testing.T, dev gpu.Device, buf gpu.Buffer, size uint64) error {
	t.Helper()
	var (
		fired bool
		got   error
	)
	require.NoError(t, dev.MapAsync(buf, 0, size, func(err error) { fired, got = true, err }))
	for !fired {
		dev.Poll(true)
	}

	return got
}

func TestSoftwareDevice_CopyAndMap(t *testing.T) {
	dev := gpu.NewSoftwareDevice(gpu.WithDeviceWorkers(2))
	defer dev.Close()

	src, err := dev.CreateBufferInit("src", []byte{1, 2, 3, 4, 5, 6, 7, 8}, gpu.UsageStorage|gpu.UsageCopySrc)
	require.NoError(t, err)
	dst, err := dev.CreateBuffer("dst", 8, gpu.UsageMapRead|gpu.UsageCopyDst)
	require.NoError(t, err)

	cb, err := dev.Encode("copy", gpu.Commands{Copies: []gpu.Copy{{Src: src, Dst: dst, Size: 8}}})
	require.NoError(t, err)
	require.NoError(t, dev.Submit(cb))
	require.Error(t, dev.Submit(cb), "a command buffer runs once")

	require.NoError(t, awaitMap(t, dev, dst, 8))
	got, err := dev.MappedRange(dst, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, got)
	assert.True(t, dev.Poll(false))

	dev.Unmap(dst)
	_, err = dev.MappedRange(dst, 0, 8)
	require.Error(t, err)
}

func TestSoftwareDevice_MapValidation(t *testing.T) {
	dev := gpu.NewSoftwareDevice()
	defer dev.Close()

	storage, err := dev.CreateBuffer("storage", 16, gpu.UsageStorage)
	require.NoError(t, err)
	staging, err := dev.CreateBuffer("staging", 16, gpu.UsageMapRead|gpu.UsageCopyDst)
	require.NoError(t, err)
	noop := func(error) {}

	require.Error(t, dev.MapAsync(storage, 0, 16, noop), "usage")
	require.Error(t, dev.MapAsync(staging, 4, 4, noop), "offset alignment")
	require.Error(t, dev.MapAsync(staging, 0, 6, noop), "size alignment")
	require.Error(t, dev.MapAsync(staging, 8, 16, noop), "range")

	require.NoError(t, dev.MapAsync(staging, 0, 8, noop))
	require.Error(t, dev.MapAsync(staging, 8, 8, noop), "second map while pending")
	dev.Poll(true)
	require.Error(t, dev.MapAsync(staging, 8, 8, noop), "map while mapped")
}

func TestSoftwareDevice_Limits(t *testing.T) {
	dev := gpu.NewSoftwareDevice(gpu.WithMaxBufferSize(64))
	defer dev.Close()

	_, err := dev.CreateBuffer("big", 128, gpu.UsageStorage)
	require.ErrorIs(t, err, gpu.ErrResourceUnavailable)

	_, err = dev.CreateBuffer("bad", 16, gpu.UsageMapRead|gpu.UsageStorage)
	require.Error(t, err)
}

func TestSoftwareDevice_Compile(t *testing.T) {
	dev := gpu.NewSoftwareDevice()
	defer dev.Close()

	_, err := dev.Compile(gpu.KernelSpec{Name: "unknown", Source: gpu.SparseMulSource()})
	require.ErrorIs(t, err, gpu.ErrResourceUnavailable)

	_, err = dev.Compile(gpu.KernelSpec{Name: gpu.KernelName, Source: "@compute @workgroup_size(64) fn main() {}"})
	require.ErrorIs(t, err, gpu.ErrResourceUnavailable)

	// Bindings match, body reads q before the inner loop declares it.
	badBody := strings.Replace(gpu.SparseMulSource(), "let k = a_col_idx[p];", "let k = a_col_idx[q];", 1)
	require.NotEqual(t, gpu.SparseMulSource(), badBody)
	_, err = dev.Compile(gpu.KernelSpec{Name: gpu.KernelName, Source: badBody})
	require.ErrorIs(t, err, gpu.ErrResourceUnavailable)

	k, err := dev.Compile(gpu.KernelSpec{Name: gpu.KernelName, Source: gpu.SparseMulSource()})
	require.NoError(t, err)
	assert.Equal(t, uint32(64), k.Spec().Interface.WorkgroupSize[0])
}

func TestSoftwareDevice_Closed(t *testing.T) {
	dev := gpu.NewSoftwareDevice()
	staging, err := dev.CreateBuffer("staging", 8, gpu.UsageMapRead|gpu.UsageCopyDst)
	require.NoError(t, err)

	var got error
	require.NoError(t, dev.MapAsync(staging, 0, 8, func(err error) { got = err }))
	// The map waits for nothing, but nobody polls before Close.
	require.NoError(t, dev.Close())
	require.ErrorIs(t, got, gpu.ErrDeviceClosed)
	require.NoError(t, dev.Close(), "Close is idempotent")

	_, err = dev.CreateBuffer("late", 8, gpu.UsageStorage)
	require.ErrorIs(t, err, gpu.ErrDeviceClosed)
}

func TestSoftwareDevice_ReleasedBufferFailsMap(t *testing.T) {
	dev := gpu.NewSoftwareDevice()
	defer dev.Close()

	staging, err := dev.CreateBuffer("staging", 8, gpu.UsageMapRead|gpu.UsageCopyDst)
	require.NoError(t, err)
	var got error
	require.NoError(t, dev.MapAsync(staging, 0, 8, func(err error) { got = err }))
	staging.Release()
	dev.Poll(true)
	require.Error(t, got)
}
