// SPDX-License-Identifier: MIT

//go:build !webgpu

package gpu

import (
	"context"
	"errors"
)

var errNoWebGPU = errors.New("built without the webgpu tag")

// NewWebGPUDevice reports ErrResourceUnavailable: this binary was built
// without WebGPU support. Rebuild with -tags webgpu.
func NewWebGPUDevice(ctx context.Context, _ ...DeviceOption) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, gpuErrorf("NewWebGPUDevice", err)
	}

	return nil, resourceErrorf("NewWebGPUDevice", errNoWebGPU)
}
