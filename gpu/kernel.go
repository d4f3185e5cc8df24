// SPDX-License-Identifier: MIT

package gpu

import (
	_ "embed"
	"fmt"
	"os"
)

// KernelName identifies the sparse product kernel. Devices that execute
// kernels natively (the software device) bind their implementation by name.
const KernelName = "sparse_mul"

// EntryPoint is the compute entry point every kernel must export.
const EntryPoint = "main"

// Bind group indices of the sparse_mul kernel.
const (
	groupA      = 0
	groupB      = 1
	groupResult = 2
)

//go:embed shader/sparse_mul.wgsl
var sparseMulSource string

// KernelSpec is everything a Device needs to compile a kernel.
type KernelSpec struct {
	Name      string
	Source    string
	Interface Interface
}

// SparseMulSource returns the embedded WGSL source of the sparse_mul kernel.
func SparseMulSource() string { return sparseMulSource }

// loadKernel reads the kernel source (embedded, or from path when non-empty),
// parses its interface and checks it against the layout the pipeline binds.
func loadKernel(path string) (KernelSpec, error) {
	src := sparseMulSource
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return KernelSpec{}, resourceErrorf("loadKernel", err)
		}
		src = string(raw)
	}

	in, err := ParseInterface(src, EntryPoint)
	if err != nil {
		return KernelSpec{}, err
	}
	if !sameLayout(in.Bindings, sparseMulLayout) {
		return KernelSpec{}, gpuErrorf("loadKernel",
			fmt.Errorf("%s bindings %v do not match the pipeline: %w", KernelName, in.Bindings, ErrResourceUnavailable))
	}

	return KernelSpec{Name: KernelName, Source: src, Interface: in}, nil
}

// sparseMulLayout is the binding layout the Multiplier provides:
// A and B as (rowPtr, colIdx, values) read-only, result as (header, entries)
// plus the accumulator workspace (sums, marks).
var sparseMulLayout = []Binding{
	{Group: groupA, Binding: 0, Access: AccessRead},
	{Group: groupA, Binding: 1, Access: AccessRead},
	{Group: groupA, Binding: 2, Access: AccessRead},
	{Group: groupB, Binding: 0, Access: AccessRead},
	{Group: groupB, Binding: 1, Access: AccessRead},
	{Group: groupB, Binding: 2, Access: AccessRead},
	{Group: groupResult, Binding: 0, Access: AccessReadWrite},
	{Group: groupResult, Binding: 1, Access: AccessReadWrite},
	{Group: groupResult, Binding: 2, Access: AccessReadWrite},
	{Group: groupResult, Binding: 3, Access: AccessReadWrite},
}
