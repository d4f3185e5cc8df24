// SPDX-License-Identifier: MIT

package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/gpu"
)

func TestParseInterface_EmbeddedKernel(t *testing.T) {
	in, err := gpu.ParseInterface(gpu.SparseMulSource(), gpu.EntryPoint)
	require.NoError(t, err)

	assert.Equal(t, "main", in.EntryPoint)
	assert.Equal(t, [3]uint32{64, 1, 1}, in.WorkgroupSize)
	assert.Equal(t, 3, in.Groups())
	require.Len(t, in.Bindings, 10)
	assert.Equal(t, gpu.Binding{Group: 0, Binding: 0, Access: gpu.AccessRead, Name: "a_row_ptr"}, in.Bindings[0])
	assert.Equal(t, gpu.Binding{Group: 2, Binding: 1, Access: gpu.AccessReadWrite, Name: "entries"}, in.Bindings[7])
	assert.Equal(t, gpu.Binding{Group: 2, Binding: 3, Access: gpu.AccessReadWrite, Name: "marks"}, in.Bindings[9])
	assert.Len(t, in.Group(1), 3)
	assert.Len(t, in.Group(2), 4)
}

func TestParseInterface_Variants(t *testing.T) {
	const src = `
// @compute @workgroup_size(8) fn main() is commented out
@group(0) @binding(1) var<storage, read_write> dst: array<u32>;
@group(0) @binding(0) var<storage> src: array<u32>;

@compute @workgroup_size(16, 4)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {}
`
	in, err := gpu.ParseInterface(src, "main")
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{16, 4, 1}, in.WorkgroupSize)
	require.Len(t, in.Bindings, 2)
	assert.Equal(t, "src", in.Bindings[0].Name)
	assert.Equal(t, gpu.AccessRead, in.Bindings[0].Access)
	assert.Equal(t, gpu.AccessReadWrite, in.Bindings[1].Access)
	assert.Equal(t, "read_write", in.Bindings[1].Access.String())
}

func TestParseInterface_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"no entry point": `@group(0) @binding(0) var<storage, read> a: array<u32>;`,
		"other entry": `@compute @workgroup_size(1) fn other() {}`,
		"duplicate binding": `
@group(0) @binding(0) var<storage, read> a: array<u32>;
@group(0) @binding(0) var<storage, read> b: array<u32>;
@compute @workgroup_size(1) fn main() {}`,
		"group gap": `
@group(0) @binding(0) var<storage, read> a: array<u32>;
@group(2) @binding(0) var<storage, read> b: array<u32>;
@compute @workgroup_size(1) fn main() {}`,
		"zero workgroup": `@compute @workgroup_size(0) fn main() {}`,
		"syntax error": `@compute @workgroup_size(1) fn main() { let x = ; }`,
		"unknown identifier": `
@group(0) @binding(0) var<storage, read_write> a: array<u32>;
@compute @workgroup_size(1) fn main() { a[0] = missing + 1u; }`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := gpu.ParseInterface(src, "main")
			require.ErrorIs(t, err, gpu.ErrResourceUnavailable)
		})
	}
}
