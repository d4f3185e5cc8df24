// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Access is the address-space access mode of a storage binding.
type Access int

const (
	// AccessRead is var<storage, read>.
	AccessRead Access = iota
	// AccessReadWrite is var<storage, read_write>.
	AccessReadWrite
)

// String implements fmt.Stringer.
func (a Access) String() string {
	if a == AccessReadWrite {
		return "read_write"
	}

	return "read"
}

// Binding is one resource declaration of a kernel.
type Binding struct {
	Group   uint32
	Binding uint32
	Access  Access
	Name    string
}

// Interface is the host-visible surface of a WGSL compute kernel: what a
// pipeline must provide and how dispatch sizes are computed.
type Interface struct {
	EntryPoint    string
	WorkgroupSize [3]uint32
	Bindings      []Binding // sorted by (Group, Binding)
}

// Groups returns the number of bind groups (highest group + 1).
func (in Interface) Groups() int {
	if len(in.Bindings) == 0 {
		return 0
	}

	return int(in.Bindings[len(in.Bindings)-1].Group) + 1
}

// Group returns the bindings of group g in binding order.
func (in Interface) Group(g uint32) []Binding {
	var out []Binding
	for _, b := range in.Bindings {
		if b.Group == g {
			out = append(out, b)
		}
	}

	return out
}

// ParseInterface compiles WGSL source to naga IR and reads the compute
// entry point, its workgroup size and the storage bindings from it. The
// whole module is parsed and validated, so a broken body fails here and not
// at dispatch.
//
// Errors (all wrap ErrResourceUnavailable):
//   - the source does not parse, lower or validate.
//   - no @compute entry point named entryPoint.
//   - a zero workgroup_size dimension.
//   - duplicated (group, binding) pairs.
//   - a group index with no bindings below the highest group.
func ParseInterface(source, entryPoint string) (Interface, error) {
	const op = "ParseInterface"
	ast, err := naga.Parse(source)
	if err != nil {
		return Interface{}, resourceErrorf(op, err)
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return Interface{}, resourceErrorf(op, err)
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return Interface{}, resourceErrorf(op, err)
	}
	if len(verrs) > 0 {
		return Interface{}, resourceErrorf(op, verrs[0])
	}

	in := Interface{EntryPoint: entryPoint}
	i := slices.IndexFunc(mod.EntryPoints, func(ep ir.EntryPoint) bool {
		return ep.Stage == ir.StageCompute && ep.Name == entryPoint
	})
	if i < 0 {
		return Interface{}, resourceErrorf(op, fmt.Errorf("no @compute fn %s", entryPoint))
	}
	in.WorkgroupSize = mod.EntryPoints[i].Workgroup
	if slices.Contains(in.WorkgroupSize[:], 0) {
		return Interface{}, resourceErrorf(op, fmt.Errorf("workgroup_size %v", in.WorkgroupSize))
	}

	for _, gv := range mod.GlobalVariables {
		if gv.Space != ir.SpaceStorage || gv.Binding == nil {
			continue
		}
		acc := AccessRead
		if gv.Access == ir.StorageReadWrite {
			acc = AccessReadWrite
		}
		in.Bindings = append(in.Bindings, Binding{
			Group: gv.Binding.Group, Binding: gv.Binding.Binding, Access: acc, Name: gv.Name,
		})
	}
	slices.SortFunc(in.Bindings, func(x, y Binding) int {
		if x.Group != y.Group {
			return int(x.Group) - int(y.Group)
		}
		return int(x.Binding) - int(y.Binding)
	})

	for i := 1; i < len(in.Bindings); i++ {
		p, c := in.Bindings[i-1], in.Bindings[i]
		if p.Group == c.Group && p.Binding == c.Binding {
			return Interface{}, resourceErrorf(op, fmt.Errorf("@group(%d) @binding(%d) declared twice", c.Group, c.Binding))
		}
	}
	for g := 0; g < in.Groups(); g++ {
		if len(in.Group(uint32(g))) == 0 {
			return Interface{}, resourceErrorf(op, fmt.Errorf("@group(%d) is empty", g))
		}
	}

	return in, nil
}

// sameLayout reports whether two interfaces declare the same bindings with
// the same access modes; names are ignored.
func sameLayout(x, y []Binding) bool {
	return slices.EqualFunc(x, y, func(a, b Binding) bool {
		return a.Group == b.Group && a.Binding == b.Binding && a.Access == b.Access
	})
}
