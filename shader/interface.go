package shader

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// ScalarKind is the element type of a shader value.
type ScalarKind uint8

const (
	Float ScalarKind = iota
	Sint
	Uint
	Bool
)

// Uniform is one leaf member of a uniform buffer. Arrays are expanded into
// one Uniform per element, named "name[i]" or "name[i][j]".
type Uniform struct {
	Name       string
	Buffer     string
	Offset     uint32
	Scalar     ScalarKind
	Components int
	Columns    int
	// ArraySize is the length of the innermost array the element belongs
	// to, or 0 for non-array members.
	ArraySize int
}

// Size returns the byte size of the uniform's tightly packed values.
func (u Uniform) Size() int {
	return 4 * u.Components * max(u.Columns, 1)
}

// ColumnStride returns the byte distance between matrix columns.
func (u Uniform) ColumnStride() uint32 {
	if u.Components == 3 {
		return 16
	}
	return uint32(4 * u.Components)
}

// BufferSlot is a uniform or storage buffer binding point.
type BufferSlot struct {
	Name     string
	Group    uint32
	Binding  uint32
	MinSize  uint32
	Uniform  bool
	ReadOnly bool
}

// TextureSlot is a sampled or storage texture binding point. Sampler names
// the companion sampler global, if any.
type TextureSlot struct {
	Name           string
	Group          uint32
	Binding        uint32
	Sampler        string
	SamplerGroup   uint32
	SamplerBinding uint32
	Comparison     bool
	Dimension      ir.ImageDimension
	Arrayed        bool
	Multisampled   bool
	Depth          bool

	// SampleKind is the scalar kind sampled textures return.
	SampleKind ScalarKind
	// StorageFormat and StorageAccess are set for storage textures.
	StorageFormat ir.StorageFormat
	StorageAccess ir.StorageAccess
}

// Attribute is a vertex input of the vertex entry point.
type Attribute struct {
	Name       string
	Location   uint32
	Scalar     ScalarKind
	Components int
}

// Interface describes the resources a linked program consumes.
type Interface struct {
	Uniforms   []Uniform
	Buffers    []BufferSlot
	Samplers   []TextureSlot
	Images     []TextureSlot
	Attributes []Attribute
	Stages     []ir.ShaderStage
	Workgroup  [3]uint32
}

// Uniform returns the uniform named name.
func (in *Interface) Uniform(name string) (Uniform, bool) {
	for _, u := range in.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// Buffer returns the buffer slot named name.
func (in *Interface) Buffer(name string) (BufferSlot, bool) {
	for _, b := range in.Buffers {
		if b.Name == name {
			return b, true
		}
	}
	return BufferSlot{}, false
}

// HasStage reports whether the program has an entry point for stage.
func (in *Interface) HasStage(stage ir.ShaderStage) bool {
	for _, s := range in.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

func reflectModule(m *ir.Module, vertexEntry string) *Interface {
	in := &Interface{}
	samplers := make(map[string]ir.GlobalVariable)
	for _, g := range m.GlobalVariables {
		if _, ok := typeInner(m, g.Type).(ir.SamplerType); ok {
			samplers[g.Name] = g
		}
	}

	for _, g := range m.GlobalVariables {
		var group, binding uint32
		if g.Binding != nil {
			group, binding = g.Binding.Group, g.Binding.Binding
		}
		switch g.Space {
		case ir.SpaceUniform:
			in.Buffers = append(in.Buffers, BufferSlot{
				Name: g.Name, Group: group, Binding: binding,
				MinSize: typeSize(m, g.Type), Uniform: true, ReadOnly: true,
			})
			in.Uniforms = append(in.Uniforms, flatten(m, g.Name, g.Type)...)
		case ir.SpaceStorage:
			in.Buffers = append(in.Buffers, BufferSlot{
				Name: g.Name, Group: group, Binding: binding, MinSize: typeSize(m, g.Type),
			})
		case ir.SpaceHandle:
			img, ok := typeInner(m, g.Type).(ir.ImageType)
			if !ok {
				continue
			}
			slot := TextureSlot{
				Name: g.Name, Group: group, Binding: binding,
				Dimension: img.Dim, Arrayed: img.Arrayed, Multisampled: img.Multisampled,
				Depth: img.Class == ir.ImageClassDepth,
			}
			if img.Class == ir.ImageClassStorage {
				slot.StorageFormat, slot.StorageAccess = img.StorageFormat, img.StorageAccess
				in.Images = append(in.Images, slot)
				continue
			}
			slot.SampleKind = scalarKind(img.SampledKind)
			if s, ok := companionSampler(samplers, g.Name); ok {
				slot.Sampler = s.Name
				if s.Binding != nil {
					slot.SamplerGroup, slot.SamplerBinding = s.Binding.Group, s.Binding.Binding
				}
				slot.Comparison = typeInner(m, s.Type).(ir.SamplerType).Comparison
			}
			in.Samplers = append(in.Samplers, slot)
		}
	}

	for _, ep := range m.EntryPoints {
		in.Stages = append(in.Stages, ep.Stage)
		switch ep.Stage {
		case ir.StageCompute:
			in.Workgroup = ep.Workgroup
		case ir.StageVertex:
			if vertexEntry == "" || ep.Name == vertexEntry {
				in.Attributes = vertexAttributes(m, ep)
				vertexEntry = ep.Name
			}
		}
	}
	return in
}

func companionSampler(samplers map[string]ir.GlobalVariable, texture string) (ir.GlobalVariable, bool) {
	if s, ok := samplers[texture+"_sampler"]; ok {
		return s, true
	}
	if len(samplers) == 1 {
		for _, s := range samplers {
			return s, true
		}
	}
	return ir.GlobalVariable{}, false
}

func typeInner(m *ir.Module, h ir.TypeHandle) ir.TypeInner {
	if int(h) >= len(m.Types) {
		return nil
	}
	return m.Types[h].Inner
}

// flatten expands a uniform global into its leaf members.
func flatten(m *ir.Module, global string, h ir.TypeHandle) []Uniform {
	if st, ok := typeInner(m, h).(ir.StructType); ok {
		var result []Uniform
		for _, member := range st.Members {
			result = appendLeaves(result, m, global, member.Name, member.Type, member.Offset, 0)
		}
		return result
	}
	return appendLeaves(nil, m, global, global, h, 0, 0)
}

func appendLeaves(dst []Uniform, m *ir.Module, global, name string, h ir.TypeHandle, offset uint32, arraySize int) []Uniform {
	switch t := typeInner(m, h).(type) {
	case ir.ScalarType:
		return append(dst, Uniform{Name: name, Buffer: global, Offset: offset, Scalar: scalarKind(t.Kind), Components: 1, ArraySize: arraySize})
	case ir.AtomicType:
		return append(dst, Uniform{Name: name, Buffer: global, Offset: offset, Scalar: scalarKind(t.Scalar.Kind), Components: 1, ArraySize: arraySize})
	case ir.VectorType:
		return append(dst, Uniform{Name: name, Buffer: global, Offset: offset, Scalar: scalarKind(t.Scalar.Kind), Components: int(t.Size), ArraySize: arraySize})
	case ir.MatrixType:
		return append(dst, Uniform{Name: name, Buffer: global, Offset: offset, Scalar: scalarKind(t.Scalar.Kind),
			Components: int(t.Rows), Columns: int(t.Columns), ArraySize: arraySize})
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return dst
		}
		n := int(*t.Size.Constant)
		stride := t.Stride
		if stride == 0 {
			stride = typeSize(m, t.Base)
		}
		for i := 0; i < n; i++ {
			dst = appendLeaves(dst, m, global, fmt.Sprintf("%s[%d]", name, i), t.Base, offset+uint32(i)*stride, n)
		}
	case ir.StructType:
		for _, member := range t.Members {
			dst = appendLeaves(dst, m, global, name+"."+member.Name, member.Type, offset+member.Offset, 0)
		}
	}
	return dst
}

func scalarKind(k ir.ScalarKind) ScalarKind {
	switch k {
	case ir.ScalarSint:
		return Sint
	case ir.ScalarUint:
		return Uint
	case ir.ScalarBool:
		return Bool
	}
	return Float
}

// typeSize returns the WGSL host-shareable size of a type.
func typeSize(m *ir.Module, h ir.TypeHandle) uint32 {
	switch t := typeInner(m, h).(type) {
	case ir.ScalarType:
		return uint32(t.Width)
	case ir.AtomicType:
		return uint32(t.Scalar.Width)
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.MatrixType:
		rows := uint32(t.Rows)
		if rows == 3 {
			rows = 4
		}
		return uint32(t.Columns) * rows * uint32(t.Scalar.Width)
	case ir.ArrayType:
		stride := t.Stride
		if stride == 0 {
			stride = typeSize(m, t.Base)
		}
		if t.Size.Constant == nil {
			return stride
		}
		return stride * *t.Size.Constant
	case ir.StructType:
		return t.Span
	}
	return 0
}

func vertexAttributes(m *ir.Module, ep ir.EntryPoint) []Attribute {
	if int(ep.Function) >= len(m.Functions) {
		return nil
	}
	var result []Attribute
	add := func(name string, b *ir.Binding, h ir.TypeHandle) {
		if b == nil {
			return
		}
		loc, ok := (*b).(ir.LocationBinding)
		if !ok {
			return
		}
		a := Attribute{Name: name, Location: loc.Location, Components: 1}
		switch t := typeInner(m, h).(type) {
		case ir.ScalarType:
			a.Scalar = scalarKind(t.Kind)
		case ir.VectorType:
			a.Scalar = scalarKind(t.Scalar.Kind)
			a.Components = int(t.Size)
		}
		result = append(result, a)
	}
	for _, arg := range m.Functions[ep.Function].Arguments {
		if st, ok := typeInner(m, arg.Type).(ir.StructType); ok && arg.Binding == nil {
			for _, member := range st.Members {
				add(member.Name, member.Binding, member.Type)
			}
			continue
		}
		add(arg.Name, arg.Binding, arg.Type)
	}
	return result
}
