package session

import (
	"fmt"
	"strings"
)

// lookup finds s (case-insensitively, ignoring '-' and '_') in names.
func lookup[T ~uint8](names []string, s string) (T, bool) {
	key := normalizeName(s)
	for i, n := range names {
		if n != "" && normalizeName(n) == key {
			return T(i), true
		}
	}
	return 0, false
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

func name[T ~uint8](names []string, v T) string {
	if int(v) < len(names) && names[v] != "" {
		return names[v]
	}
	return fmt.Sprintf("%d", v)
}

// DataType is the element type of a buffer field.
type DataType uint8

const (
	Int8 DataType = iota
	Int16
	Int32
	Uint8
	Uint16
	Uint32
	Float32
	Float64
)

var dataTypeNames = []string{"int8", "int16", "int32", "uint8", "uint16", "uint32", "float32", "float64"}

func (t DataType) String() string { return name(dataTypeNames, t) }

// Size returns the byte size of one element.
func (t DataType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Float64:
		return 8
	}
	return 4
}

// TextureTarget is the dimensionality of a texture.
type TextureTarget uint8

const (
	Target2D TextureTarget = iota
	Target1D
	Target2DArray
	Target3D
	TargetCube
	TargetCubeArray
	TargetBuffer
)

var textureTargetNames = []string{"2d", "1d", "2d_array", "3d", "cube", "cube_array", "buffer"}

func (t TextureTarget) String() string { return name(textureTargetNames, t) }

// ShaderType is the pipeline stage of a shader.
type ShaderType uint8

const (
	VertexShader ShaderType = iota
	FragmentShader
	ComputeShader
	IncludableShader
)

var shaderTypeNames = []string{"vertex", "fragment", "compute", "includable"}

func (t ShaderType) String() string { return name(shaderTypeNames, t) }

// Language is the source language of a shader.
type Language uint8

const (
	WGSL Language = iota
	GLSL
)

var languageNames = []string{"wgsl", "glsl"}

func (l Language) String() string { return name(languageNames, l) }

// FrontFace selects the winding of front facing triangles.
type FrontFace uint8

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

var frontFaceNames = []string{"ccw", "cw"}

// CullMode selects which faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
	CullFrontAndBack
)

var cullModeNames = []string{"none", "front", "back", "front_and_back"}

// PolygonMode selects how triangles are rasterized.
type PolygonMode uint8

const (
	PolygonFill PolygonMode = iota
	PolygonLine
	PolygonPoint
)

var polygonModeNames = []string{"fill", "line", "point"}

// LogicOperation is a framebuffer logic operation.
type LogicOperation uint8

const (
	LogicNone LogicOperation = iota
	LogicClear
	LogicAnd
	LogicCopy
	LogicXor
	LogicOr
	LogicInvert
	LogicSet
)

var logicOperationNames = []string{"none", "clear", "and", "copy", "xor", "or", "invert", "set"}

// BlendEquation combines source and destination colors.
type BlendEquation uint8

const (
	BlendAdd BlendEquation = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

var blendEquationNames = []string{"add", "subtract", "reverse_subtract", "min", "max"}

// BlendFactor scales a blend operand.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendConstant
	BlendOneMinusConstant
)

var blendFactorNames = []string{
	"zero", "one", "src_color", "one_minus_src_color", "src_alpha", "one_minus_src_alpha",
	"dst_color", "one_minus_dst_color", "dst_alpha", "one_minus_dst_alpha", "constant", "one_minus_constant",
}

// ComparisonFunc is a depth, stencil or sampler comparison. CompareNone
// disables sampler comparison.
type ComparisonFunc uint8

const (
	CompareNone ComparisonFunc = iota
	CompareNever
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

var comparisonFuncNames = []string{"none", "never", "less", "equal", "less_equal", "greater", "not_equal", "greater_equal", "always"}

func (c ComparisonFunc) String() string { return name(comparisonFuncNames, c) }

// StencilOperation updates the stencil buffer.
type StencilOperation uint8

const (
	StencilKeep StencilOperation = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilIncrementWrap
	StencilDecrement
	StencilDecrementWrap
	StencilInvert
)

var stencilOperationNames = []string{"keep", "zero", "replace", "increment", "increment_wrap", "decrement", "decrement_wrap", "invert"}

// BindingType selects what a binding provides.
type BindingType uint8

const (
	UniformBinding BindingType = iota
	SamplerBinding
	ImageBinding
	TextureBufferBinding
	BufferBinding
	BufferBlockBinding
	SubroutineBinding
)

var bindingTypeNames = []string{"uniform", "sampler", "image", "texture_buffer", "buffer", "buffer_block", "subroutine"}

func (t BindingType) String() string { return name(bindingTypeNames, t) }

// Filter is a texture sampling filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapLinear
)

var filterNames = []string{"nearest", "linear", "nearest_mipmap_nearest", "linear_mipmap_linear"}

// WrapMode is a texture coordinate wrap mode.
type WrapMode uint8

const (
	WrapRepeat WrapMode = iota
	WrapMirroredRepeat
	WrapClampToEdge
	WrapClampToBorder
)

var wrapModeNames = []string{"repeat", "mirrored_repeat", "clamp_to_edge", "clamp_to_border"}

// Access is the access mode of an image binding.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

var accessNames = []string{"read_write", "read_only", "write_only"}

// CallType is the fixed operation family of a call.
type CallType uint8

const (
	Draw CallType = iota
	DrawIndexed
	DrawIndirect
	DrawIndexedIndirect
	Compute
	ComputeIndirect
	ClearTexture
	ClearBuffer
	CopyTexture
	CopyBuffer
	SwapTextures
	SwapBuffers
)

var callTypeNames = []string{
	"draw", "draw_indexed", "draw_indirect", "draw_indexed_indirect", "compute", "compute_indirect",
	"clear_texture", "clear_buffer", "copy_texture", "copy_buffer", "swap_textures", "swap_buffers",
}

func (t CallType) String() string { return name(callTypeNames, t) }

// ExecuteOn is the policy deciding in which evaluations a call or script runs.
type ExecuteOn uint8

const (
	EveryEvaluation ExecuteOn = iota
	ManualEvaluation
	ResetEvaluation
)

var executeOnNames = []string{"every_evaluation", "manual_evaluation", "reset_evaluation"}

func (e ExecuteOn) String() string { return name(executeOnNames, e) }

// PrimitiveType is the primitive topology of a draw.
type PrimitiveType uint8

const (
	Triangles PrimitiveType = iota
	TriangleStrip
	Points
	Lines
	LineStrip
)

var primitiveTypeNames = []string{"triangles", "triangle_strip", "points", "lines", "line_strip"}

func (p PrimitiveType) String() string { return name(primitiveTypeNames, p) }
