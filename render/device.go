// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// Handle identifies an object created by a Device. 0 is no object.
type Handle uint64

// ErrUnsupported is returned by devices for operations they cannot perform.
var ErrUnsupported = errors.New("render: operation not supported by device")

var errNoHandle = errors.New("render: device object not available")

// Device is the GPU capability a Session renders with.
//
// The device is passed to the session explicitly; a session without a
// device reports GPUContextNotAvailable and performs no GPU work. All
// methods are called from the goroutine driving the session.
type Device interface {
	CreateBuffer(desc *BufferDescriptor) (Handle, error)
	WriteBuffer(buf Handle, offset uint64, data []byte) error
	ReadBuffer(buf Handle, offset uint64, data []byte) error
	CopyBuffer(dst, src Handle, size uint64) error
	ClearBuffer(buf Handle) error
	DestroyBuffer(buf Handle)

	CreateTexture(desc *TextureDescriptor) (Handle, error)
	// WriteTexture replaces the contents of mip level 0 of all layers.
	// data is tightly packed, layer after layer.
	WriteTexture(tex Handle, data []byte) error
	ReadTexture(tex Handle, data []byte) error
	CopyTexture(dst, src Handle, size Extent) error
	ClearTexture(tex Handle, value ClearValue) error
	DestroyTexture(tex Handle)

	CreateProgram(desc *ProgramDescriptor) (Handle, error)
	DestroyProgram(prog Handle)

	Draw(cmd *DrawCommand) error
	Dispatch(cmd *DispatchCommand) error

	// BeginTimer starts measuring the GPU work issued until Timer.End.
	BeginTimer() Timer
}

// Timer measures the duration of GPU work.
type Timer interface {
	End()
	// Wait blocks until the measurement is available.
	Wait() time.Duration
}

// Extent is a texture size in texels.
type Extent struct {
	Width  uint32
	Height uint32
	Layers uint32
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label     string
	Format    gputypes.TextureFormat
	Dimension gputypes.TextureDimension
	Size      Extent
	Depth     uint32
	Samples   uint32
	Usage     gputypes.TextureUsage

	// TexelSize is the byte size of one texel, which devices use to
	// size staging memory.
	TexelSize uint32
}

// ProgramDescriptor describes a linked shader program to create.
type ProgramDescriptor struct {
	Label  string
	Module *shader.Module
}

// ClearValue is the value a texture is cleared to. Color is used for
// color formats, Depth and Stencil for depth/stencil formats.
type ClearValue struct {
	Color   gputypes.Color
	Depth   float64
	Stencil uint32
}

// BoundBuffer is a buffer range bound to a shader binding point.
type BoundBuffer struct {
	Group    uint32
	Binding  uint32
	Buffer   Handle
	Offset   uint64
	Size     uint64
	Uniform  bool
	ReadOnly bool
}

// Sampler describes how a sampled texture is filtered and addressed.
type Sampler struct {
	MinFilter   session.Filter
	MagFilter   session.Filter
	Anisotropic bool
	WrapX       session.WrapMode
	WrapY       session.WrapMode
	WrapZ       session.WrapMode
	BorderColor gputypes.Color
	Compare     session.ComparisonFunc
}

// BoundTexture is a texture bound to a shader binding point. Sampled
// textures carry a sampler when the shader declares one.
type BoundTexture struct {
	Group   uint32
	Binding uint32
	Texture Handle
	Storage bool
	Format  gputypes.TextureFormat
	Level   int
	Layer   int

	HasSampler     bool
	SamplerGroup   uint32
	SamplerBinding uint32
	Sampler        Sampler
}

// VertexInput feeds one vertex attribute from a buffer.
type VertexInput struct {
	Location   uint32
	Buffer     Handle
	Offset     uint64
	Stride     uint32
	DataType   session.DataType
	Components int
	Normalize  bool
	Divisor    int
}

// ColorTarget is a color attachment of a draw.
type ColorTarget struct {
	Texture   Handle
	Format    gputypes.TextureFormat
	Level     int
	Layer     int
	WriteMask uint8

	BlendColorEq     session.BlendEquation
	BlendColorSource session.BlendFactor
	BlendColorDest   session.BlendFactor
	BlendAlphaEq     session.BlendEquation
	BlendAlphaSource session.BlendFactor
	BlendAlphaDest   session.BlendFactor
}

// DepthStencilTarget is the depth/stencil attachment of a draw.
type DepthStencilTarget struct {
	Texture      Handle
	Format       gputypes.TextureFormat
	Level        int
	Layer        int
	Compare      session.ComparisonFunc
	DepthWrite   bool
	DepthClamp   bool
	OffsetSlope  float64
	OffsetConst  float64
	StencilFront session.StencilFace
	StencilBack  session.StencilFace
}

// TargetState is the framebuffer and fixed function state of a draw.
type TargetState struct {
	Width         uint32
	Height        uint32
	Layers        uint32
	Samples       uint32
	Colors        []ColorTarget
	DepthStencil  *DepthStencilTarget
	FrontFace     gputypes.FrontFace
	CullMode      gputypes.CullMode
	PolygonMode   session.PolygonMode
	LogicOp       session.LogicOperation
	BlendConstant gputypes.Color
}

// DrawCommand is one draw call with all of its state resolved.
type DrawCommand struct {
	Program  Handle
	Topology gputypes.PrimitiveTopology
	Target   TargetState
	Vertices []VertexInput
	Buffers  []BoundBuffer
	Textures []BoundTexture

	// IndexSize is the byte size of one index, 0 for non-indexed draws.
	IndexSize   int
	IndexBuffer Handle
	IndexOffset uint64

	IndirectBuffer Handle
	IndirectOffset uint64
	IndirectStride uint32
	DrawCount      uint32

	First         uint32
	Count         uint32
	InstanceCount uint32
	BaseVertex    int32
	BaseInstance  uint32
}

// Indexed reports whether the draw reads an index buffer.
func (c *DrawCommand) Indexed() bool { return c.IndexSize != 0 }

// Indirect reports whether the draw reads its arguments from a buffer.
func (c *DrawCommand) Indirect() bool { return c.IndirectBuffer != 0 }

// DispatchCommand is one compute dispatch.
type DispatchCommand struct {
	Program  Handle
	Buffers  []BoundBuffer
	Textures []BoundTexture

	GroupsX uint32
	GroupsY uint32
	GroupsZ uint32

	IndirectBuffer Handle
	IndirectOffset uint64
}
