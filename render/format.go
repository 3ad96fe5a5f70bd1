// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuplay/session"
)

var textureFormats = [...]gputypes.TextureFormat{
	session.FormatNone:          gputypes.TextureFormatUndefined,
	session.R8Unorm:             gputypes.TextureFormatR8Unorm,
	session.RG8Unorm:            gputypes.TextureFormatRG8Unorm,
	session.RGBA8Unorm:          gputypes.TextureFormatRGBA8Unorm,
	session.RGBA8UnormSrgb:      gputypes.TextureFormatRGBA8UnormSrgb,
	session.BGRA8Unorm:          gputypes.TextureFormatBGRA8Unorm,
	session.BGRA8UnormSrgb:      gputypes.TextureFormatBGRA8UnormSrgb,
	session.R8Uint:              gputypes.TextureFormatR8Uint,
	session.R16Float:            gputypes.TextureFormatR16Float,
	session.RG16Float:           gputypes.TextureFormatRG16Float,
	session.RGBA16Float:         gputypes.TextureFormatRGBA16Float,
	session.R32Float:            gputypes.TextureFormatR32Float,
	session.RG32Float:           gputypes.TextureFormatRG32Float,
	session.RGBA32Float:         gputypes.TextureFormatRGBA32Float,
	session.R32Uint:             gputypes.TextureFormatR32Uint,
	session.RGBA32Uint:          gputypes.TextureFormatRGBA32Uint,
	session.R32Sint:             gputypes.TextureFormatR32Sint,
	session.RGBA32Sint:          gputypes.TextureFormatRGBA32Sint,
	session.Depth16Unorm:        gputypes.TextureFormatDepth16Unorm,
	session.Depth24Plus:         gputypes.TextureFormatDepth24Plus,
	session.Depth32Float:        gputypes.TextureFormatDepth32Float,
	session.Depth24PlusStencil8: gputypes.TextureFormatDepth24PlusStencil8,
	session.Stencil8:            gputypes.TextureFormatStencil8,
}

// TextureFormat converts a session format to its GPU format.
func TextureFormat(f session.Format) gputypes.TextureFormat {
	if int(f) < len(textureFormats) {
		return textureFormats[f]
	}
	return gputypes.TextureFormatUndefined
}

// storageFormat reports whether f can be bound as a storage texture.
func storageFormat(f session.Format) bool {
	switch f {
	case session.RGBA8Unorm, session.RGBA16Float, session.R32Float, session.RG32Float,
		session.RGBA32Float, session.R32Uint, session.RGBA32Uint, session.R32Sint, session.RGBA32Sint:
		return true
	}
	return false
}

func textureDimension(t session.TextureTarget) gputypes.TextureDimension {
	switch t {
	case session.Target1D, session.TargetBuffer:
		return gputypes.TextureDimension1D
	case session.Target3D:
		return gputypes.TextureDimension3D
	}
	return gputypes.TextureDimension2D
}

func topology(p session.PrimitiveType) gputypes.PrimitiveTopology {
	switch p {
	case session.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case session.Points:
		return gputypes.PrimitiveTopologyPointList
	case session.Lines:
		return gputypes.PrimitiveTopologyLineList
	case session.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	}
	return gputypes.PrimitiveTopologyTriangleList
}

func frontFace(f session.FrontFace) gputypes.FrontFace {
	if f == session.FrontFaceCW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

// cullMode converts a cull mode. Culling both faces has no GPU equivalent;
// it is reported as culling back faces.
func cullMode(c session.CullMode) gputypes.CullMode {
	switch c {
	case session.CullFront:
		return gputypes.CullModeFront
	case session.CullBack, session.CullFrontAndBack:
		return gputypes.CullModeBack
	}
	return gputypes.CullModeNone
}

func toColor(c [4]float64) gputypes.Color {
	return gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// srgbToLinear decodes an sRGB encoded color channel.
func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
