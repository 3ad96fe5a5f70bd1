// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/session"
)

type attachment struct {
	itemID  session.ItemID
	state   session.Attachment
	texture *Texture
}

// Target is the framebuffer a draw renders into: the attachments of a
// target item and its fixed function state.
type Target struct {
	itemID      session.ItemID
	state       session.Target
	attachments []attachment
}

// ItemID returns the id of the target item.
func (t *Target) ItemID() session.ItemID { return t.itemID }

// Validate reports whether the target can be rendered to. reason explains
// a failure.
func (t *Target) Validate() (ok bool, reason string) {
	var attached []*Texture
	for _, a := range t.attachments {
		if a.texture != nil {
			attached = append(attached, a.texture)
		}
	}
	if len(attached) == 0 {
		if t.state.DefaultWidth > 0 && t.state.DefaultHeight > 0 {
			return true, ""
		}
		return false, "(missing attachment)"
	}
	first := attached[0]
	for _, tex := range attached[1:] {
		if tex.width != first.width || tex.height != first.height {
			return false, "(size mismatch)"
		}
		if tex.samples != first.samples {
			return false, "(sample mismatch)"
		}
	}
	return true, ""
}

// bind resolves the attachments to device textures. Attachments are
// written by the draw, so their textures are taken for writing.
func (t *Target) bind(e *env) (TargetState, bool) {
	ts := TargetState{
		Width:         uint32(max(t.state.DefaultWidth, 0)),
		Height:        uint32(max(t.state.DefaultHeight, 0)),
		Layers:        uint32(max(t.state.DefaultLayers, 1)),
		Samples:       uint32(max(t.state.DefaultSamples, 1)),
		FrontFace:     frontFace(t.state.FrontFace),
		CullMode:      cullMode(t.state.CullMode),
		PolygonMode:   t.state.PolygonMode,
		LogicOp:       t.state.LogicOperation,
		BlendConstant: toColor(t.state.BlendConstant),
	}
	sized := false
	for _, a := range t.attachments {
		tex := a.texture
		if tex == nil {
			continue
		}
		h := tex.ReadWriteHandle(e)
		if h == 0 {
			return ts, false
		}
		w := uint32(max(tex.width>>a.state.Level, 1))
		hgt := uint32(max(tex.height>>a.state.Level, 1))
		if !sized {
			ts.Width, ts.Height, ts.Samples = w, hgt, uint32(tex.samples)
			sized = true
		} else {
			ts.Width, ts.Height = min(ts.Width, w), min(ts.Height, hgt)
		}

		if tex.format.IsColor() {
			ts.Colors = append(ts.Colors, ColorTarget{
				Texture:          h,
				Format:           TextureFormat(tex.format),
				Level:            a.state.Level,
				Layer:            a.state.Layer,
				WriteMask:        a.state.ColorWriteMask,
				BlendColorEq:     a.state.BlendColorEq,
				BlendColorSource: a.state.BlendColorSource,
				BlendColorDest:   a.state.BlendColorDest,
				BlendAlphaEq:     a.state.BlendAlphaEq,
				BlendAlphaSource: a.state.BlendAlphaSource,
				BlendAlphaDest:   a.state.BlendAlphaDest,
			})
			continue
		}
		ts.DepthStencil = &DepthStencilTarget{
			Texture:      h,
			Format:       TextureFormat(tex.format),
			Level:        a.state.Level,
			Layer:        a.state.Layer,
			Compare:      a.state.DepthComparison,
			DepthWrite:   a.state.DepthWrite,
			DepthClamp:   a.state.DepthClamp,
			OffsetSlope:  a.state.DepthOffsetSlope,
			OffsetConst:  a.state.DepthOffsetConstant,
			StencilFront: a.state.StencilFront,
			StencilBack:  a.state.StencilBack,
		}
	}
	return ts, true
}
