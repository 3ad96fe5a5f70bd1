// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplay/render"
)

func (d *Device) CreateTexture(desc *render.TextureDescriptor) (render.Handle, error) {
	if desc.TexelSize == 0 {
		return 0, fmt.Errorf("halgpu: texture %q: %w", desc.Label, render.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	layers := max(desc.Size.Layers, 1)
	if desc.Dimension == gputypes.TextureDimension3D {
		layers = max(desc.Depth, 1)
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Size.Width, Height: desc.Size.Height, DepthOrArrayLayers: layers},
		MipLevelCount: 1,
		SampleCount:   max(desc.Samples, 1),
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return 0, fmt.Errorf("halgpu: create texture %q: %w", desc.Label, err)
	}
	t := &texture{tex: tex, desc: *desc}
	if desc.Dimension == gputypes.TextureDimension2D {
		view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         desc.Label + "_view",
			Format:        desc.Format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			d.device.DestroyTexture(tex)
			return 0, fmt.Errorf("halgpu: create view of %q: %w", desc.Label, err)
		}
		t.view = view
	}
	h := d.handle()
	d.textures[h] = t
	return h, nil
}

func (d *Device) lookupTexture(h render.Handle) (*texture, error) {
	t, ok := d.textures[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return t, nil
}

func (t *texture) layers() uint32 {
	if t.desc.Dimension == gputypes.TextureDimension3D {
		return max(t.desc.Depth, 1)
	}
	return max(t.desc.Size.Layers, 1)
}

func (t *texture) rowSize() uint32 { return t.desc.Size.Width * t.desc.TexelSize }

func (t *texture) byteSize() int {
	return int(t.rowSize()) * int(t.desc.Size.Height) * int(t.layers())
}

func (d *Device) WriteTexture(tex render.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.lookupTexture(tex)
	if err != nil {
		return err
	}
	if len(data) < t.byteSize() {
		return fmt.Errorf("halgpu: %d bytes for texture of %d bytes", len(data), t.byteSize())
	}
	d.writeTexture(t, data)
	return nil
}

func (d *Device) writeTexture(t *texture, data []byte) {
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: t.rowSize(), RowsPerImage: t.desc.Size.Height},
		&hal.Extent3D{Width: t.desc.Size.Width, Height: t.desc.Size.Height, DepthOrArrayLayers: t.layers()},
	)
}

func (d *Device) ReadTexture(tex render.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.lookupTexture(tex)
	if err != nil {
		return err
	}
	out, err := d.readTexture(t)
	if err != nil {
		return err
	}
	copy(data, out)
	return nil
}

// readTexture copies level 0 into a staging buffer with aligned rows and
// returns it tightly packed.
func (d *Device) readTexture(t *texture) ([]byte, error) {
	w, h, layers := t.desc.Size.Width, t.desc.Size.Height, t.layers()
	row := t.rowSize()
	pitch := alignRow(row)
	size := uint64(pitch) * uint64(h) * uint64(layers)
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "halgpu_texture_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.submit("halgpu_read_texture", func(enc hal.CommandEncoder) error {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	padded := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, padded); err != nil {
		return nil, fmt.Errorf("halgpu: readback: %w", err)
	}
	return unpadRows(padded, row, pitch, h*layers), nil
}

// unpadRows removes the row padding of a texture readback.
func unpadRows(padded []byte, row, pitch, rows uint32) []byte {
	if row == pitch {
		return padded[:row*rows]
	}
	out := make([]byte, row*rows)
	for y := range rows {
		copy(out[y*row:(y+1)*row], padded[y*pitch:])
	}
	return out
}

// CopyTexture copies through the host: both textures are read back and
// the region is written into dst.
func (d *Device) CopyTexture(dst, src render.Handle, size render.Extent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	to, err := d.lookupTexture(dst)
	if err != nil {
		return err
	}
	from, err := d.lookupTexture(src)
	if err != nil {
		return err
	}
	if to.desc.TexelSize != from.desc.TexelSize {
		return fmt.Errorf("halgpu: copy between texel sizes %d and %d: %w",
			from.desc.TexelSize, to.desc.TexelSize, render.ErrUnsupported)
	}
	fromData, err := d.readTexture(from)
	if err != nil {
		return err
	}
	toData, err := d.readTexture(to)
	if err != nil {
		return err
	}
	copyRegion(toData, fromData, to.desc.Size, from.desc.Size, size, to.desc.TexelSize)
	d.writeTexture(to, toData)
	return nil
}

// copyRegion copies the top-left region of size from src into dst, layer
// by layer. Both are tightly packed.
func copyRegion(dst, src []byte, dstSize, srcSize, size render.Extent, texel uint32) {
	row := size.Width * texel
	for layer := range max(size.Layers, 1) {
		for y := range size.Height {
			so := ((layer*srcSize.Height + y) * srcSize.Width) * texel
			do := ((layer*dstSize.Height + y) * dstSize.Width) * texel
			copy(dst[do:do+row], src[so:so+row])
		}
	}
}

// ClearTexture clears through a render pass with a clear load operation.
func (d *Device) ClearTexture(tex render.Handle, value render.ClearValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.lookupTexture(tex)
	if err != nil {
		return err
	}
	if t.view == nil || t.layers() != 1 {
		return fmt.Errorf("halgpu: clear of layered texture: %w", render.ErrUnsupported)
	}
	desc := &hal.RenderPassDescriptor{Label: "halgpu_clear"}
	if isDepthStencil(t.desc.Format) {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:            t.view,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: float32(value.Depth),
		}
		if hasStencil(t.desc.Format) {
			ds.StencilLoadOp = gputypes.LoadOpClear
			ds.StencilStoreOp = gputypes.StoreOpStore
			ds.StencilClearValue = value.Stencil
		}
		desc.DepthStencilAttachment = ds
	} else {
		desc.ColorAttachments = []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: value.Color,
		}}
	}
	return d.submit("halgpu_clear_texture", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(desc)
		rp.End()
		return nil
	})
}

func (d *Device) destroyTexture(t *texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
	}
	d.device.DestroyTexture(t.tex)
}

func (d *Device) DestroyTexture(tex render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[tex]; ok {
		d.destroyTexture(t)
		delete(d.textures, tex)
	}
}

func isDepthStencil(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatDepth16Unorm, gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth32Float, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatStencil8:
		return true
	}
	return false
}

func hasStencil(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth24PlusStencil8 || f == gputypes.TextureFormatStencil8
}
