// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/asset"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

type textureImage struct {
	level    int
	layer    int
	face     int
	fileName string
}

// Texture is the GPU side of a texture item, or of a buffer viewed as a
// texture. It follows the same reload/upload/download protocol as Buffer.
type Texture struct {
	itemID   session.ItemID
	name     string
	fileName string
	target   session.TextureTarget
	format   session.Format
	width    int
	height   int
	depth    int
	layers   int
	samples  int
	flipY    bool
	images   []textureImage
	buffer   *Buffer

	data           []byte
	handle         Handle
	systemModified bool
	deviceModified bool
}

func newTexture(it *session.Item, t *session.Texture) *Texture {
	tex := &Texture{
		itemID:   it.ID,
		name:     it.Name,
		fileName: t.FileName,
		target:   t.Target,
		format:   t.Format,
		width:    max(t.Width, 1),
		height:   max(t.Height, 1),
		depth:    max(t.Depth, 1),
		layers:   max(t.Layers, 1),
		samples:  max(t.Samples, 1),
		flipY:    t.FlipY,
	}
	switch t.Target {
	case session.Target1D:
		tex.height = 1
	case session.TargetCube:
		tex.layers = 6
	case session.TargetCubeArray:
		tex.layers *= 6
	}
	if t.Target != session.Target3D {
		tex.depth = 1
	}
	if t.Target != session.Target2DArray && t.Target != session.TargetCubeArray && t.Target != session.TargetCube {
		tex.layers = 1
	}
	for _, child := range it.Items {
		if im, ok := session.As[*session.Image](child); ok && im.FileName != "" {
			tex.images = append(tex.images, textureImage{
				level: im.Level, layer: im.Layer, face: im.Face, fileName: im.FileName,
			})
		}
	}
	return tex
}

// newBufferTexture views buf as a one dimensional texture of format.
func newBufferTexture(id session.ItemID, name string, buf *Buffer, format session.Format) *Texture {
	width := 1
	if bpt := format.BytesPerTexel(); bpt > 0 {
		width = max(buf.size/bpt, 1)
	}
	return &Texture{
		itemID:  id,
		name:    name,
		target:  session.TargetBuffer,
		format:  format,
		width:   width,
		height:  1,
		depth:   1,
		layers:  1,
		samples: 1,
		buffer:  buf,
	}
}

// ItemID returns the id of the texture item.
func (t *Texture) ItemID() session.ItemID { return t.itemID }

// FileName returns the backing file, or "".
func (t *Texture) FileName() string { return t.fileName }

// Format returns the texel format.
func (t *Texture) Format() session.Format { return t.format }

// Width returns the width of level 0.
func (t *Texture) Width() int { return t.width }

// Height returns the height of level 0.
func (t *Texture) Height() int { return t.height }

// Layers returns the number of array layers (6 per cube).
func (t *Texture) Layers() int { return t.layers }

// Samples returns the sample count.
func (t *Texture) Samples() int { return t.samples }

// Handle returns the device handle, or 0 before first use.
func (t *Texture) Handle() Handle { return t.handle }

// Data returns the CPU shadow, layer after layer.
func (t *Texture) Data() []byte { return t.data }

// Equal reports whether t and o describe the same texture.
func (t *Texture) Equal(o *Texture) bool {
	if t.itemID != o.itemID || t.fileName != o.fileName || t.target != o.target ||
		t.format != o.format || t.width != o.width || t.height != o.height ||
		t.depth != o.depth || t.layers != o.layers || t.samples != o.samples ||
		t.flipY != o.flipY || !slices.Equal(t.images, o.images) {
		return false
	}
	if t.buffer == nil || o.buffer == nil {
		return t.buffer == o.buffer
	}
	return t.buffer.Equal(o.buffer)
}

// sameDescription reports whether t and o can exchange their contents.
func (t *Texture) sameDescription(o *Texture) bool {
	return t.target == o.target && t.format == o.format && t.width == o.width &&
		t.height == o.height && t.depth == o.depth && t.layers == o.layers && t.samples == o.samples
}

func (t *Texture) adopt(prev *Texture) {
	t.data = prev.data
	t.handle = prev.handle
	t.systemModified = prev.systemModified
	t.deviceModified = prev.deviceModified
	prev.data = nil
	prev.handle = 0
}

func (t *Texture) layerSize() int {
	return t.width * t.height * t.depth * t.format.BytesPerTexel()
}

func (t *Texture) byteSize() int { return t.layerSize() * t.layers }

func (t *Texture) reload(e *env) {
	if t.data == nil {
		t.data = make([]byte, t.byteSize())
		t.systemModified = true
	}
	if t.deviceModified {
		return
	}
	if t.buffer != nil {
		t.buffer.reload(e)
		next := make([]byte, len(t.data))
		copy(next, t.buffer.data)
		t.replace(next)
		return
	}
	if t.fileName == "" && len(t.images) == 0 {
		return
	}

	next := bytes.Clone(t.data)
	if t.fileName != "" {
		t.loadLayer(e, next, t.fileName, 0)
	}
	for _, im := range t.images {
		if im.level != 0 {
			continue
		}
		layer := im.layer
		if t.target == session.TargetCube || t.target == session.TargetCubeArray {
			layer = im.layer*6 + im.face
		}
		t.loadLayer(e, next, im.fileName, layer)
	}
	t.replace(next)
}

func (t *Texture) replace(next []byte) {
	if !bytes.Equal(next, t.data) {
		t.data = next
		t.systemModified = true
	}
}

func (t *Texture) loadLayer(e *env, dst []byte, fileName string, layer int) {
	img, err := e.assets.Image(fileName, t.flipY)
	if err != nil {
		e.msgs.Add(t.itemID, message.LoadingFileFailed, fileName)
		return
	}
	if img.Width != t.width || img.Height != t.height || layer < 0 || layer >= t.layers {
		return
	}
	px, ok := texels(img, t.format)
	if !ok {
		e.msgs.Add(t.itemID, message.LoadingFileFailed, fmt.Sprintf("%s (%s)", fileName, t.format))
		return
	}
	copy(dst[layer*t.layerSize():], px)
}

func (t *Texture) usage() gputypes.TextureUsage {
	u := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
		gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	if storageFormat(t.format) && t.samples == 1 {
		u |= gputypes.TextureUsageStorageBinding
	}
	return u
}

func (t *Texture) createHandle(e *env) bool {
	if t.handle != 0 {
		return true
	}
	h, err := e.dev.CreateTexture(&TextureDescriptor{
		Label:     t.name,
		Format:    TextureFormat(t.format),
		Dimension: textureDimension(t.target),
		Size:      Extent{Width: uint32(t.width), Height: uint32(t.height), Layers: uint32(t.layers)},
		Depth:     uint32(t.depth),
		Samples:   uint32(t.samples),
		Usage:     t.usage(),
		TexelSize: uint32(t.format.BytesPerTexel()),
	})
	if err != nil {
		e.msgs.Add(t.itemID, message.CreatingTextureFailed, err.Error())
		return false
	}
	t.handle = h
	return true
}

func (t *Texture) upload(e *env) {
	if !t.systemModified {
		return
	}
	if t.samples == 1 {
		if err := e.dev.WriteTexture(t.handle, t.data); err != nil {
			gpuplay.Logger().Warn("render: texture upload failed", "item", t.itemID, "err", err)
			return
		}
	}
	t.systemModified = false
	t.deviceModified = false
}

// ReadOnlyHandle returns the device texture with the current shadow
// uploaded, or 0 when it could not be created.
func (t *Texture) ReadOnlyHandle(e *env) Handle {
	t.reload(e)
	if !t.createHandle(e) {
		return 0
	}
	t.upload(e)
	return t.handle
}

// ReadWriteHandle is ReadOnlyHandle for callers that let the device write
// the texture.
func (t *Texture) ReadWriteHandle(e *env) Handle {
	h := t.ReadOnlyHandle(e)
	if h != 0 {
		t.deviceModified = true
	}
	return h
}

// Download reads the device contents back into the shadow and reports
// whether they changed. Multisampled textures are not read back.
func (t *Texture) Download(dev Device) bool {
	if !t.deviceModified || t.handle == 0 {
		return false
	}
	t.deviceModified = false
	if t.samples > 1 {
		return false
	}
	next := make([]byte, t.byteSize())
	if err := dev.ReadTexture(t.handle, next); err != nil {
		gpuplay.Logger().Warn("render: texture download failed", "item", t.itemID, "err", err)
		return false
	}
	if bytes.Equal(next, t.data) {
		return false
	}
	t.data = next
	t.systemModified = false
	return true
}

// Image returns layer 0 of the shadow as an RGBA8 image, or nil when the
// format has no image representation.
func (t *Texture) Image() *asset.Image {
	if len(t.data) < t.layerSize() {
		return nil
	}
	return toImage(t.data[:t.width*t.height*t.format.BytesPerTexel()], t.width, t.height, t.format)
}

// Clear sets every texel to value.
func (t *Texture) Clear(e *env, value ClearValue) error {
	h := t.ReadWriteHandle(e)
	if h == 0 {
		return errNoHandle
	}
	return e.dev.ClearTexture(h, value)
}

// CopyFrom copies the overlapping region of src into t.
func (t *Texture) CopyFrom(e *env, src *Texture) error {
	from := src.ReadOnlyHandle(e)
	to := t.ReadWriteHandle(e)
	if from == 0 || to == 0 {
		return errNoHandle
	}
	return e.dev.CopyTexture(to, from, Extent{
		Width:  uint32(min(t.width, src.width)),
		Height: uint32(min(t.height, src.height)),
		Layers: uint32(min(t.layers, src.layers)),
	})
}

// Swap exchanges the contents of two textures with the same description.
func (t *Texture) Swap(o *Texture) bool {
	if !t.sameDescription(o) {
		return false
	}
	t.data, o.data = o.data, t.data
	t.handle, o.handle = o.handle, t.handle
	t.systemModified, o.systemModified = o.systemModified, t.systemModified
	t.deviceModified, o.deviceModified = o.deviceModified, t.deviceModified
	return true
}

// Release destroys the device texture.
func (t *Texture) Release(dev Device) {
	if t.handle != 0 && dev != nil {
		dev.DestroyTexture(t.handle)
	}
	t.handle = 0
}

// texels converts an RGBA8 image to the texel layout of f.
func texels(img *asset.Image, f session.Format) ([]byte, bool) {
	n := img.Width * img.Height
	src := img.Pix
	switch f {
	case session.RGBA8Unorm, session.RGBA8UnormSrgb:
		return bytes.Clone(src[:n*4]), true
	case session.BGRA8Unorm, session.BGRA8UnormSrgb:
		out := make([]byte, n*4)
		for i := range n {
			out[i*4+0] = src[i*4+2]
			out[i*4+1] = src[i*4+1]
			out[i*4+2] = src[i*4+0]
			out[i*4+3] = src[i*4+3]
		}
		return out, true
	case session.RG8Unorm:
		out := make([]byte, n*2)
		for i := range n {
			out[i*2] = src[i*4]
			out[i*2+1] = src[i*4+1]
		}
		return out, true
	case session.R8Unorm, session.R8Uint:
		out := make([]byte, n)
		for i := range n {
			out[i] = src[i*4]
		}
		return out, true
	case session.RGBA32Float:
		out := make([]byte, n*16)
		for i := range n * 4 {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(src[i])/255))
		}
		return out, true
	}
	return nil, false
}

// toImage is the inverse of texels.
func toImage(data []byte, width, height int, f session.Format) *asset.Image {
	img := asset.NewImage(width, height)
	n := width * height
	dst := img.Pix
	switch f {
	case session.RGBA8Unorm, session.RGBA8UnormSrgb:
		copy(dst, data)
	case session.BGRA8Unorm, session.BGRA8UnormSrgb:
		for i := range n {
			dst[i*4+0] = data[i*4+2]
			dst[i*4+1] = data[i*4+1]
			dst[i*4+2] = data[i*4+0]
			dst[i*4+3] = data[i*4+3]
		}
	case session.RG8Unorm:
		for i := range n {
			dst[i*4], dst[i*4+1], dst[i*4+3] = data[i*2], data[i*2+1], 255
		}
	case session.R8Unorm, session.R8Uint:
		for i := range n {
			dst[i*4], dst[i*4+3] = data[i], 255
		}
	case session.RGBA32Float:
		for i := range n * 4 {
			v := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			dst[i] = byte(math.Round(float64(min(max(v, 0), 1)) * 255))
		}
	default:
		return nil
	}
	return img
}
