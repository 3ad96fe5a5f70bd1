// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplay/render"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// slotKind is the kind of resource a binding point takes.
type slotKind uint8

const (
	slotBuffer slotKind = iota
	slotTexture
	slotSampler
	slotStorage
)

// slot is one binding point of a program, as its bind group layout
// declares it.
type slot struct {
	group   uint32
	binding uint32
	kind    slotKind

	bufferType gputypes.BufferBindingType
	minSize    uint64

	view         gputypes.TextureViewDimension
	sampleType   gputypes.TextureSampleType
	multisampled bool
	samplerType  gputypes.SamplerBindingType
	format       gputypes.TextureFormat
	access       gputypes.StorageTextureAccess
}

type slotKey struct{ group, binding uint32 }

// programSlots lists the binding points of in. A sampler shared by
// several textures is listed once.
func programSlots(in *shader.Interface) ([]slot, error) {
	var slots []slot
	seen := make(map[slotKey]bool)
	add := func(s slot) {
		k := slotKey{s.group, s.binding}
		if seen[k] {
			return
		}
		seen[k] = true
		slots = append(slots, s)
	}

	for _, b := range in.Buffers {
		typ := gputypes.BufferBindingTypeStorage
		switch {
		case b.Uniform:
			typ = gputypes.BufferBindingTypeUniform
		case b.ReadOnly:
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		}
		add(slot{group: b.Group, binding: b.Binding, kind: slotBuffer, bufferType: typ, minSize: uint64(b.MinSize)})
	}
	for _, t := range in.Samplers {
		st := sampleType(t)
		add(slot{
			group: t.Group, binding: t.Binding, kind: slotTexture,
			view: viewDimension(t.Dimension, t.Arrayed), sampleType: st, multisampled: t.Multisampled,
		})
		if t.Sampler == "" {
			continue
		}
		typ := gputypes.SamplerBindingTypeFiltering
		switch {
		case t.Comparison:
			typ = gputypes.SamplerBindingTypeComparison
		case st != gputypes.TextureSampleTypeFloat:
			typ = gputypes.SamplerBindingTypeNonFiltering
		}
		add(slot{group: t.SamplerGroup, binding: t.SamplerBinding, kind: slotSampler, samplerType: typ})
	}
	for _, t := range in.Images {
		format, ok := storageFormats[t.StorageFormat]
		if !ok {
			return nil, fmt.Errorf("halgpu: storage texture %q format %v: %w", t.Name, t.StorageFormat, render.ErrUnsupported)
		}
		add(slot{
			group: t.Group, binding: t.Binding, kind: slotStorage,
			view: viewDimension(t.Dimension, t.Arrayed), format: format, access: storageAccess(t.StorageAccess),
		})
	}
	return slots, nil
}

// layoutEntries groups slots by bind group. Groups without slots get an
// empty layout.
func layoutEntries(slots []slot, visibility gputypes.ShaderStage) [][]gputypes.BindGroupLayoutEntry {
	var groups [][]gputypes.BindGroupLayoutEntry
	for _, s := range slots {
		for int(s.group) >= len(groups) {
			groups = append(groups, nil)
		}
		e := gputypes.BindGroupLayoutEntry{Binding: s.binding, Visibility: visibility}
		switch s.kind {
		case slotBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: s.bufferType}
		case slotTexture:
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType: s.sampleType, ViewDimension: s.view, Multisampled: s.multisampled,
			}
		case slotSampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: s.samplerType}
		case slotStorage:
			e.StorageTexture = &gputypes.StorageTextureBindingLayout{
				Access: s.access, Format: s.format, ViewDimension: s.view,
			}
			// Vertex shaders cannot write storage textures.
			if s.access != gputypes.StorageTextureAccessReadOnly && visibility&gputypes.ShaderStageVertex != 0 {
				e.Visibility = gputypes.ShaderStageFragment
			}
		}
		groups[s.group] = append(groups[s.group], e)
	}
	return groups
}

func sampleType(t shader.TextureSlot) gputypes.TextureSampleType {
	switch {
	case t.Depth:
		return gputypes.TextureSampleTypeDepth
	case t.SampleKind == shader.Sint:
		return gputypes.TextureSampleTypeSint
	case t.SampleKind == shader.Uint:
		return gputypes.TextureSampleTypeUint
	}
	return gputypes.TextureSampleTypeFloat
}

func viewDimension(dim ir.ImageDimension, arrayed bool) gputypes.TextureViewDimension {
	switch dim {
	case ir.Dim1D:
		return gputypes.TextureViewDimension1D
	case ir.Dim3D:
		return gputypes.TextureViewDimension3D
	case ir.DimCube:
		if arrayed {
			return gputypes.TextureViewDimensionCubeArray
		}
		return gputypes.TextureViewDimensionCube
	}
	if arrayed {
		return gputypes.TextureViewDimension2DArray
	}
	return gputypes.TextureViewDimension2D
}

func storageAccess(a ir.StorageAccess) gputypes.StorageTextureAccess {
	switch a {
	case ir.StorageAccessRead:
		return gputypes.StorageTextureAccessReadOnly
	case ir.StorageAccessWrite:
		return gputypes.StorageTextureAccessWriteOnly
	}
	return gputypes.StorageTextureAccessReadWrite
}

var storageFormats = map[ir.StorageFormat]gputypes.TextureFormat{
	ir.StorageFormatR8Unorm:       gputypes.TextureFormatR8Unorm,
	ir.StorageFormatR8Snorm:       gputypes.TextureFormatR8Snorm,
	ir.StorageFormatR8Uint:        gputypes.TextureFormatR8Uint,
	ir.StorageFormatR8Sint:        gputypes.TextureFormatR8Sint,
	ir.StorageFormatR16Uint:       gputypes.TextureFormatR16Uint,
	ir.StorageFormatR16Sint:       gputypes.TextureFormatR16Sint,
	ir.StorageFormatR16Float:      gputypes.TextureFormatR16Float,
	ir.StorageFormatR16Unorm:      gputypes.TextureFormatR16Unorm,
	ir.StorageFormatR16Snorm:      gputypes.TextureFormatR16Snorm,
	ir.StorageFormatRg8Unorm:      gputypes.TextureFormatRG8Unorm,
	ir.StorageFormatRg8Snorm:      gputypes.TextureFormatRG8Snorm,
	ir.StorageFormatRg8Uint:       gputypes.TextureFormatRG8Uint,
	ir.StorageFormatRg8Sint:       gputypes.TextureFormatRG8Sint,
	ir.StorageFormatR32Uint:       gputypes.TextureFormatR32Uint,
	ir.StorageFormatR32Sint:       gputypes.TextureFormatR32Sint,
	ir.StorageFormatR32Float:      gputypes.TextureFormatR32Float,
	ir.StorageFormatRg16Uint:      gputypes.TextureFormatRG16Uint,
	ir.StorageFormatRg16Sint:      gputypes.TextureFormatRG16Sint,
	ir.StorageFormatRg16Float:     gputypes.TextureFormatRG16Float,
	ir.StorageFormatRg16Unorm:     gputypes.TextureFormatRG16Unorm,
	ir.StorageFormatRg16Snorm:     gputypes.TextureFormatRG16Snorm,
	ir.StorageFormatRgba8Unorm:    gputypes.TextureFormatRGBA8Unorm,
	ir.StorageFormatRgba8Snorm:    gputypes.TextureFormatRGBA8Snorm,
	ir.StorageFormatRgba8Uint:     gputypes.TextureFormatRGBA8Uint,
	ir.StorageFormatRgba8Sint:     gputypes.TextureFormatRGBA8Sint,
	ir.StorageFormatBgra8Unorm:    gputypes.TextureFormatBGRA8Unorm,
	ir.StorageFormatRgb10a2Uint:   gputypes.TextureFormatRGB10A2Uint,
	ir.StorageFormatRgb10a2Unorm:  gputypes.TextureFormatRGB10A2Unorm,
	ir.StorageFormatRg11b10Ufloat: gputypes.TextureFormatRG11B10Ufloat,
	ir.StorageFormatRg32Uint:      gputypes.TextureFormatRG32Uint,
	ir.StorageFormatRg32Sint:      gputypes.TextureFormatRG32Sint,
	ir.StorageFormatRg32Float:     gputypes.TextureFormatRG32Float,
	ir.StorageFormatRgba16Uint:    gputypes.TextureFormatRGBA16Uint,
	ir.StorageFormatRgba16Sint:    gputypes.TextureFormatRGBA16Sint,
	ir.StorageFormatRgba16Float:   gputypes.TextureFormatRGBA16Float,
	ir.StorageFormatRgba16Unorm:   gputypes.TextureFormatRGBA16Unorm,
	ir.StorageFormatRgba16Snorm:   gputypes.TextureFormatRGBA16Snorm,
	ir.StorageFormatRgba32Uint:    gputypes.TextureFormatRGBA32Uint,
	ir.StorageFormatRgba32Sint:    gputypes.TextureFormatRGBA32Sint,
	ir.StorageFormatRgba32Float:   gputypes.TextureFormatRGBA32Float,
}

func addressMode(w session.WrapMode) gputypes.AddressMode {
	switch w {
	case session.WrapRepeat:
		return gputypes.AddressModeRepeat
	case session.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	}
	return gputypes.AddressModeClampToEdge
}

func filterMode(f session.Filter) gputypes.FilterMode {
	if f == session.FilterLinear || f == session.FilterLinearMipmapLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// samplerDescriptor maps sampler state to a HAL sampler. Border colors
// are not available and clamp to the edge.
func samplerDescriptor(s render.Sampler, typ gputypes.SamplerBindingType) *hal.SamplerDescriptor {
	desc := &hal.SamplerDescriptor{
		Label:        "halgpu_sampler",
		AddressModeU: addressMode(s.WrapX),
		AddressModeV: addressMode(s.WrapY),
		AddressModeW: addressMode(s.WrapZ),
		MagFilter:    filterMode(s.MagFilter),
		MinFilter:    filterMode(s.MinFilter),
		MipmapFilter: gputypes.FilterModeNearest,
	}
	if s.MinFilter == session.FilterLinearMipmapLinear {
		desc.MipmapFilter = gputypes.FilterModeLinear
	}
	if typ == gputypes.SamplerBindingTypeNonFiltering {
		desc.MagFilter = gputypes.FilterModeNearest
		desc.MinFilter = gputypes.FilterModeNearest
		desc.MipmapFilter = gputypes.FilterModeNearest
	}
	if typ == gputypes.SamplerBindingTypeComparison {
		desc.Compare = compareFunction(s.Compare)
	}
	return desc
}

// bindings holds the objects created for one draw or dispatch.
type bindings struct {
	groups   []hal.BindGroup
	views    []hal.TextureView
	samplers []hal.Sampler
	buffers  []hal.Buffer
	textures []hal.Texture
}

func (d *Device) releaseBindings(b *bindings) {
	for _, bg := range b.groups {
		d.device.DestroyBindGroup(bg)
	}
	for _, v := range b.views {
		d.device.DestroyTextureView(v)
	}
	for _, s := range b.samplers {
		d.device.DestroySampler(s)
	}
	for _, buf := range b.buffers {
		d.device.DestroyBuffer(buf)
	}
	for _, t := range b.textures {
		d.device.DestroyTexture(t)
	}
}

// bindGroups creates one bind group per layout of p. Slots the command
// leaves unbound get zero-filled buffers and 1x1 textures, since bind
// groups must be complete. The caller releases the result after
// submission.
func (d *Device) bindGroups(p *program, buffers []render.BoundBuffer, textures []render.BoundTexture) (*bindings, error) {
	b := &bindings{}
	entries := make([][]gputypes.BindGroupEntry, len(p.groups))
	bound := make(map[slotKey]bool)
	add := func(group, binding uint32, res gputypes.BindingResource) {
		k := slotKey{group, binding}
		if int(group) >= len(entries) || bound[k] {
			return
		}
		bound[k] = true
		entries[group] = append(entries[group], gputypes.BindGroupEntry{Binding: binding, Resource: res})
	}
	fail := func(err error) (*bindings, error) {
		d.releaseBindings(b)
		return nil, err
	}

	for _, bb := range buffers {
		buf, err := d.lookupBuffer(bb.Buffer)
		if err != nil {
			return fail(err)
		}
		size := bb.Size
		if size == 0 || bb.Offset+size > buf.size {
			size = buf.size - min(bb.Offset, buf.size)
		}
		add(bb.Group, bb.Binding, gputypes.BufferBinding{Buffer: buf.buf.NativeHandle(), Offset: bb.Offset, Size: size})
	}

	for _, bt := range textures {
		s, ok := p.slots[slotKey{bt.Group, bt.Binding}]
		if !ok {
			continue
		}
		t, err := d.lookupTexture(bt.Texture)
		if err != nil {
			return fail(err)
		}
		view, err := d.bindingView(t, s, bt)
		if err != nil {
			return fail(err)
		}
		b.views = append(b.views, view)
		add(bt.Group, bt.Binding, gputypes.TextureViewBinding{TextureView: view.NativeHandle()})

		if !bt.HasSampler {
			continue
		}
		ss, ok := p.slots[slotKey{bt.SamplerGroup, bt.SamplerBinding}]
		if !ok || bound[slotKey{bt.SamplerGroup, bt.SamplerBinding}] {
			continue
		}
		sampler, err := d.device.CreateSampler(samplerDescriptor(bt.Sampler, ss.samplerType))
		if err != nil {
			return fail(fmt.Errorf("halgpu: create sampler: %w", err))
		}
		b.samplers = append(b.samplers, sampler)
		add(bt.SamplerGroup, bt.SamplerBinding, gputypes.SamplerBinding{Sampler: sampler.NativeHandle()})
	}

	for _, s := range p.order {
		if bound[slotKey{s.group, s.binding}] {
			continue
		}
		res, err := d.placeholder(b, s)
		if err != nil {
			return fail(err)
		}
		add(s.group, s.binding, res)
	}

	for i, layout := range p.groups {
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("halgpu_group%d", i),
			Layout:  layout,
			Entries: entries[i],
		})
		if err != nil {
			return fail(fmt.Errorf("halgpu: create bind group %d: %w", i, err))
		}
		b.groups = append(b.groups, bg)
	}
	return b, nil
}

// viewLayers returns the base layer and layer count of a view of t with
// dimension dim. layer selects the layer of single layer views.
func viewLayers(t *texture, dim gputypes.TextureViewDimension, layer int) (uint32, uint32, error) {
	switch dim {
	case gputypes.TextureViewDimension2DArray, gputypes.TextureViewDimensionCube, gputypes.TextureViewDimensionCubeArray:
		return 0, t.layers(), nil
	case gputypes.TextureViewDimension2D:
		if t.desc.Dimension == gputypes.TextureDimension3D || layer < 0 || uint32(layer) >= t.layers() {
			return 0, 0, fmt.Errorf("halgpu: layer %d of %q: %w", layer, t.desc.Label, render.ErrUnsupported)
		}
		return uint32(layer), 1, nil
	}
	return 0, 1, nil
}

// bindingView creates the view a binding point reads t through.
func (d *Device) bindingView(t *texture, s slot, bt render.BoundTexture) (hal.TextureView, error) {
	if bt.Level != 0 {
		return nil, fmt.Errorf("halgpu: binding level %d of %q: %w", bt.Level, t.desc.Label, render.ErrUnsupported)
	}
	layer := 0
	if s.kind == slotStorage {
		layer = bt.Layer
	}
	base, count, err := viewLayers(t, s.view, layer)
	if err != nil {
		return nil, err
	}
	aspect := gputypes.TextureAspectAll
	if isDepthStencil(t.desc.Format) {
		aspect = gputypes.TextureAspectDepthOnly
	}
	view, err := d.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:           t.desc.Label + "_binding",
		Format:          t.desc.Format,
		Dimension:       s.view,
		Aspect:          aspect,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  base,
		ArrayLayerCount: count,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create binding view of %q: %w", t.desc.Label, err)
	}
	return view, nil
}

// placeholderFormat is the format of the texture bound to an unbound
// sampled or storage texture slot.
func placeholderFormat(s slot) gputypes.TextureFormat {
	if s.kind == slotStorage {
		return s.format
	}
	switch s.sampleType {
	case gputypes.TextureSampleTypeDepth:
		return gputypes.TextureFormatDepth32Float
	case gputypes.TextureSampleTypeSint:
		return gputypes.TextureFormatRGBA8Sint
	case gputypes.TextureSampleTypeUint:
		return gputypes.TextureFormatRGBA8Uint
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// placeholder creates the resource bound to an unbound slot and records
// it in b for release.
func (d *Device) placeholder(b *bindings, s slot) (gputypes.BindingResource, error) {
	switch s.kind {
	case slotBuffer:
		size := max(align4(s.minSize), 16)
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "halgpu_placeholder",
			Size:  size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("halgpu: create placeholder buffer: %w", err)
		}
		b.buffers = append(b.buffers, buf)
		d.queue.WriteBuffer(buf, 0, make([]byte, size))
		return gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: size}, nil

	case slotSampler:
		sampler, err := d.device.CreateSampler(samplerDescriptor(render.Sampler{}, s.samplerType))
		if err != nil {
			return nil, fmt.Errorf("halgpu: create placeholder sampler: %w", err)
		}
		b.samplers = append(b.samplers, sampler)
		return gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}, nil
	}

	format := placeholderFormat(s)
	dim := gputypes.TextureDimension2D
	layers := uint32(1)
	switch s.view {
	case gputypes.TextureViewDimension1D:
		dim = gputypes.TextureDimension1D
	case gputypes.TextureViewDimension3D:
		dim = gputypes.TextureDimension3D
	case gputypes.TextureViewDimensionCube, gputypes.TextureViewDimensionCubeArray:
		layers = 6
	}
	usage := gputypes.TextureUsageTextureBinding
	if s.kind == slotStorage {
		usage = gputypes.TextureUsageStorageBinding
	}
	samples := uint32(1)
	if s.multisampled {
		samples = 4
		usage |= gputypes.TextureUsageRenderAttachment
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "halgpu_placeholder",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: layers},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     dim,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create placeholder texture: %w", err)
	}
	b.textures = append(b.textures, tex)
	aspect := gputypes.TextureAspectAll
	if isDepthStencil(format) {
		aspect = gputypes.TextureAspectDepthOnly
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "halgpu_placeholder_view",
		Format:          format,
		Dimension:       s.view,
		Aspect:          aspect,
		MipLevelCount:   1,
		ArrayLayerCount: layers,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create placeholder view: %w", err)
	}
	b.views = append(b.views, view)
	return gputypes.TextureViewBinding{TextureView: view.NativeHandle()}, nil
}
