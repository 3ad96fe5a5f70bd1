// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpuplay/render"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// createNoopDevice opens the noop HAL backend for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	device, queue := createNoopDevice(t)
	d := New(device, queue)
	t.Cleanup(d.Destroy)
	return d
}

type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// halProvider additionally exposes a HAL device.
type halProvider struct {
	mockProvider
	device any
	queue  any
}

func (p *halProvider) HalDevice() any { return p.device }
func (p *halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  bool
	}{
		{"no HAL access", &mockProvider{}, true},
		{"wrong device type", &halProvider{device: "device", queue: queue}, true},
		{"wrong queue type", &halProvider{device: device, queue: 42}, true},
		{"HAL provider", &halProvider{device: device, queue: queue}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewFromProvider(tt.provider)
			if tt.wantErr {
				if !errors.Is(err, ErrNoHALProvider) {
					t.Errorf("err = %v, want ErrNoHALProvider", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromProvider: %v", err)
			}
			if d.owned {
				t.Error("shared device is owned")
			}
		})
	}
}

func TestBufferLifecycle(t *testing.T) {
	d := newTestDevice(t)

	h, err := d.CreateBuffer(&render.BufferDescriptor{Label: "b", Size: 10, Usage: gputypes.BufferUsageStorage})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if h == 0 {
		t.Fatal("CreateBuffer returned handle 0")
	}
	if got := d.buffers[h].size; got != 12 {
		t.Errorf("size = %d, want 12", got)
	}
	if err := d.WriteBuffer(h, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}); err != nil {
		t.Errorf("WriteBuffer: %v", err)
	}
	if err := d.WriteBuffer(h, 8, make([]byte, 8)); err == nil {
		t.Error("WriteBuffer past the end succeeded")
	}
	if err := d.WriteBuffer(h, 2, []byte{1}); err == nil {
		t.Error("unaligned WriteBuffer succeeded")
	}
	if err := d.ClearBuffer(h); err != nil {
		t.Errorf("ClearBuffer: %v", err)
	}

	d.DestroyBuffer(h)
	if err := d.WriteBuffer(h, 0, []byte{1}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("WriteBuffer after destroy: err = %v, want ErrInvalidHandle", err)
	}
	d.DestroyBuffer(h)
}

func TestCreateTexture(t *testing.T) {
	d := newTestDevice(t)

	h, err := d.CreateTexture(&render.TextureDescriptor{
		Label:     "t",
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Dimension: gputypes.TextureDimension2D,
		Size:      render.Extent{Width: 4, Height: 2, Layers: 1},
		Samples:   1,
		Usage:     gputypes.TextureUsageCopyDst | gputypes.TextureUsageRenderAttachment,
		TexelSize: 4,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	tex := d.textures[h]
	if tex.view == nil {
		t.Error("2D texture has no view")
	}
	if got := tex.byteSize(); got != 32 {
		t.Errorf("byteSize = %d, want 32", got)
	}
	if err := d.WriteTexture(h, make([]byte, 16)); err == nil {
		t.Error("short WriteTexture succeeded")
	}
	if err := d.WriteTexture(h, make([]byte, 32)); err != nil {
		t.Errorf("WriteTexture: %v", err)
	}

	if _, err := d.CreateTexture(&render.TextureDescriptor{Label: "bad"}); !errors.Is(err, render.ErrUnsupported) {
		t.Errorf("texture without texel size: err = %v, want ErrUnsupported", err)
	}
}

func TestCreateProgramWithoutModule(t *testing.T) {
	d := newTestDevice(t)

	if _, err := d.CreateProgram(&render.ProgramDescriptor{Label: "p"}); err == nil {
		t.Error("program without module succeeded")
	}
	m := &shader.Module{Interface: &shader.Interface{
		Images: []shader.TextureSlot{{Name: "img", StorageFormat: ir.StorageFormatR64Uint}},
	}}
	if _, err := d.CreateProgram(&render.ProgramDescriptor{Label: "p", Module: m}); !errors.Is(err, render.ErrUnsupported) {
		t.Errorf("64 bit storage texture: err = %v, want ErrUnsupported", err)
	}
}

const computeSource = `
@group(0) @binding(0) var<storage, read_write> data: array<u32, 4>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] + 1u;
}
`

func compileCompute(t *testing.T) *shader.Module {
	t.Helper()
	m, msgs := shader.NewNaga().Compile([]shader.Source{
		{ItemID: 1, FileName: "cs.wgsl", Text: computeSource, Type: session.ComputeShader},
	})
	if m == nil {
		t.Fatalf("Compile failed: %v", msgs)
	}
	return m
}

func TestDispatch(t *testing.T) {
	d := newTestDevice(t)

	prog, err := d.CreateProgram(&render.ProgramDescriptor{Label: "cs", Module: compileCompute(t)})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	p := d.programs[prog]
	if p.compute == nil {
		t.Fatal("compute program has no pipeline")
	}
	if len(p.groups) != 1 {
		t.Errorf("bind group layouts = %d, want 1", len(p.groups))
	}

	if err := d.Dispatch(&render.DispatchCommand{Program: prog, GroupsX: 0, GroupsY: 1, GroupsZ: 1}); err != nil {
		t.Errorf("empty dispatch: %v", err)
	}
	if err := d.Dispatch(&render.DispatchCommand{Program: 999, GroupsX: 1, GroupsY: 1, GroupsZ: 1}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("unknown program: err = %v, want ErrInvalidHandle", err)
	}
	if err := d.Dispatch(&render.DispatchCommand{Program: prog, GroupsX: 1, GroupsY: 1, GroupsZ: 1}); err != nil {
		t.Errorf("dispatch with unbound buffer: %v", err)
	}

	d.DestroyProgram(prog)
	if _, ok := d.programs[prog]; ok {
		t.Error("program still registered after DestroyProgram")
	}
}

const storageSource = `
@group(0) @binding(0) var<storage, read> data: array<u32, 4>;
@group(0) @binding(1) var out: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    textureStore(out, id.xy, vec4<f32>(f32(data[id.x])));
}
`

func TestDispatchStorageTexture(t *testing.T) {
	d := newTestDevice(t)

	m, msgs := shader.NewNaga().Compile([]shader.Source{
		{ItemID: 1, FileName: "cs.wgsl", Text: storageSource, Type: session.ComputeShader},
	})
	if m == nil {
		t.Fatalf("Compile failed: %v", msgs)
	}
	prog, err := d.CreateProgram(&render.ProgramDescriptor{Label: "cs", Module: m})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	s, ok := d.programs[prog].slots[slotKey{0, 1}]
	if !ok || s.kind != slotStorage || s.format != gputypes.TextureFormatRGBA8Unorm {
		t.Fatalf("storage slot = %+v, %t", s, ok)
	}

	img := newTexture(t, d, gputypes.TextureUsageStorageBinding)
	bound := []render.BoundTexture{{Group: 0, Binding: 1, Texture: img, Storage: true}}
	if err := d.Dispatch(&render.DispatchCommand{Program: prog, GroupsX: 4, GroupsY: 4, GroupsZ: 1, Textures: bound}); err != nil {
		t.Errorf("dispatch: %v", err)
	}
	if err := d.Dispatch(&render.DispatchCommand{Program: prog, GroupsX: 1, GroupsY: 1, GroupsZ: 1}); err != nil {
		t.Errorf("dispatch with placeholders: %v", err)
	}
	level := []render.BoundTexture{{Group: 0, Binding: 1, Texture: img, Storage: true, Level: 1}}
	if err := d.Dispatch(&render.DispatchCommand{Program: prog, GroupsX: 1, GroupsY: 1, GroupsZ: 1, Textures: level}); !errors.Is(err, render.ErrUnsupported) {
		t.Errorf("level binding: err = %v, want ErrUnsupported", err)
	}
}

const sampledSource = `
@group(0) @binding(0) var tex: texture_2d<f32>;
@group(0) @binding(1) var tex_sampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos.x, pos.y, 0.0, 1.0);
    out.uv = pos;
    return out;
}

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, tex_sampler, uv);
}
`

func newTexture(t *testing.T, d *Device, usage gputypes.TextureUsage) render.Handle {
	t.Helper()
	h, err := d.CreateTexture(&render.TextureDescriptor{
		Label:     "t",
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Dimension: gputypes.TextureDimension2D,
		Size:      render.Extent{Width: 4, Height: 4, Layers: 1},
		Samples:   1,
		Usage:     usage | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
		TexelSize: 4,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return h
}

func newBuffer(t *testing.T, d *Device, usage gputypes.BufferUsage, data []byte) render.Handle {
	t.Helper()
	h, err := d.CreateBuffer(&render.BufferDescriptor{Label: "b", Size: uint64(len(data)), Usage: usage | gputypes.BufferUsageCopyDst})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := d.WriteBuffer(h, 0, data); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	return h
}

func TestDrawIndexedSampled(t *testing.T) {
	d := newTestDevice(t)

	m, msgs := shader.NewNaga().Compile([]shader.Source{
		{ItemID: 1, FileName: "vs.wgsl", Text: sampledSource, Type: session.VertexShader},
		{ItemID: 2, FileName: "vs.wgsl", Text: "", Type: session.FragmentShader},
	})
	if m == nil {
		t.Fatalf("Compile failed: %v", msgs)
	}
	prog, err := d.CreateProgram(&render.ProgramDescriptor{Label: "draw", Module: m})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if got := len(d.programs[prog].order); got != 2 {
		t.Fatalf("slots = %d, want 2", got)
	}

	target := newTexture(t, d, gputypes.TextureUsageRenderAttachment)
	sampled := newTexture(t, d, gputypes.TextureUsageTextureBinding)
	vertices := newBuffer(t, d, gputypes.BufferUsageVertex, make([]byte, 3*8))
	indices := newBuffer(t, d, gputypes.BufferUsageIndex, []byte{0, 0, 1, 0, 2, 0, 0, 0})

	cmd := render.DrawCommand{
		Program:  prog,
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Target: render.TargetState{
			Width: 4, Height: 4, Layers: 1, Samples: 1,
			Colors: []render.ColorTarget{{Texture: target, Format: gputypes.TextureFormatRGBA8Unorm}},
		},
		Vertices: []render.VertexInput{{Location: 0, Buffer: vertices, Stride: 8, DataType: session.Float32, Components: 2}},
		Textures: []render.BoundTexture{{
			Group: 0, Binding: 0, Texture: sampled,
			HasSampler: true, SamplerGroup: 0, SamplerBinding: 1,
			Sampler: render.Sampler{MinFilter: session.FilterLinear, MagFilter: session.FilterLinear, WrapX: session.WrapRepeat},
		}},
		IndexSize:     2,
		IndexBuffer:   indices,
		Count:         3,
		InstanceCount: 1,
	}
	if err := d.Draw(&cmd); err != nil {
		t.Errorf("indexed draw: %v", err)
	}

	unbound := cmd
	unbound.Textures = nil
	if err := d.Draw(&unbound); err != nil {
		t.Errorf("draw with placeholder texture: %v", err)
	}

	narrow := cmd
	narrow.IndexSize = 1
	if err := d.Draw(&narrow); !errors.Is(err, render.ErrUnsupported) {
		t.Errorf("1 byte indices: err = %v, want ErrUnsupported", err)
	}
	if err := d.Draw(&render.DrawCommand{Program: 77}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("unknown program: err = %v, want ErrInvalidHandle", err)
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		n, want4 uint64
	}{
		{0, 0}, {1, 4}, {4, 4}, {5, 8}, {127, 128},
	}
	for _, tt := range tests {
		if got := align4(tt.n); got != tt.want4 {
			t.Errorf("align4(%d) = %d, want %d", tt.n, got, tt.want4)
		}
	}
	if got := alignRow(1); got != 256 {
		t.Errorf("alignRow(1) = %d, want 256", got)
	}
	if got := alignRow(512); got != 512 {
		t.Errorf("alignRow(512) = %d, want 512", got)
	}
}

func TestUnpadRows(t *testing.T) {
	padded := []byte{1, 2, 0, 0, 3, 4, 0, 0}
	got := unpadRows(padded, 2, 4, 2)
	if want := []byte{1, 2, 3, 4}; !bytes.Equal(got, want) {
		t.Errorf("unpadRows = %v, want %v", got, want)
	}
	same := []byte{1, 2, 3, 4}
	if got := unpadRows(same, 2, 2, 2); !bytes.Equal(got, same) {
		t.Errorf("unpadRows without padding = %v, want %v", got, same)
	}
}

func TestCopyRegion(t *testing.T) {
	// 3x2 source, 2x2 destination, one byte per texel.
	src := []byte{1, 2, 3, 4, 5, 6}
	dst := make([]byte, 4)
	copyRegion(dst, src, render.Extent{Width: 2, Height: 2, Layers: 1}, render.Extent{Width: 3, Height: 2, Layers: 1},
		render.Extent{Width: 2, Height: 2, Layers: 1}, 1)
	if want := []byte{1, 2, 4, 5}; !bytes.Equal(dst, want) {
		t.Errorf("copyRegion = %v, want %v", dst, want)
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		typ        session.DataType
		components int
		normalize  bool
		want       gputypes.VertexFormat
		ok         bool
	}{
		{session.Float32, 3, false, gputypes.VertexFormatFloat32x3, true},
		{session.Float32, 1, false, gputypes.VertexFormatFloat32, true},
		{session.Uint32, 2, false, gputypes.VertexFormatUint32x2, true},
		{session.Int32, 4, false, gputypes.VertexFormatSint32x4, true},
		{session.Uint8, 4, true, gputypes.VertexFormatUnorm8x4, true},
		{session.Uint8, 4, false, 0, false},
		{session.Float64, 2, false, 0, false},
		{session.Float32, 5, false, 0, false},
	}
	for _, tt := range tests {
		got, ok := vertexFormat(tt.typ, tt.components, tt.normalize)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("vertexFormat(%v, %d, %t) = %v, %t; want %v, %t",
				tt.typ, tt.components, tt.normalize, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPipelineKey(t *testing.T) {
	a := &render.DrawCommand{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Vertices: []render.VertexInput{{Location: 0, DataType: session.Float32, Components: 3, Stride: 12}},
		Target:   render.TargetState{Colors: []render.ColorTarget{{Format: gputypes.TextureFormatRGBA8Unorm}}},
	}
	b := *a
	b.Count = 99
	if pipelineKey(a) != pipelineKey(&b) {
		t.Error("draw count changed the pipeline key")
	}
	c := *a
	c.Topology = gputypes.PrimitiveTopologyLineList
	if pipelineKey(a) == pipelineKey(&c) {
		t.Error("topology did not change the pipeline key")
	}
}

func TestLayoutEntries(t *testing.T) {
	in := &shader.Interface{
		Buffers: []shader.BufferSlot{
			{Name: "u", Group: 0, Binding: 0, Uniform: true, ReadOnly: true},
			{Name: "s", Group: 2, Binding: 1, ReadOnly: true},
		},
		Samplers: []shader.TextureSlot{
			{Name: "color", Group: 0, Binding: 1, Sampler: "color_sampler", SamplerGroup: 0, SamplerBinding: 2, Dimension: ir.Dim2D, SampleKind: shader.Float},
			{Name: "shadow", Group: 0, Binding: 3, Sampler: "color_sampler", SamplerGroup: 0, SamplerBinding: 2, Dimension: ir.DimCube, Depth: true},
			{Name: "ids", Group: 0, Binding: 4, Dimension: ir.Dim2D, Arrayed: true, SampleKind: shader.Uint},
		},
		Images: []shader.TextureSlot{
			{Name: "out", Group: 2, Binding: 0, Dimension: ir.Dim3D, StorageFormat: ir.StorageFormatR32Float, StorageAccess: ir.StorageAccessWrite},
		},
	}
	slots, err := programSlots(in)
	if err != nil {
		t.Fatalf("programSlots: %v", err)
	}
	if len(slots) != 7 {
		t.Fatalf("slots = %d, want 7 with the shared sampler once", len(slots))
	}
	groups := layoutEntries(slots, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if len(groups[1]) != 0 {
		t.Errorf("group 1 has %d entries, want 0", len(groups[1]))
	}

	byBinding := func(group, binding uint32) gputypes.BindGroupLayoutEntry {
		t.Helper()
		for _, e := range groups[group] {
			if e.Binding == binding {
				return e
			}
		}
		t.Fatalf("no entry for group %d binding %d", group, binding)
		return gputypes.BindGroupLayoutEntry{}
	}
	if got := byBinding(0, 0).Buffer.Type; got != gputypes.BufferBindingTypeUniform {
		t.Errorf("u type = %v, want uniform", got)
	}
	if got := byBinding(2, 1).Buffer.Type; got != gputypes.BufferBindingTypeReadOnlyStorage {
		t.Errorf("s type = %v, want read-only storage", got)
	}
	if e := byBinding(0, 1).Texture; e == nil || e.SampleType != gputypes.TextureSampleTypeFloat || e.ViewDimension != gputypes.TextureViewDimension2D {
		t.Errorf("color = %+v, want float 2D", e)
	}
	if e := byBinding(0, 2).Sampler; e == nil || e.Type != gputypes.SamplerBindingTypeFiltering {
		t.Errorf("color_sampler = %+v, want filtering", e)
	}
	if e := byBinding(0, 3).Texture; e == nil || e.SampleType != gputypes.TextureSampleTypeDepth || e.ViewDimension != gputypes.TextureViewDimensionCube {
		t.Errorf("shadow = %+v, want depth cube", e)
	}
	if e := byBinding(0, 4).Texture; e == nil || e.SampleType != gputypes.TextureSampleTypeUint || e.ViewDimension != gputypes.TextureViewDimension2DArray {
		t.Errorf("ids = %+v, want uint 2D array", e)
	}
	out := byBinding(2, 0)
	if e := out.StorageTexture; e == nil || e.Format != gputypes.TextureFormatR32Float ||
		e.Access != gputypes.StorageTextureAccessWriteOnly || e.ViewDimension != gputypes.TextureViewDimension3D {
		t.Errorf("out = %+v, want write-only r32float 3D", e)
	}
	if out.Visibility != gputypes.ShaderStageFragment {
		t.Errorf("out visibility = %v, want fragment", out.Visibility)
	}
}

func TestIndexFormat(t *testing.T) {
	tests := []struct {
		size int
		want gputypes.IndexFormat
		ok   bool
	}{
		{2, gputypes.IndexFormatUint16, true},
		{4, gputypes.IndexFormatUint32, true},
		{1, 0, false},
	}
	for _, tt := range tests {
		got, err := indexFormat(tt.size)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("indexFormat(%d) = %v, %v, want %v, ok %t", tt.size, got, err, tt.want, tt.ok)
		}
	}
}

func TestSamplerDescriptor(t *testing.T) {
	s := render.Sampler{
		MinFilter: session.FilterLinearMipmapLinear, MagFilter: session.FilterLinear,
		WrapX: session.WrapRepeat, WrapY: session.WrapMirroredRepeat, WrapZ: session.WrapClampToBorder,
		Compare: session.CompareLess,
	}
	got := samplerDescriptor(s, gputypes.SamplerBindingTypeFiltering)
	if got.AddressModeU != gputypes.AddressModeRepeat || got.AddressModeV != gputypes.AddressModeMirrorRepeat ||
		got.AddressModeW != gputypes.AddressModeClampToEdge {
		t.Errorf("address modes = %v %v %v", got.AddressModeU, got.AddressModeV, got.AddressModeW)
	}
	if got.MinFilter != gputypes.FilterModeLinear || got.MipmapFilter != gputypes.FilterModeLinear {
		t.Errorf("filters = %v %v, want linear", got.MinFilter, got.MipmapFilter)
	}
	if got.Compare != 0 {
		t.Errorf("filtering sampler compare = %v, want none", got.Compare)
	}
	if got := samplerDescriptor(s, gputypes.SamplerBindingTypeComparison); got.Compare != gputypes.CompareFunctionLess {
		t.Errorf("comparison sampler compare = %v, want less", got.Compare)
	}
	if got := samplerDescriptor(s, gputypes.SamplerBindingTypeNonFiltering); got.MagFilter != gputypes.FilterModeNearest {
		t.Errorf("non-filtering mag filter = %v, want nearest", got.MagFilter)
	}
}

func TestCompareFunction(t *testing.T) {
	if got := compareFunction(session.CompareNone); got != gputypes.CompareFunctionAlways {
		t.Errorf("CompareNone = %v, want always", got)
	}
	if got := compareFunction(session.CompareLess); got != gputypes.CompareFunctionLess {
		t.Errorf("CompareLess = %v, want less", got)
	}
}
