// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/render"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// program is a shader module with the layouts derived from its interface.
// Render pipelines depend on the draw state and are created on demand.
type program struct {
	src     *shader.Module
	module  hal.ShaderModule
	order   []slot
	slots   map[slotKey]slot
	groups  []hal.BindGroupLayout
	layout  hal.PipelineLayout
	compute hal.ComputePipeline
	render  map[string]hal.RenderPipeline
}

func (p *program) destroy(dev hal.Device) {
	for _, rp := range p.render {
		dev.DestroyRenderPipeline(rp)
	}
	if p.compute != nil {
		dev.DestroyComputePipeline(p.compute)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
	}
	for _, g := range p.groups {
		dev.DestroyBindGroupLayout(g)
	}
	if p.module != nil {
		dev.DestroyShaderModule(p.module)
	}
}

// CreateProgram creates the shader module and pipeline layout. Compute
// programs get their pipeline immediately.
func (d *Device) CreateProgram(desc *render.ProgramDescriptor) (render.Handle, error) {
	m := desc.Module
	if m == nil || m.Interface == nil {
		return 0, fmt.Errorf("halgpu: program %q has no module", desc.Label)
	}
	order, err := programSlots(m.Interface)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p := &program{src: m, order: order, slots: make(map[slotKey]slot, len(order)), render: make(map[string]hal.RenderPipeline)}
	for _, s := range order {
		p.slots[slotKey{s.group, s.binding}] = s
	}
	if err := d.buildProgram(desc.Label, p); err != nil {
		p.destroy(d.device)
		return 0, err
	}
	h := d.handle()
	d.programs[h] = p
	gpuplay.Logger().Debug("halgpu: program created", "label", desc.Label, "groups", len(p.groups))
	return h, nil
}

func (d *Device) buildProgram(label string, p *program) error {
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: p.src.WGSL},
	})
	if err != nil {
		return fmt.Errorf("halgpu: compile %q: %w", label, err)
	}
	p.module = module

	visibility := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	if p.src.IsCompute() {
		visibility = gputypes.ShaderStageCompute
	}
	for i, entries := range layoutEntries(p.order, visibility) {
		layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", label, i),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("halgpu: create bind group layout %d of %q: %w", i, label, err)
		}
		p.groups = append(p.groups, layout)
	}
	p.layout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: p.groups,
	})
	if err != nil {
		return fmt.Errorf("halgpu: create pipeline layout of %q: %w", label, err)
	}

	if !p.src.IsCompute() {
		return nil
	}
	p.compute, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label + "_pipeline",
		Layout:  p.layout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: p.src.EntryPoint(ir.StageCompute)},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create compute pipeline of %q: %w", label, err)
	}
	return nil
}

func (d *Device) DestroyProgram(prog render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[prog]; ok {
		p.destroy(d.device)
		delete(d.programs, prog)
	}
}

// drawArgs are the arguments of one draw. first is the first index of
// indexed draws.
type drawArgs struct {
	count, instances, first, baseInstance uint32
	baseVertex                            int32
}

// indexFormat maps an index size in bytes to an index format.
func indexFormat(size int) (gputypes.IndexFormat, error) {
	switch size {
	case 2:
		return gputypes.IndexFormatUint16, nil
	case 4:
		return gputypes.IndexFormatUint32, nil
	}
	return 0, fmt.Errorf("halgpu: %d byte indices: %w", size, render.ErrUnsupported)
}

// indirectDraws reads the argument records of an indirect draw. Indexed
// records are 20 bytes and carry a base vertex.
func (d *Device) indirectDraws(cmd *render.DrawCommand) ([]drawArgs, error) {
	b, err := d.lookupBuffer(cmd.IndirectBuffer)
	if err != nil {
		return nil, err
	}
	record := uint64(16)
	if cmd.Indexed() {
		record = 20
	}
	stride := max(uint64(cmd.IndirectStride), record)
	size := stride*uint64(max(cmd.DrawCount, 1)-1) + record
	if cmd.IndirectOffset+size > b.size {
		return nil, fmt.Errorf("halgpu: indirect arguments exceed buffer of %d bytes", b.size)
	}
	data, err := d.readBuffer(b.buf, cmd.IndirectOffset&^3, size)
	if err != nil {
		return nil, err
	}
	args := make([]drawArgs, 0, cmd.DrawCount)
	for i := range uint64(cmd.DrawCount) {
		rec := data[i*stride:]
		a := drawArgs{
			count:        binary.LittleEndian.Uint32(rec[0:]),
			instances:    binary.LittleEndian.Uint32(rec[4:]),
			first:        binary.LittleEndian.Uint32(rec[8:]),
			baseInstance: binary.LittleEndian.Uint32(rec[12:]),
		}
		if cmd.Indexed() {
			a.baseVertex = int32(binary.LittleEndian.Uint32(rec[12:]))
			a.baseInstance = binary.LittleEndian.Uint32(rec[16:])
		}
		args = append(args, a)
	}
	return args, nil
}

func (d *Device) Draw(cmd *render.DrawCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[cmd.Program]
	if !ok {
		return ErrInvalidHandle
	}
	var (
		indices hal.Buffer
		format  gputypes.IndexFormat
	)
	if cmd.Indexed() {
		var err error
		if format, err = indexFormat(cmd.IndexSize); err != nil {
			return err
		}
		b, err := d.lookupBuffer(cmd.IndexBuffer)
		if err != nil {
			return err
		}
		indices = b.buf
	}

	args := []drawArgs{{
		count: cmd.Count, instances: cmd.InstanceCount, first: cmd.First,
		baseInstance: cmd.BaseInstance, baseVertex: cmd.BaseVertex,
	}}
	if cmd.Indirect() {
		var err error
		if args, err = d.indirectDraws(cmd); err != nil {
			return err
		}
	}

	desc, err := d.renderPass(&cmd.Target)
	if err != nil {
		return err
	}
	pipeline, err := d.renderPipeline(p, cmd)
	if err != nil {
		return err
	}
	vertexBuffers := make([]hal.Buffer, len(cmd.Vertices))
	for i, v := range cmd.Vertices {
		b, err := d.lookupBuffer(v.Buffer)
		if err != nil {
			return err
		}
		vertexBuffers[i] = b.buf
	}
	bound, err := d.bindGroups(p, cmd.Buffers, cmd.Textures)
	if err != nil {
		return err
	}
	defer d.releaseBindings(bound)

	return d.submit("halgpu_draw", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(desc)
		rp.SetPipeline(pipeline)
		for i, bg := range bound.groups {
			rp.SetBindGroup(uint32(i), bg, nil)
		}
		for i, v := range cmd.Vertices {
			rp.SetVertexBuffer(uint32(i), vertexBuffers[i], v.Offset)
		}
		if indices != nil {
			rp.SetIndexBuffer(indices, format, cmd.IndexOffset)
		}
		for _, a := range args {
			if a.count == 0 || a.instances == 0 {
				continue
			}
			if indices != nil {
				rp.DrawIndexed(a.count, a.instances, a.first, a.baseVertex, a.baseInstance)
				continue
			}
			rp.Draw(a.count, a.instances, a.first, a.baseInstance)
		}
		rp.End()
		return nil
	})
}

// renderPass describes a pass loading and storing all attachments.
func (d *Device) renderPass(ts *render.TargetState) (*hal.RenderPassDescriptor, error) {
	desc := &hal.RenderPassDescriptor{Label: "halgpu_draw"}
	for _, c := range ts.Colors {
		t, err := d.attachmentView(c.Texture, c.Level, c.Layer)
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:    t.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		})
	}
	if ds := ts.DepthStencil; ds != nil {
		t, err := d.attachmentView(ds.Texture, ds.Level, ds.Layer)
		if err != nil {
			return nil, err
		}
		att := &hal.RenderPassDepthStencilAttachment{
			View:         t.view,
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		}
		if hasStencil(ds.Format) {
			att.StencilLoadOp = gputypes.LoadOpLoad
			att.StencilStoreOp = gputypes.StoreOpStore
		}
		desc.DepthStencilAttachment = att
	}
	return desc, nil
}

func (d *Device) attachmentView(h render.Handle, level, layer int) (*texture, error) {
	t, err := d.lookupTexture(h)
	if err != nil {
		return nil, err
	}
	if t.view == nil || level != 0 || layer != 0 {
		return nil, fmt.Errorf("halgpu: attachment level %d layer %d: %w", level, layer, render.ErrUnsupported)
	}
	return t, nil
}

// renderPipeline returns the pipeline of p for the state of cmd, creating
// it on first use.
func (d *Device) renderPipeline(p *program, cmd *render.DrawCommand) (hal.RenderPipeline, error) {
	key := pipelineKey(cmd)
	if rp, ok := p.render[key]; ok {
		return rp, nil
	}

	layouts := make([]gputypes.VertexBufferLayout, 0, len(cmd.Vertices))
	for _, v := range cmd.Vertices {
		format, ok := vertexFormat(v.DataType, v.Components, v.Normalize)
		if !ok {
			return nil, fmt.Errorf("halgpu: vertex format %v x%d: %w", v.DataType, v.Components, render.ErrUnsupported)
		}
		step := gputypes.VertexStepModeVertex
		if v.Divisor > 0 {
			step = gputypes.VertexStepModeInstance
		}
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(v.Stride),
			StepMode:    step,
			Attributes:  []gputypes.VertexAttribute{{Format: format, Offset: 0, ShaderLocation: v.Location}},
		})
	}

	targets := make([]gputypes.ColorTargetState, 0, len(cmd.Target.Colors))
	for _, c := range cmd.Target.Colors {
		mask := gputypes.ColorWriteMask(c.WriteMask)
		if c.WriteMask == 0 {
			mask = gputypes.ColorWriteMaskAll
		}
		targets = append(targets, gputypes.ColorTargetState{Format: c.Format, WriteMask: mask})
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  "halgpu_render_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: p.src.EntryPoint(ir.StageVertex),
			Buffers:    layouts,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  cmd.Topology,
			FrontFace: cmd.Target.FrontFace,
			CullMode:  cmd.Target.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: max(cmd.Target.Samples, 1),
			Mask:  0xFFFFFFFF,
		},
	}
	if cmd.Indexed() && (cmd.Topology == gputypes.PrimitiveTopologyLineStrip || cmd.Topology == gputypes.PrimitiveTopologyTriangleStrip) {
		format, err := indexFormat(cmd.IndexSize)
		if err != nil {
			return nil, err
		}
		desc.Primitive.StripIndexFormat = &format
	}
	if entry := p.src.EntryPoint(ir.StageFragment); entry != "" {
		desc.Fragment = &hal.FragmentState{Module: p.module, EntryPoint: entry, Targets: targets}
	}
	if ds := cmd.Target.DepthStencil; ds != nil {
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            ds.Format,
			DepthWriteEnabled: ds.DepthWrite,
			DepthCompare:      compareFunction(ds.Compare),
			StencilFront:      keepStencil(),
			StencilBack:       keepStencil(),
		}
	}

	rp, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("halgpu: create render pipeline: %w", err)
	}
	p.render[key] = rp
	return rp, nil
}

func keepStencil() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

// pipelineKey identifies the draw state a render pipeline is built for.
func pipelineKey(cmd *render.DrawCommand) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v/%v/%v/%d/i%d", cmd.Topology, cmd.Target.FrontFace, cmd.Target.CullMode, cmd.Target.Samples, cmd.IndexSize)
	for _, v := range cmd.Vertices {
		fmt.Fprintf(&sb, "|v%d:%v:%d:%t:%d:%t", v.Location, v.DataType, v.Components, v.Normalize, v.Stride, v.Divisor > 0)
	}
	for _, c := range cmd.Target.Colors {
		fmt.Fprintf(&sb, "|c%v:%d", c.Format, c.WriteMask)
	}
	if ds := cmd.Target.DepthStencil; ds != nil {
		fmt.Fprintf(&sb, "|d%v:%v:%t", ds.Format, ds.Compare, ds.DepthWrite)
	}
	return sb.String()
}

var (
	floatFormats = []gputypes.VertexFormat{gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4}
	uintFormats = []gputypes.VertexFormat{gputypes.VertexFormatUint32, gputypes.VertexFormatUint32x2,
		gputypes.VertexFormatUint32x3, gputypes.VertexFormatUint32x4}
	sintFormats = []gputypes.VertexFormat{gputypes.VertexFormatSint32, gputypes.VertexFormatSint32x2,
		gputypes.VertexFormatSint32x3, gputypes.VertexFormatSint32x4}
)

// vertexFormat maps a field type to a vertex format. Only 32 bit types
// and normalized 8 bit vectors have one.
func vertexFormat(t session.DataType, components int, normalize bool) (gputypes.VertexFormat, bool) {
	if components < 1 || components > 4 {
		return 0, false
	}
	switch t {
	case session.Float32:
		return floatFormats[components-1], true
	case session.Uint32:
		return uintFormats[components-1], true
	case session.Int32:
		return sintFormats[components-1], true
	case session.Uint8:
		if !normalize {
			return 0, false
		}
		switch components {
		case 2:
			return gputypes.VertexFormatUnorm8x2, true
		case 4:
			return gputypes.VertexFormatUnorm8x4, true
		}
	}
	return 0, false
}

var compareFunctions = [...]gputypes.CompareFunction{
	session.CompareNone:         gputypes.CompareFunctionAlways,
	session.CompareNever:        gputypes.CompareFunctionNever,
	session.CompareLess:         gputypes.CompareFunctionLess,
	session.CompareEqual:        gputypes.CompareFunctionEqual,
	session.CompareLessEqual:    gputypes.CompareFunctionLessEqual,
	session.CompareGreater:      gputypes.CompareFunctionGreater,
	session.CompareNotEqual:     gputypes.CompareFunctionNotEqual,
	session.CompareGreaterEqual: gputypes.CompareFunctionGreaterEqual,
	session.CompareAlways:       gputypes.CompareFunctionAlways,
}

func compareFunction(c session.ComparisonFunc) gputypes.CompareFunction {
	if int(c) < len(compareFunctions) {
		return compareFunctions[c]
	}
	return gputypes.CompareFunctionAlways
}

func (d *Device) Dispatch(cmd *render.DispatchCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[cmd.Program]
	if !ok {
		return ErrInvalidHandle
	}
	if p.compute == nil {
		return fmt.Errorf("halgpu: dispatch of a program without compute stage")
	}
	groups := [3]uint32{cmd.GroupsX, cmd.GroupsY, cmd.GroupsZ}
	if cmd.IndirectBuffer != 0 {
		b, err := d.lookupBuffer(cmd.IndirectBuffer)
		if err != nil {
			return err
		}
		data, err := d.readBuffer(b.buf, cmd.IndirectOffset&^3, 12)
		if err != nil {
			return err
		}
		for i := range groups {
			groups[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	if slices.Contains(groups[:], 0) {
		return nil
	}

	bound, err := d.bindGroups(p, cmd.Buffers, cmd.Textures)
	if err != nil {
		return err
	}
	defer d.releaseBindings(bound)

	return d.submit("halgpu_dispatch", func(enc hal.CommandEncoder) error {
		pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "halgpu_dispatch"})
		pass.SetPipeline(p.compute)
		for i, bg := range bound.groups {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
		pass.Dispatch(groups[0], groups[1], groups[2])
		pass.End()
		return nil
	})
}
