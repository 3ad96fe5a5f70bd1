// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// blockRef is a block of a buffer used as index or indirect argument data.
type blockRef struct {
	itemID      session.ItemID
	buffer      *Buffer
	offset      string
	rowCount    string
	stride      int
	elementSize int
}

// Call is a compiled call item with its operands resolved to wrappers.
type Call struct {
	itemID session.ItemID
	call   session.Call

	program  *Program
	target   *Target
	stream   *Stream
	index    *blockRef
	indirect *blockRef

	texture     *Texture
	fromTexture *Texture
	buffer      *Buffer
	fromBuffer  *Buffer

	// broken is set when compiling found the call cannot execute.
	broken bool
	// used holds the items the call references structurally.
	used ItemSet
}

// ItemID returns the id of the call item.
func (c *Call) ItemID() session.ItemID { return c.itemID }

// Type returns the kind of the call.
func (c *Call) Type() session.CallType { return c.call.CallType }

// shouldExecute reports whether a call or script with policy on runs in
// an evaluation of type t.
func shouldExecute(on session.ExecuteOn, t EvaluationType) bool {
	switch on {
	case session.ManualEvaluation:
		return t == Manual || t == Reset
	case session.ResetEvaluation:
		return t == Reset
	}
	return true
}

func (x *executor) executeCall(c *Call) {
	d := &c.call
	if !shouldExecute(d.ExecuteOn, x.eval) || c.broken {
		return
	}
	msgs := x.msgs()
	switch {
	case d.NeedsProgram() && c.program == nil:
		msgs.Add(c.itemID, message.ProgramNotAssigned, "")
		return
	case d.IsDraw() && c.target == nil:
		msgs.Add(c.itemID, message.TargetNotAssigned, "")
		return
	case d.IsIndexed() && (c.index == nil || c.index.buffer == nil):
		msgs.Add(c.itemID, message.IndexBufferNotAssigned, "")
		return
	case d.IsIndirect() && (c.indirect == nil || c.indirect.buffer == nil):
		msgs.Add(c.itemID, message.IndirectBufferNotAssigned, "")
		return
	}

	var executed bool
	switch d.CallType {
	case session.Draw, session.DrawIndexed, session.DrawIndirect, session.DrawIndexedIndirect:
		executed = x.draw(c)
	case session.Compute, session.ComputeIndirect:
		executed = x.compute(c)
	case session.ClearTexture:
		executed = x.clearTexture(c)
	case session.ClearBuffer:
		executed = x.clearBuffer(c)
	case session.CopyTexture:
		executed = x.copyTexture(c)
	case session.CopyBuffer:
		executed = x.copyBuffer(c)
	case session.SwapTextures:
		executed = x.swapTextures(c)
	case session.SwapBuffers:
		executed = x.swapBuffers(c)
	}
	if executed {
		x.used.Merge(c.used)
	}
}

func (x *executor) fail(c *Call, t message.Type, err error) {
	if err != nil {
		x.msgs().Add(c.itemID, t, err.Error())
	}
}

// resources are the shader resources bound for one call.
type resources struct {
	buffers    []BoundBuffer
	textures   []BoundTexture
	renderable bool
}

func (x *executor) draw(c *Call) bool {
	if !c.program.Link(x.env.dev, x.compiler) {
		return false
	}
	d := &c.call
	in := c.program.Interface()
	r := x.bind(c, in, x.state.Merge())
	cmd := &DrawCommand{
		Program:  c.program.handle,
		Topology: topology(d.PrimitiveType),
		Buffers:  r.buffers,
		Textures: r.textures,
	}

	for _, attr := range in.Attributes {
		var sa streamAttribute
		ok := false
		if c.stream != nil {
			sa, ok = c.stream.attribute(attr.Name)
		}
		if !ok || sa.buffer == nil {
			x.msgs().Add(c.itemID, message.AttributeNotSet, attr.Name)
			r.renderable = false
			continue
		}
		h := sa.buffer.ReadOnlyHandle(x.env)
		if h == 0 {
			r.renderable = false
			continue
		}
		cmd.Vertices = append(cmd.Vertices, VertexInput{
			Location:   attr.Location,
			Buffer:     h,
			Offset:     uint64(max(sa.offset, 0)),
			Stride:     uint32(sa.stride),
			DataType:   sa.dataType,
			Components: sa.components,
			Normalize:  sa.normalize,
			Divisor:    sa.divisor,
		})
		x.used.Add(sa.itemID)
	}

	if ok, reason := c.target.Validate(); !ok {
		x.msgs().Add(c.target.itemID, message.CreatingFramebufferFailed, reason)
		return true
	}
	if !r.renderable {
		return true
	}
	target, ok := c.target.bind(x.env)
	if !ok {
		return true
	}
	cmd.Target = target

	if d.IsIndirect() {
		return x.drawIndirect(c, cmd)
	}

	first := x.engine.EvaluateUInt(d.First, c.itemID, x.msgs())
	maxCount := -1
	if c.index != nil {
		rows := x.engine.EvaluateInt(c.index.rowCount, c.index.itemID, x.msgs())
		maxCount = rows * (c.index.stride / c.index.elementSize)
		if !x.bindIndices(c, cmd) {
			return true
		}
	} else if c.stream != nil {
		maxCount = c.stream.MaxElementCount()
	}

	count := 0
	if d.Count != "" {
		count = int(x.engine.EvaluateUInt(d.Count, c.itemID, x.msgs()))
	} else if maxCount >= 0 {
		count = max(maxCount-int(first), 0)
	}
	if count == 0 {
		return true
	}
	if maxCount >= 0 && int(first)+count > maxCount {
		text := fmt.Sprintf("%d > %d", count, maxCount)
		if first > 0 {
			text = fmt.Sprintf("%d + %d > %d", first, count, maxCount)
		}
		x.msgs().Add(c.itemID, message.CountExceeded, text)
		return true
	}

	cmd.First = first
	cmd.Count = uint32(count)
	cmd.InstanceCount = x.countOrOne(d.InstanceCount, c.itemID)
	cmd.BaseVertex = int32(x.engine.EvaluateInt(d.BaseVertex, c.itemID, x.msgs()))
	cmd.BaseInstance = x.engine.EvaluateUInt(d.BaseInstance, c.itemID, x.msgs())
	if cmd.InstanceCount == 0 {
		return true
	}

	done := x.beginTimer(c.itemID)
	err := x.env.dev.Draw(cmd)
	done()
	x.fail(c, message.CallFailed, err)
	return true
}

func (x *executor) bindIndices(c *Call, cmd *DrawCommand) bool {
	h := c.index.buffer.ReadOnlyHandle(x.env)
	if h == 0 {
		return false
	}
	cmd.IndexSize = c.index.elementSize
	cmd.IndexBuffer = h
	cmd.IndexOffset = uint64(max(x.engine.EvaluateInt(c.index.offset, c.index.itemID, x.msgs()), 0))
	return true
}

func (x *executor) drawIndirect(c *Call, cmd *DrawCommand) bool {
	if c.index != nil && !x.bindIndices(c, cmd) {
		return true
	}
	h := c.indirect.buffer.ReadOnlyHandle(x.env)
	if h == 0 {
		return true
	}
	cmd.IndirectBuffer = h
	cmd.IndirectOffset = uint64(max(x.engine.EvaluateInt(c.indirect.offset, c.indirect.itemID, x.msgs()), 0))
	cmd.IndirectStride = uint32(c.indirect.stride)
	cmd.DrawCount = x.countOrOne(c.call.DrawCount, c.itemID)
	if cmd.DrawCount == 0 {
		return true
	}
	done := x.beginTimer(c.itemID)
	err := x.env.dev.Draw(cmd)
	done()
	x.fail(c, message.CallFailed, err)
	return true
}

// countOrOne evaluates expr, which defaults to 1 when empty.
func (x *executor) countOrOne(expr string, id session.ItemID) uint32 {
	if expr == "" {
		return 1
	}
	return x.engine.EvaluateUInt(expr, id, x.msgs())
}

func (x *executor) compute(c *Call) bool {
	if !c.program.Link(x.env.dev, x.compiler) {
		return false
	}
	d := &c.call
	r := x.bind(c, c.program.Interface(), x.state.Merge())
	if !r.renderable {
		return true
	}
	cmd := &DispatchCommand{
		Program:  c.program.handle,
		Buffers:  r.buffers,
		Textures: r.textures,
	}
	if d.IsIndirect() {
		h := c.indirect.buffer.ReadOnlyHandle(x.env)
		if h == 0 {
			return true
		}
		cmd.IndirectBuffer = h
		cmd.IndirectOffset = uint64(max(x.engine.EvaluateInt(c.indirect.offset, c.indirect.itemID, x.msgs()), 0))
	} else {
		cmd.GroupsX = x.countOrOne(d.WorkGroupsX, c.itemID)
		cmd.GroupsY = x.countOrOne(d.WorkGroupsY, c.itemID)
		cmd.GroupsZ = x.countOrOne(d.WorkGroupsZ, c.itemID)
		if cmd.GroupsX == 0 || cmd.GroupsY == 0 || cmd.GroupsZ == 0 {
			return true
		}
	}
	done := x.beginTimer(c.itemID)
	err := x.env.dev.Dispatch(cmd)
	done()
	x.fail(c, message.CallFailed, err)
	return true
}

// bind resolves every resource slot of the program against the effective
// bindings. Slots without a binding are reported and left unbound; the
// device decides what an unbound slot reads. Bindings that are set but
// unusable clear renderable.
func (x *executor) bind(c *Call, in *shader.Interface, bindings *Scope) resources {
	r := resources{renderable: true}
	msgs := x.msgs()

	for _, slot := range in.Buffers {
		if b, ok := bindings.Buffers[slot.Name]; ok {
			x.bindBuffer(slot, b, &r)
			continue
		}
		if slot.Uniform && x.bindUniforms(c, in, slot, bindings, &r) {
			continue
		}
		msgs.Add(c.itemID, message.BufferNotSet, slot.Name)
	}

	for _, slot := range in.Samplers {
		b, ok := bindings.Samplers[slot.Name]
		if !ok {
			msgs.Add(c.itemID, message.SamplerNotSet, slot.Name)
			continue
		}
		if b.Texture == nil {
			msgs.Add(b.ItemID, message.TextureNotAssigned, "")
			r.renderable = false
			continue
		}
		h := b.Texture.ReadOnlyHandle(x.env)
		if h == 0 {
			r.renderable = false
			continue
		}
		r.textures = append(r.textures, BoundTexture{
			Group:          slot.Group,
			Binding:        slot.Binding,
			Texture:        h,
			Format:         TextureFormat(b.Texture.format),
			HasSampler:     slot.Sampler != "",
			SamplerGroup:   slot.SamplerGroup,
			SamplerBinding: slot.SamplerBinding,
			Sampler:        b.Sampler,
		})
		x.used.Add(b.ItemID, b.Texture.itemID)
	}

	for _, slot := range in.Images {
		b, ok := bindings.Images[slot.Name]
		if !ok {
			msgs.Add(c.itemID, message.ImageNotSet, slot.Name)
			continue
		}
		if b.Texture == nil {
			msgs.Add(b.ItemID, message.TextureNotAssigned, "")
			r.renderable = false
			continue
		}
		format := b.Format
		if format == session.FormatNone {
			format = b.Texture.format
		}
		if !storageFormat(format) {
			msgs.Add(b.ItemID, message.ImageFormatNotBindable, format.String())
			r.renderable = false
			continue
		}
		var h Handle
		if b.Access == session.ReadOnly {
			h = b.Texture.ReadOnlyHandle(x.env)
		} else {
			h = b.Texture.ReadWriteHandle(x.env)
		}
		if h == 0 {
			r.renderable = false
			continue
		}
		r.textures = append(r.textures, BoundTexture{
			Group:   slot.Group,
			Binding: slot.Binding,
			Texture: h,
			Storage: true,
			Format:  TextureFormat(format),
			Level:   b.Level,
			Layer:   b.Layer,
		})
		x.used.Add(b.ItemID, b.Texture.itemID)
	}

	for _, b := range bindings.Subroutines {
		msgs.Add(b.ItemID, message.SubroutinesNotAvailable, b.Subroutine)
	}
	return r
}

func (x *executor) bindBuffer(slot shader.BufferSlot, b BufferBinding, r *resources) {
	if b.Buffer == nil {
		x.msgs().Add(b.ItemID, message.BufferNotAssigned, "")
		r.renderable = false
		return
	}
	size := b.size()
	if size < int(slot.MinSize) {
		x.msgs().Add(b.ItemID, message.UniformComponentMismatch,
			fmt.Sprintf("(%d bytes < %d bytes)", size, slot.MinSize))
		r.renderable = false
		return
	}
	var h Handle
	if slot.ReadOnly {
		h = b.Buffer.ReadOnlyHandle(x.env)
	} else {
		h = b.Buffer.ReadWriteHandle(x.env)
	}
	if h == 0 {
		r.renderable = false
		return
	}
	r.buffers = append(r.buffers, BoundBuffer{
		Group:    slot.Group,
		Binding:  slot.Binding,
		Buffer:   h,
		Offset:   uint64(max(b.Offset, 0)),
		Size:     uint64(size),
		Uniform:  slot.Uniform,
		ReadOnly: slot.ReadOnly,
	})
	x.used.Add(b.ItemID, b.BlockID, b.Buffer.itemID)
}

// bindUniforms fills the program's dynamic buffer for slot from uniform
// bindings. It reports false when no member of the buffer was set.
func (x *executor) bindUniforms(c *Call, in *shader.Interface, slot shader.BufferSlot, bindings *Scope, r *resources) bool {
	buf := c.program.uniformBuffer(slot)
	data := make([]byte, buf.size)
	copy(data, buf.Data())

	set := false
	var missing []string
	for _, u := range in.Uniforms {
		if u.Buffer != slot.Name {
			continue
		}
		if id, ok := writeUniform(data, u, bindings.Uniforms); ok {
			x.used.Add(id)
			set = true
		} else {
			missing = append(missing, u.Name)
		}
	}
	if !set {
		return false
	}
	for _, name := range missing {
		x.msgs().Add(c.itemID, message.UniformNotSet, name)
	}

	if !bytes.Equal(data, buf.Data()) {
		copy(buf.WritableData(), data)
	}
	h := buf.ReadOnlyHandle(x.env)
	if h == 0 {
		r.renderable = false
		return true
	}
	r.buffers = append(r.buffers, BoundBuffer{
		Group:    slot.Group,
		Binding:  slot.Binding,
		Buffer:   h,
		Size:     uint64(buf.size),
		Uniform:  true,
		ReadOnly: true,
	})
	return true
}

// lookupUniform finds the binding supplying name. A binding of an array
// supplies its elements: for "a[2]" a binding of "a" is used starting at
// element 2.
func lookupUniform(name string, arraySize int, uniforms map[string]UniformBinding) (UniformBinding, int, bool) {
	if b, ok := uniforms[name]; ok {
		return b, 0, true
	}
	base, index, ok := splitIndex(name)
	if !ok {
		return UniformBinding{}, 0, false
	}
	b, outer, ok := lookupUniform(base, 0, uniforms)
	if !ok {
		return UniformBinding{}, 0, false
	}
	return b, outer*max(arraySize, 1) + index, true
}

// splitIndex splits "name[3]" into "name" and 3.
func splitIndex(name string) (string, int, bool) {
	if !strings.HasSuffix(name, "]") {
		return "", 0, false
	}
	open := strings.LastIndexByte(name, '[')
	if open <= 0 {
		return "", 0, false
	}
	index, err := strconv.Atoi(name[open+1 : len(name)-1])
	if err != nil || index < 0 {
		return "", 0, false
	}
	return name[:open], index, true
}

// writeUniform stores the values bound to u at its offset in data.
func writeUniform(data []byte, u shader.Uniform, uniforms map[string]UniformBinding) (session.ItemID, bool) {
	b, index, ok := lookupUniform(u.Name, u.ArraySize, uniforms)
	if !ok {
		return 0, false
	}
	count := u.Components * max(u.Columns, 1)
	start := index * count
	if start >= len(b.Values) {
		return 0, false
	}
	values := b.Values[start:min(start+count, len(b.Values))]
	for i, v := range values {
		off := int(u.Offset)
		if u.Columns > 0 {
			off += (i/u.Components)*int(u.ColumnStride()) + (i%u.Components)*4
		} else {
			off += i * 4
		}
		if off+4 > len(data) {
			break
		}
		binary.LittleEndian.PutUint32(data[off:], scalarBits(u.Scalar, v))
	}
	return b.ItemID, true
}

func scalarBits(k shader.ScalarKind, v float64) uint32 {
	switch k {
	case shader.Sint:
		return uint32(int32(v))
	case shader.Uint:
		return uint32(max(v, 0))
	case shader.Bool:
		if v != 0 {
			return 1
		}
		return 0
	}
	return math.Float32bits(float32(v))
}

func (x *executor) clearTexture(c *Call) bool {
	if c.texture == nil {
		x.msgs().Add(c.itemID, message.TextureNotAssigned, "")
		return false
	}
	d := &c.call
	color := d.ClearColor
	if f := c.texture.format; f.SampleType() == session.SampleFloat && f.IsSRGB() {
		for i := range 3 {
			color[i] = srgbToLinear(color[i])
		}
	}
	value := ClearValue{Color: toColor(color), Depth: d.ClearDepth, Stencil: uint32(max(d.ClearStencil, 0))}
	done := x.beginTimer(c.itemID)
	err := c.texture.Clear(x.env, value)
	done()
	x.fail(c, message.ClearingTextureFailed, err)
	return true
}

func (x *executor) clearBuffer(c *Call) bool {
	if c.buffer == nil {
		x.msgs().Add(c.itemID, message.BufferNotAssigned, "")
		return false
	}
	done := x.beginTimer(c.itemID)
	err := c.buffer.Clear(x.env)
	done()
	x.fail(c, message.CallFailed, err)
	return true
}

func (x *executor) copyTexture(c *Call) bool {
	if c.texture == nil || c.fromTexture == nil {
		x.msgs().Add(c.itemID, message.TextureNotAssigned, "")
		return false
	}
	done := x.beginTimer(c.itemID)
	err := c.texture.CopyFrom(x.env, c.fromTexture)
	done()
	x.fail(c, message.CopyingTextureFailed, err)
	return true
}

func (x *executor) copyBuffer(c *Call) bool {
	if c.buffer == nil || c.fromBuffer == nil {
		x.msgs().Add(c.itemID, message.BufferNotAssigned, "")
		return false
	}
	done := x.beginTimer(c.itemID)
	err := c.buffer.CopyFrom(x.env, c.fromBuffer)
	done()
	x.fail(c, message.CallFailed, err)
	return true
}

func (x *executor) swapTextures(c *Call) bool {
	if c.texture == nil || c.fromTexture == nil {
		x.msgs().Add(c.itemID, message.TextureNotAssigned, "")
		return false
	}
	if !c.texture.Swap(c.fromTexture) {
		x.msgs().Add(c.itemID, message.SwappingTexturesFailed, "")
	}
	return true
}

func (x *executor) swapBuffers(c *Call) bool {
	if c.buffer == nil || c.fromBuffer == nil {
		x.msgs().Add(c.itemID, message.BufferNotAssigned, "")
		return false
	}
	if !c.buffer.Swap(c.fromBuffer) {
		x.msgs().Add(c.itemID, message.SwappingBuffersFailed, "")
	}
	return true
}
