// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/script"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// DefaultMaxIterations caps the iteration count of a group.
const DefaultMaxIterations = 1000

// Queue is the result of compiling an item tree: the resource wrappers
// keyed by item id and the commands replayed every frame.
type Queue struct {
	Buffers  map[session.ItemID]*Buffer
	Textures map[session.ItemID]*Texture
	Programs map[session.ItemID]*Program
	Targets  map[session.ItemID]*Target
	Streams  map[session.ItemID]*Stream

	Commands []Command

	// UsedItems holds the items referenced structurally by the compiled
	// commands.
	UsedItems ItemSet

	// Messages are the diagnostics found while compiling.
	Messages []message.Message
}

func newQueue() *Queue {
	return &Queue{
		Buffers:   make(map[session.ItemID]*Buffer),
		Textures:  make(map[session.ItemID]*Texture),
		Programs:  make(map[session.ItemID]*Program),
		Targets:   make(map[session.ItemID]*Target),
		Streams:   make(map[session.ItemID]*Stream),
		UsedItems: ItemSet{},
	}
}

// Release destroys the device objects of all wrappers in the queue.
func (q *Queue) Release(dev Device) {
	for _, b := range q.Buffers {
		b.Release(dev)
	}
	for _, t := range q.Textures {
		t.Release(dev)
	}
	for _, p := range q.Programs {
		p.Release(dev)
	}
}

// Compile turns the item tree of model into a queue. Dynamic sizes are
// evaluated with engine; shader sources and images are read from assets.
func Compile(model *session.Model, engine script.Engine, assets Assets) *Queue {
	return compile(model, engine, assets, DefaultMaxIterations)
}

type compiler struct {
	model         *session.Model
	engine        script.Engine
	assets        Assets
	maxIterations int

	q    *Queue
	msgs message.List
	used ItemSet
}

func compile(model *session.Model, engine script.Engine, assets Assets, maxIterations int) *Queue {
	c := &compiler{
		model:         model,
		engine:        engine,
		assets:        assets,
		maxIterations: maxIterations,
		q:             newQueue(),
	}
	c.used = c.q.UsedItems
	c.items(model.Root().Items)
	c.q.Messages = c.msgs.Messages()
	gpuplay.Logger().Debug("render: compiled queue",
		"commands", len(c.q.Commands), "buffers", len(c.q.Buffers),
		"textures", len(c.q.Textures), "programs", len(c.q.Programs))
	return c.q
}

// addOnce returns table[id], creating it on first reference. A nil result
// of create is not remembered.
func addOnce[T any](table map[session.ItemID]*T, id session.ItemID, create func() *T) *T {
	if v, ok := table[id]; ok {
		return v
	}
	v := create()
	if v != nil {
		table[id] = v
	}
	return v
}

func (c *compiler) emit(cmd Command) { c.q.Commands = append(c.q.Commands, cmd) }

func (c *compiler) items(items []*session.Item) {
	for _, it := range items {
		switch d := it.Data.(type) {
		case *session.Group:
			c.group(it, d)
		case *session.Binding:
			c.binding(it, d)
		case *session.Call:
			c.call(it, d)
		case *session.Script:
			c.emit(&RunScript{ItemID: it.ID, FileName: d.FileName, ExecuteOn: d.ExecuteOn})
			if d.ExecuteOn == session.EveryEvaluation {
				c.used.Add(it.ID)
			}
		}
	}
}

func (c *compiler) group(it *session.Item, g *session.Group) {
	n := 1
	if g.Iterations != "" {
		n = c.engine.EvaluateInt(g.Iterations, it.ID, &c.msgs)
	}
	if n > c.maxIterations {
		c.msgs.Add(it.ID, message.TooManyIterations, fmt.Sprintf("%d > %d", n, c.maxIterations))
		n = c.maxIterations
	}
	n = max(n, 0)

	outer := c.used
	c.used = ItemSet{}
	begin := len(c.q.Commands)
	c.emit(&BeginIteration{ItemID: it.ID, Count: n})
	if !g.InlineScope {
		c.emit(&PushScope{})
	}
	c.items(it.Items)
	if !g.InlineScope {
		c.emit(&PopScope{})
	}

	if n == 0 {
		clear(c.q.Commands[begin:])
		c.q.Commands = c.q.Commands[:begin]
	} else {
		c.emit(&EndIteration{ItemID: it.ID, Begin: begin})
		outer.Merge(c.used)
		outer.Add(it.ID)
	}
	c.used = outer
}

// addTree adds it and all of its descendants to set.
func addTree(set ItemSet, it *session.Item) {
	if it == nil {
		return
	}
	set.Add(it.ID)
	for _, child := range it.Items {
		addTree(set, child)
	}
}

func (c *compiler) buffer(id session.ItemID) *Buffer {
	return addOnce(c.q.Buffers, id, func() *Buffer {
		it := c.model.FindItem(id)
		b, ok := session.As[*session.Buffer](it)
		if !ok {
			return nil
		}
		size := b.Size
		for _, child := range it.Items {
			block, ok := session.As[*session.Block](child)
			if !ok {
				continue
			}
			offset := c.engine.EvaluateInt(block.Offset, child.ID, &c.msgs)
			rows := c.engine.EvaluateInt(block.RowCount, child.ID, &c.msgs)
			size = max(size, offset+rows*c.model.BlockStride(child.ID))
		}
		return newBuffer(id, it.Name, b.FileName, size)
	})
}

// block returns the block item id and its buffer wrapper.
func (c *compiler) block(id session.ItemID) (*session.Item, *session.Block, *Buffer) {
	it := c.model.FindItem(id)
	block, ok := session.As[*session.Block](it)
	if !ok || it.Parent == nil {
		return nil, nil, nil
	}
	return it, block, c.buffer(it.Parent.ID)
}

func (c *compiler) texture(id session.ItemID) *Texture {
	return addOnce(c.q.Textures, id, func() *Texture {
		it := c.model.FindItem(id)
		t, ok := session.As[*session.Texture](it)
		if !ok {
			return nil
		}
		desc := *t
		if desc.FileName != "" {
			img, err := c.assets.Image(desc.FileName, desc.FlipY)
			if err != nil {
				c.msgs.Add(id, message.LoadingFileFailed, desc.FileName)
			} else {
				desc.Width, desc.Height = img.Width, img.Height
			}
		}
		return newTexture(it, &desc)
	})
}

func (c *compiler) program(id session.ItemID) *Program {
	return addOnce(c.q.Programs, id, func() *Program {
		it := c.model.FindItem(id)
		if _, ok := session.As[*session.Program](it); !ok {
			return nil
		}
		var sources []shader.Source
		for _, child := range it.Items {
			s, ok := session.As[*session.Shader](child)
			if !ok {
				continue
			}
			src := shader.Source{
				ItemID:     child.ID,
				FileName:   s.FileName,
				Type:       s.Type,
				Language:   s.Language,
				EntryPoint: s.EntryPoint,
			}
			if s.FileName != "" {
				text, err := c.assets.Source(s.FileName)
				if err != nil {
					c.msgs.Add(child.ID, message.LoadingFileFailed, s.FileName)
				}
				src.Text = text
			}
			sources = append(sources, src)
		}
		return newProgram(id, it.Name, sources)
	})
}

func (c *compiler) target(id session.ItemID) *Target {
	return addOnce(c.q.Targets, id, func() *Target {
		it := c.model.FindItem(id)
		t, ok := session.As[*session.Target](it)
		if !ok {
			return nil
		}
		target := &Target{itemID: id, state: *t}
		for _, child := range it.Items {
			a, ok := session.As[*session.Attachment](child)
			if !ok {
				continue
			}
			target.attachments = append(target.attachments, attachment{
				itemID:  child.ID,
				state:   *a,
				texture: c.texture(a.TextureID),
			})
		}
		return target
	})
}

func (c *compiler) stream(id session.ItemID) *Stream {
	return addOnce(c.q.Streams, id, func() *Stream {
		it := c.model.FindItem(id)
		if _, ok := session.As[*session.Stream](it); !ok {
			return nil
		}
		s := &Stream{itemID: id}
		for _, child := range it.Items {
			a, ok := session.As[*session.Attribute](child)
			if !ok {
				continue
			}
			s.attributes = append(s.attributes, c.streamAttribute(child, a))
		}
		return s
	})
}

func (c *compiler) streamAttribute(it *session.Item, a *session.Attribute) streamAttribute {
	attr := streamAttribute{
		itemID:    it.ID,
		name:      it.Name,
		normalize: a.Normalize,
		divisor:   a.Divisor,
	}
	fieldItem := c.model.FindItem(a.FieldID)
	field, ok := session.As[*session.Field](fieldItem)
	if !ok || fieldItem.Parent == nil {
		return attr
	}
	blockItem, block, buf := c.block(fieldItem.Parent.ID)
	if block == nil || buf == nil {
		return attr
	}
	if field.Count < 1 || field.Count > 4 {
		c.msgs.Add(it.ID, message.InvalidAttribute, fmt.Sprintf("%d components", field.Count))
		return attr
	}
	attr.buffer = buf
	attr.dataType = field.DataType
	attr.components = field.Count
	attr.stride = c.model.BlockStride(blockItem.ID)
	attr.offset = c.engine.EvaluateInt(block.Offset, blockItem.ID, &c.msgs) + c.model.FieldOffset(fieldItem.ID)
	attr.rows = c.engine.EvaluateInt(block.RowCount, blockItem.ID, &c.msgs)
	return attr
}

func (c *compiler) binding(it *session.Item, b *session.Binding) {
	switch b.BindingType {
	case session.UniformBinding:
		c.emit(&SetUniform{ItemID: it.ID, Name: it.Name, Values: b.Values})

	case session.SamplerBinding:
		c.emit(&SetSampler{Name: it.Name, Binding: SamplerBinding{
			ItemID:  it.ID,
			Texture: c.texture(b.TextureID),
			Sampler: samplerOf(b),
		}})

	case session.TextureBufferBinding:
		var tex *Texture
		if buf := c.buffer(b.BufferID); buf != nil {
			tex = addOnce(c.q.Textures, it.ID, func() *Texture {
				return newBufferTexture(it.ID, it.Name, buf, b.ImageFormat)
			})
		}
		c.emit(&SetSampler{Name: it.Name, Binding: SamplerBinding{
			ItemID:  it.ID,
			Texture: tex,
			Sampler: samplerOf(b),
		}})

	case session.ImageBinding:
		c.emit(&SetImage{Name: it.Name, Binding: ImageBinding{
			ItemID:  it.ID,
			Texture: c.texture(b.TextureID),
			Level:   b.Level,
			Layer:   b.Layer,
			Format:  b.ImageFormat,
			Access:  b.Access,
		}})

	case session.BufferBinding:
		c.emit(&SetBuffer{ItemID: it.ID, Name: it.Name, Buffer: c.buffer(b.BufferID)})

	case session.BufferBlockBinding:
		cmd := &SetBuffer{ItemID: it.ID, Name: it.Name}
		if blockItem, block, buf := c.block(b.BlockID); block != nil {
			cmd.Buffer = buf
			cmd.BlockID = blockItem.ID
			cmd.Offset = block.Offset
			cmd.RowCount = block.RowCount
			cmd.Stride = c.model.BlockStride(blockItem.ID)
		}
		c.emit(cmd)

	case session.SubroutineBinding:
		c.emit(&SetSubroutine{Name: it.Name, Binding: SubroutineBinding{ItemID: it.ID, Subroutine: b.Subroutine}})
	}
}

func samplerOf(b *session.Binding) Sampler {
	return Sampler{
		MinFilter:   b.MinFilter,
		MagFilter:   b.MagFilter,
		Anisotropic: b.Anisotropic,
		WrapX:       b.WrapModeX,
		WrapY:       b.WrapModeY,
		WrapZ:       b.WrapModeZ,
		BorderColor: toColor(b.BorderColor),
		Compare:     b.ComparisonFunc,
	}
}

func (c *compiler) call(it *session.Item, d *session.Call) {
	if !d.Checked {
		return
	}
	call := &Call{itemID: it.ID, call: *d, used: ItemSet{}}
	call.used.Add(it.ID)

	if d.NeedsProgram() {
		call.program = c.program(d.ProgramID)
		addTree(call.used, c.model.FindItem(d.ProgramID))
	}
	if d.IsDraw() {
		call.target = c.target(d.TargetID)
		addTree(call.used, c.model.FindItem(d.TargetID))
		call.stream = c.stream(d.VertexStreamID)
		addTree(call.used, c.model.FindItem(d.VertexStreamID))
		if call.stream != nil {
			for _, a := range call.stream.attributes {
				if a.buffer != nil {
					call.used.Add(a.buffer.itemID)
				}
			}
		}
	}
	if d.IsIndexed() {
		call.index = c.blockRef(d.IndexBufferBlockID, call)
		if call.index != nil {
			size := call.index.elementSize
			if size != 1 && size != 2 && size != 4 {
				c.msgs.Add(call.index.itemID, message.InvalidIndexType, fmt.Sprintf("%d bytes", size))
				call.broken = true
			}
		}
	}
	if d.IsIndirect() {
		call.indirect = c.blockRef(d.IndirectBufferBlockID, call)
		if call.indirect != nil {
			want := indirectStride(d.CallType)
			if call.indirect.stride != want {
				c.msgs.Add(call.indirect.itemID, message.InvalidIndirectStride,
					fmt.Sprintf("%d/%d bytes", call.indirect.stride, want))
				call.broken = true
			}
		}
	}

	switch d.CallType {
	case session.ClearTexture, session.CopyTexture, session.SwapTextures:
		call.texture = c.texture(d.TextureID)
		call.used.Add(d.TextureID)
		if d.CallType != session.ClearTexture {
			call.fromTexture = c.texture(d.FromTextureID)
			call.used.Add(d.FromTextureID)
		}
	case session.ClearBuffer, session.CopyBuffer, session.SwapBuffers:
		call.buffer = c.buffer(d.BufferID)
		call.used.Add(d.BufferID)
		if d.CallType != session.ClearBuffer {
			call.fromBuffer = c.buffer(d.FromBufferID)
			call.used.Add(d.FromBufferID)
		}
	}

	if d.ExecuteOn == session.EveryEvaluation {
		c.used.Merge(call.used)
	}
	c.emit(&ExecuteCall{Call: call})
}

func (c *compiler) blockRef(id session.ItemID, call *Call) *blockRef {
	it, block, buf := c.block(id)
	if block == nil {
		return nil
	}
	addTree(call.used, it)
	call.used.Add(it.Parent.ID)
	ref := &blockRef{
		itemID:   it.ID,
		buffer:   buf,
		offset:   block.Offset,
		rowCount: block.RowCount,
		stride:   c.model.BlockStride(it.ID),
	}
	for _, child := range it.Items {
		if f, ok := session.As[*session.Field](child); ok {
			ref.elementSize = f.DataType.Size()
			break
		}
	}
	return ref
}

// indirectStride returns the size of one indirect argument record.
func indirectStride(t session.CallType) int {
	switch t {
	case session.ComputeIndirect:
		return 3 * 4
	case session.DrawIndexedIndirect:
		return 5 * 4
	}
	return 4 * 4
}
