// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"slices"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

type linkState uint8

const (
	linkPending linkState = iota
	linkSucceeded
	linkFailed
)

// Program is the GPU side of a program item: its shader sources, the
// linked module and the device program created from it.
type Program struct {
	itemID  session.ItemID
	name    string
	sources []shader.Source

	state    linkState
	module   *shader.Module
	handle   Handle
	messages []message.Message

	// uniforms holds one dynamic buffer per uniform buffer slot, filled
	// from uniform bindings before each call.
	uniforms map[string]*Buffer
}

func newProgram(id session.ItemID, name string, sources []shader.Source) *Program {
	return &Program{itemID: id, name: name, sources: sources}
}

// ItemID returns the id of the program item.
func (p *Program) ItemID() session.ItemID { return p.itemID }

// Handle returns the device program, or 0 when not linked.
func (p *Program) Handle() Handle { return p.handle }

// Module returns the linked module, or nil.
func (p *Program) Module() *shader.Module { return p.module }

// Interface returns the reflected resources of the linked module, or nil.
func (p *Program) Interface() *shader.Interface {
	if p.module == nil {
		return nil
	}
	return p.module.Interface
}

// Messages returns the diagnostics of the last link.
func (p *Program) Messages() []message.Message { return p.messages }

// Equal reports whether p and o link the same sources.
func (p *Program) Equal(o *Program) bool {
	return p.itemID == o.itemID && slices.Equal(p.sources, o.sources)
}

func (p *Program) adopt(prev *Program) {
	p.state = prev.state
	p.module = prev.module
	p.handle = prev.handle
	p.messages = prev.messages
	p.uniforms = prev.uniforms
	prev.handle = 0
	prev.uniforms = nil
}

// Link compiles the sources and creates the device program. The outcome
// is remembered; later calls return it without recompiling.
func (p *Program) Link(dev Device, compiler shader.Compiler) bool {
	if p.state != linkPending {
		return p.state == linkSucceeded
	}
	p.state = linkFailed

	module, msgs := compiler.Compile(p.sources)
	p.messages = msgs
	if module == nil {
		p.messages = append(p.messages, message.ForItem(p.itemID, message.ProgramNotLinked, ""))
		return false
	}
	h, err := dev.CreateProgram(&ProgramDescriptor{Label: p.name, Module: module})
	if err != nil {
		p.messages = append(p.messages, message.ParseLog(err.Error(), p.itemID, "")...)
		p.messages = append(p.messages, message.ForItem(p.itemID, message.ProgramNotLinked, ""))
		return false
	}
	p.module = module
	p.handle = h
	p.state = linkSucceeded
	gpuplay.Logger().Debug("render: program linked", "item", p.itemID, "sources", len(p.sources))
	return true
}

// uniformBuffer returns the dynamic buffer backing the uniform slot.
func (p *Program) uniformBuffer(slot shader.BufferSlot) *Buffer {
	if p.uniforms == nil {
		p.uniforms = make(map[string]*Buffer)
	}
	b, ok := p.uniforms[slot.Name]
	if !ok {
		b = newBuffer(p.itemID, p.name+"."+slot.Name, "", int(slot.MinSize))
		p.uniforms[slot.Name] = b
	}
	return b
}

// Release destroys the device program and its uniform buffers.
func (p *Program) Release(dev Device) {
	for _, b := range p.uniforms {
		b.Release(dev)
	}
	p.uniforms = nil
	if p.handle != 0 && dev != nil {
		dev.DestroyProgram(p.handle)
	}
	p.handle = 0
}
