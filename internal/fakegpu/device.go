// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fakegpu provides a render.Device that keeps all objects in host
// memory and records the work submitted to it.
//
// Draws and dispatches do not execute shaders; they are recorded so tests
// can inspect the resolved commands. Buffer and texture contents behave
// like on a real device: writes, copies and clears are applied and can be
// read back.
package fakegpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpuplay/render"
)

// ErrInvalidHandle is returned for handles the device did not create or
// already destroyed.
var ErrInvalidHandle = errors.New("fakegpu: invalid handle")

// Stats counts the operations performed on a Device.
type Stats struct {
	BuffersCreated    int
	BuffersDestroyed  int
	BufferWrites      int
	BytesWritten      int
	BufferReads       int
	TexturesCreated   int
	TexturesDestroyed int
	TextureWrites     int
	ProgramsCreated   int
	ProgramsDestroyed int
	Draws             int
	Dispatches        int
}

type texture struct {
	desc render.TextureDescriptor
	data []byte
}

// Device is an in-memory render.Device. It is safe for concurrent use.
type Device struct {
	// TimerDuration is reported by every timer.
	TimerDuration time.Duration

	// FailDraws makes Draw and Dispatch return an error.
	FailDraws bool

	// FailPrograms makes CreateProgram return an error.
	FailPrograms bool

	mu         sync.Mutex
	next       render.Handle
	buffers    map[render.Handle][]byte
	textures   map[render.Handle]*texture
	programs   map[render.Handle]*render.ProgramDescriptor
	draws      []render.DrawCommand
	dispatches []render.DispatchCommand
	stats      Stats
}

var _ render.Device = (*Device)(nil)

// New returns an empty device whose timers report 1ms.
func New() *Device {
	return &Device{
		TimerDuration: time.Millisecond,
		next:          1,
		buffers:       make(map[render.Handle][]byte),
		textures:      make(map[render.Handle]*texture),
		programs:      make(map[render.Handle]*render.ProgramDescriptor),
	}
}

func (d *Device) handle() render.Handle {
	h := d.next
	d.next++
	return h
}

// Stats returns the operation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the operation counters and forgets recorded work.
func (d *Device) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = Stats{}
	d.draws = nil
	d.dispatches = nil
}

// Draws returns the draw commands recorded since the last ResetStats.
func (d *Device) Draws() []render.DrawCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]render.DrawCommand(nil), d.draws...)
}

// Dispatches returns the dispatch commands recorded since the last
// ResetStats.
func (d *Device) Dispatches() []render.DispatchCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]render.DispatchCommand(nil), d.dispatches...)
}

// Live returns the number of buffers, textures and programs alive.
func (d *Device) Live() (buffers, textures, programs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers), len(d.textures), len(d.programs)
}

// BufferData returns a copy of the contents of buffer h.
func (d *Device) BufferData(h render.Handle) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[h]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// SetBufferData overwrites the start of buffer h, as a shader would.
func (d *Device) SetBufferData(h render.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[h]
	if !ok {
		return ErrInvalidHandle
	}
	copy(b, data)
	return nil
}

// TextureData returns a copy of the contents of texture h.
func (d *Device) TextureData(h render.Handle) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[h]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), t.data...), true
}

func (d *Device) CreateBuffer(desc *render.BufferDescriptor) (render.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.handle()
	d.buffers[h] = make([]byte, desc.Size)
	d.stats.BuffersCreated++
	return h, nil
}

func (d *Device) WriteBuffer(buf render.Handle, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[buf]
	if !ok {
		return ErrInvalidHandle
	}
	if offset+uint64(len(data)) > uint64(len(b)) {
		return fmt.Errorf("fakegpu: write of %d bytes at %d exceeds buffer of %d bytes", len(data), offset, len(b))
	}
	copy(b[offset:], data)
	d.stats.BufferWrites++
	d.stats.BytesWritten += len(data)
	return nil
}

func (d *Device) ReadBuffer(buf render.Handle, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[buf]
	if !ok {
		return ErrInvalidHandle
	}
	if offset > uint64(len(b)) {
		return fmt.Errorf("fakegpu: read at %d exceeds buffer of %d bytes", offset, len(b))
	}
	copy(data, b[offset:])
	d.stats.BufferReads++
	return nil
}

func (d *Device) CopyBuffer(dst, src render.Handle, size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	to, ok1 := d.buffers[dst]
	from, ok2 := d.buffers[src]
	if !ok1 || !ok2 {
		return ErrInvalidHandle
	}
	n := min(size, uint64(len(to)), uint64(len(from)))
	copy(to[:n], from[:n])
	return nil
}

func (d *Device) ClearBuffer(buf render.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[buf]
	if !ok {
		return ErrInvalidHandle
	}
	clear(b)
	return nil
}

func (d *Device) DestroyBuffer(buf render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[buf]; ok {
		delete(d.buffers, buf)
		d.stats.BuffersDestroyed++
	}
}

func (d *Device) CreateTexture(desc *render.TextureDescriptor) (render.Handle, error) {
	if desc.TexelSize == 0 {
		return 0, fmt.Errorf("fakegpu: texture %q has no texel size", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.handle()
	n := uint64(desc.Size.Width) * uint64(desc.Size.Height) * uint64(max(desc.Size.Layers, 1)) *
		uint64(max(desc.Depth, 1)) * uint64(desc.TexelSize)
	d.textures[h] = &texture{desc: *desc, data: make([]byte, n)}
	d.stats.TexturesCreated++
	return h, nil
}

func (d *Device) WriteTexture(tex render.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return ErrInvalidHandle
	}
	copy(t.data, data)
	d.stats.TextureWrites++
	return nil
}

func (d *Device) ReadTexture(tex render.Handle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return ErrInvalidHandle
	}
	copy(data, t.data)
	return nil
}

// CopyTexture copies the top-left region of size, row by row.
func (d *Device) CopyTexture(dst, src render.Handle, size render.Extent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	to, ok1 := d.textures[dst]
	from, ok2 := d.textures[src]
	if !ok1 || !ok2 {
		return ErrInvalidHandle
	}
	if to.desc.TexelSize != from.desc.TexelSize {
		return fmt.Errorf("fakegpu: texel size %d and %d differ", to.desc.TexelSize, from.desc.TexelSize)
	}
	ts := uint64(to.desc.TexelSize)
	row := uint64(size.Width) * ts
	for layer := range uint64(max(size.Layers, 1)) {
		for y := range uint64(size.Height) {
			so := (layer*uint64(from.desc.Size.Height)+y)*uint64(from.desc.Size.Width)*ts
			do := (layer*uint64(to.desc.Size.Height)+y)*uint64(to.desc.Size.Width)*ts
			copy(to.data[do:do+row], from.data[so:so+row])
		}
	}
	return nil
}

// ClearTexture fills the texture with the color converted to 8 bit
// channels. Wider formats are zeroed.
func (d *Device) ClearTexture(tex render.Handle, value render.ClearValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return ErrInvalidHandle
	}
	c := value.Color
	texel := []byte{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
	if int(t.desc.TexelSize) > len(texel) {
		clear(t.data)
		return nil
	}
	texel = texel[:t.desc.TexelSize]
	for i := 0; i+len(texel) <= len(t.data); i += len(texel) {
		copy(t.data[i:], texel)
	}
	return nil
}

func unorm8(v float64) byte {
	return byte(min(max(v, 0), 1)*255 + 0.5)
}

func (d *Device) DestroyTexture(tex render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[tex]; ok {
		delete(d.textures, tex)
		d.stats.TexturesDestroyed++
	}
}

func (d *Device) CreateProgram(desc *render.ProgramDescriptor) (render.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPrograms {
		return 0, fmt.Errorf("fakegpu: program %q rejected", desc.Label)
	}
	h := d.handle()
	p := *desc
	d.programs[h] = &p
	d.stats.ProgramsCreated++
	return h, nil
}

func (d *Device) DestroyProgram(prog render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[prog]; ok {
		delete(d.programs, prog)
		d.stats.ProgramsDestroyed++
	}
}

func (d *Device) Draw(cmd *render.DrawCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailDraws {
		return errors.New("fakegpu: draw failed")
	}
	if _, ok := d.programs[cmd.Program]; !ok {
		return ErrInvalidHandle
	}
	d.draws = append(d.draws, *cmd)
	d.stats.Draws++
	return nil
}

func (d *Device) Dispatch(cmd *render.DispatchCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailDraws {
		return errors.New("fakegpu: dispatch failed")
	}
	if _, ok := d.programs[cmd.Program]; !ok {
		return ErrInvalidHandle
	}
	d.dispatches = append(d.dispatches, *cmd)
	d.stats.Dispatches++
	return nil
}

// BeginTimer returns a timer reporting TimerDuration.
func (d *Device) BeginTimer() render.Timer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &timer{d: d.TimerDuration}
}

type timer struct {
	d     time.Duration
	ended bool
}

func (t *timer) End() { t.ended = true }

func (t *timer) Wait() time.Duration {
	if !t.ended {
		return 0
	}
	return t.d
}
