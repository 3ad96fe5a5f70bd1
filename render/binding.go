// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"maps"

	"github.com/gogpu/gpuplay/session"
)

// UniformBinding supplies the values of a uniform.
type UniformBinding struct {
	ItemID session.ItemID
	Values []float64
}

// SamplerBinding supplies a sampled texture and its sampler state.
type SamplerBinding struct {
	ItemID  session.ItemID
	Texture *Texture
	Sampler Sampler
}

// ImageBinding supplies a storage texture.
type ImageBinding struct {
	ItemID  session.ItemID
	Texture *Texture
	Level   int
	Layer   int
	Format  session.Format
	Access  session.Access
}

// BufferBinding supplies a range of a buffer. Stride is 0 for a whole
// buffer binding.
type BufferBinding struct {
	ItemID   session.ItemID
	BlockID  session.ItemID
	Buffer   *Buffer
	Offset   int
	RowCount int
	Stride   int
}

// size returns the number of bytes the binding covers.
func (b BufferBinding) size() int {
	if b.Stride > 0 {
		return b.RowCount * b.Stride
	}
	if b.Buffer == nil {
		return 0
	}
	return max(b.Buffer.size-b.Offset, 0)
}

// SubroutineBinding selects a subroutine.
type SubroutineBinding struct {
	ItemID     session.ItemID
	Subroutine string
}

// Scope holds the bindings set within one group, keyed by binding name.
type Scope struct {
	Uniforms    map[string]UniformBinding
	Samplers    map[string]SamplerBinding
	Images      map[string]ImageBinding
	Buffers     map[string]BufferBinding
	Subroutines map[string]SubroutineBinding
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		Uniforms:    make(map[string]UniformBinding),
		Samplers:    make(map[string]SamplerBinding),
		Images:      make(map[string]ImageBinding),
		Buffers:     make(map[string]BufferBinding),
		Subroutines: make(map[string]SubroutineBinding),
	}
}

// State is the stack of binding scopes active while a queue executes. It
// starts with one scope for the bindings outside any group.
type State struct {
	scopes []*Scope
}

// NewState returns a state holding the root scope.
func NewState() *State {
	return &State{scopes: []*Scope{NewScope()}}
}

// Push opens a new innermost scope.
func (s *State) Push() { s.scopes = append(s.scopes, NewScope()) }

// Pop closes the innermost scope. The root scope is never removed.
func (s *State) Pop() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Depth returns the number of open scopes.
func (s *State) Depth() int { return len(s.scopes) }

// Top returns the innermost scope.
func (s *State) Top() *Scope { return s.scopes[len(s.scopes)-1] }

// Merge returns the effective bindings: all scopes combined from the
// outermost to the innermost, inner entries replacing outer ones.
func (s *State) Merge() *Scope {
	m := NewScope()
	for _, sc := range s.scopes {
		maps.Copy(m.Uniforms, sc.Uniforms)
		maps.Copy(m.Samplers, sc.Samplers)
		maps.Copy(m.Images, sc.Images)
		maps.Copy(m.Buffers, sc.Buffers)
		maps.Copy(m.Subroutines, sc.Subroutines)
	}
	return m
}
