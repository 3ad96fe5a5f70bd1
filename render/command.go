// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/session"
)

// Command is one replayable step of a compiled queue. The set of commands
// is closed; the executor switches over the concrete types.
type Command interface {
	command()
}

// PushScope opens the binding scope of a group.
type PushScope struct{}

// PopScope closes the binding scope of a group.
type PopScope struct{}

// SetUniform binds the values of a uniform. Values are expressions
// evaluated each time the command runs.
type SetUniform struct {
	ItemID session.ItemID
	Name   string
	Values []string
}

// SetSampler binds a sampled texture.
type SetSampler struct {
	Name    string
	Binding SamplerBinding
}

// SetImage binds a storage texture.
type SetImage struct {
	Name    string
	Binding ImageBinding
}

// SetBuffer binds a buffer or a block of it. Offset and RowCount are
// expressions of the block, evaluated each time the command runs.
type SetBuffer struct {
	ItemID   session.ItemID
	Name     string
	Buffer   *Buffer
	BlockID  session.ItemID
	Offset   string
	RowCount string
	Stride   int
}

// SetSubroutine selects a subroutine.
type SetSubroutine struct {
	Name    string
	Binding SubroutineBinding
}

// RunScript evaluates a script file.
type RunScript struct {
	ItemID    session.ItemID
	FileName  string
	ExecuteOn session.ExecuteOn
}

// ExecuteCall performs a call.
type ExecuteCall struct {
	Call *Call
}

// BeginIteration marks the start of a group executed Count times.
type BeginIteration struct {
	ItemID session.ItemID
	Count  int
}

// EndIteration marks the end of the group opened by the BeginIteration at
// index Begin of the queue.
type EndIteration struct {
	ItemID session.ItemID
	Begin  int
}

func (*PushScope) command()      {}
func (*PopScope) command()       {}
func (*SetUniform) command()     {}
func (*SetSampler) command()     {}
func (*SetImage) command()       {}
func (*SetBuffer) command()      {}
func (*SetSubroutine) command()  {}
func (*RunScript) command()      {}
func (*ExecuteCall) command()    {}
func (*BeginIteration) command() {}
func (*EndIteration) command()   {}
