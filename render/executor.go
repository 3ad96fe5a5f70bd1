// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/script"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

type callTimer struct {
	itemID session.ItemID
	timer  Timer
}

// iteration is an active group of the queue being replayed.
type iteration struct {
	remaining int
	pass      int
}

// executor replays a queue against a fresh binding state.
type executor struct {
	env      *env
	engine   script.Engine
	compiler shader.Compiler
	eval     EvaluationType
	timers   bool

	state      *State
	used       ItemSet
	calls      []callTimer
	iterations []iteration
}

func newExecutor(e *env, engine script.Engine, compiler shader.Compiler, eval EvaluationType, timers bool) *executor {
	return &executor{
		env:      e,
		engine:   engine,
		compiler: compiler,
		eval:     eval,
		timers:   timers,
		state:    NewState(),
		used:     ItemSet{},
	}
}

func (x *executor) msgs() *message.List { return x.env.msgs }

func (x *executor) run(cmds []Command) {
	for i := 0; i < len(cmds); i++ {
		switch c := cmds[i].(type) {
		case *PushScope:
			x.state.Push()
		case *PopScope:
			x.state.Pop()
		case *SetUniform:
			x.state.Top().Uniforms[c.Name] = UniformBinding{
				ItemID: c.ItemID,
				Values: x.engine.EvaluateValues(c.Values, c.ItemID, x.msgs()),
			}
		case *SetSampler:
			x.state.Top().Samplers[c.Name] = c.Binding
		case *SetImage:
			x.state.Top().Images[c.Name] = c.Binding
		case *SetBuffer:
			b := BufferBinding{ItemID: c.ItemID, BlockID: c.BlockID, Buffer: c.Buffer, Stride: c.Stride}
			if c.BlockID != 0 {
				b.Offset = x.engine.EvaluateInt(c.Offset, c.BlockID, x.msgs())
				b.RowCount = x.engine.EvaluateInt(c.RowCount, c.BlockID, x.msgs())
			}
			x.state.Top().Buffers[c.Name] = b
		case *SetSubroutine:
			x.state.Top().Subroutines[c.Name] = c.Binding
		case *RunScript:
			x.runScript(c)
		case *ExecuteCall:
			x.executeCall(c.Call)
		case *BeginIteration:
			x.iterations = append(x.iterations, iteration{remaining: c.Count})
		case *EndIteration:
			it := &x.iterations[len(x.iterations)-1]
			it.remaining--
			if it.remaining > 0 {
				it.pass++
				i = c.Begin
			} else {
				x.iterations = x.iterations[:len(x.iterations)-1]
			}
		}
	}
}

// repeating reports whether an enclosing group is past its first pass.
func (x *executor) repeating() bool {
	for _, it := range x.iterations {
		if it.pass > 0 {
			return true
		}
	}
	return false
}

// runScript re-evaluates a script on the repeated passes of its groups.
// The first evaluation of a frame happens before the queue is replayed.
func (x *executor) runScript(c *RunScript) {
	if !shouldExecute(c.ExecuteOn, x.eval) || !x.repeating() {
		return
	}
	src, err := x.env.assets.Source(c.FileName)
	if err != nil {
		x.msgs().Add(c.ItemID, message.LoadingFileFailed, c.FileName)
		return
	}
	x.engine.EvaluateScript(src, c.FileName, x.msgs())
	x.used.Add(c.ItemID)
}

// beginTimer starts timing a call when timer queries are enabled.
func (x *executor) beginTimer(id session.ItemID) func() {
	if !x.timers {
		return func() {}
	}
	t := x.env.dev.BeginTimer()
	return func() {
		t.End()
		x.calls = append(x.calls, callTimer{itemID: id, timer: t})
	}
}
