// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/gogpu/gpuplay/asset"
	"github.com/gogpu/gpuplay/script"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

func TestShouldExecute(t *testing.T) {
	tests := []struct {
		on   session.ExecuteOn
		eval EvaluationType
		want bool
	}{
		{session.EveryEvaluation, Steady, true},
		{session.EveryEvaluation, Reset, true},
		{session.ManualEvaluation, Steady, false},
		{session.ManualEvaluation, Automatic, false},
		{session.ManualEvaluation, Manual, true},
		{session.ManualEvaluation, Reset, true},
		{session.ResetEvaluation, Manual, false},
		{session.ResetEvaluation, Reset, true},
	}
	for _, tt := range tests {
		if got := shouldExecute(tt.on, tt.eval); got != tt.want {
			t.Errorf("shouldExecute(%v, %v) = %t, want %t", tt.on, tt.eval, got, tt.want)
		}
	}
}

func TestSplitIndex(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		index int
		ok    bool
	}{
		{"lights[3]", "lights", 3, true},
		{"m[1][2]", "m[1]", 2, true},
		{"plain", "", 0, false},
		{"[2]", "", 0, false},
		{"a[x]", "", 0, false},
		{"a[-1]", "", 0, false},
	}
	for _, tt := range tests {
		base, index, ok := splitIndex(tt.name)
		if base != tt.base || index != tt.index || ok != tt.ok {
			t.Errorf("splitIndex(%q) = %q, %d, %t; want %q, %d, %t",
				tt.name, base, index, ok, tt.base, tt.index, tt.ok)
		}
	}
}

func floatAt(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func TestWriteUniform(t *testing.T) {
	uniforms := map[string]UniformBinding{
		"color":  {ItemID: 1, Values: []float64{0.25, 0.5, 0.75, 1}},
		"lights": {ItemID: 2, Values: []float64{10, 20, 30}},
		"count":  {ItemID: 3, Values: []float64{-2.7}},
		"normal": {ItemID: 4, Values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}},
	}

	t.Run("vector", func(t *testing.T) {
		data := make([]byte, 16)
		id, ok := writeUniform(data, shader.Uniform{Name: "color", Scalar: shader.Float, Components: 4}, uniforms)
		if !ok || id != 1 {
			t.Fatalf("writeUniform = %d, %t; want 1, true", id, ok)
		}
		for i, want := range []float32{0.25, 0.5, 0.75, 1} {
			if got := floatAt(data, i*4); got != want {
				t.Errorf("component %d = %v, want %v", i, got, want)
			}
		}
	})

	t.Run("array element", func(t *testing.T) {
		data := make([]byte, 32)
		u := shader.Uniform{Name: "lights[2]", Offset: 16, Scalar: shader.Float, Components: 1, ArraySize: 3}
		id, ok := writeUniform(data, u, uniforms)
		if !ok || id != 2 {
			t.Fatalf("writeUniform = %d, %t; want 2, true", id, ok)
		}
		if got := floatAt(data, 16); got != 30 {
			t.Errorf("lights[2] = %v, want 30", got)
		}
	})

	t.Run("element past the values", func(t *testing.T) {
		u := shader.Uniform{Name: "lights[3]", Scalar: shader.Float, Components: 1, ArraySize: 4}
		if _, ok := writeUniform(make([]byte, 16), u, uniforms); ok {
			t.Error("writeUniform succeeded without values")
		}
	})

	t.Run("signed integer", func(t *testing.T) {
		data := make([]byte, 4)
		if _, ok := writeUniform(data, shader.Uniform{Name: "count", Scalar: shader.Sint, Components: 1}, uniforms); !ok {
			t.Fatal("writeUniform failed")
		}
		if got := int32(binary.LittleEndian.Uint32(data)); got != -2 {
			t.Errorf("count = %d, want -2", got)
		}
	})

	t.Run("mat3 columns are padded", func(t *testing.T) {
		data := make([]byte, 48)
		u := shader.Uniform{Name: "normal", Scalar: shader.Float, Components: 3, Columns: 3}
		if _, ok := writeUniform(data, u, uniforms); !ok {
			t.Fatal("writeUniform failed")
		}
		if got := floatAt(data, 16); got != 4 {
			t.Errorf("column 1 row 0 = %v, want 4", got)
		}
		if got := floatAt(data, 12); got != 0 {
			t.Errorf("padding = %v, want 0", got)
		}
		if got := floatAt(data, 40); got != 9 {
			t.Errorf("column 2 row 2 = %v, want 9", got)
		}
	})

	t.Run("unbound", func(t *testing.T) {
		if _, ok := writeUniform(make([]byte, 4), shader.Uniform{Name: "missing", Components: 1}, uniforms); ok {
			t.Error("writeUniform succeeded for unbound uniform")
		}
	})
}

func TestScalarBits(t *testing.T) {
	tests := []struct {
		kind shader.ScalarKind
		v    float64
		want uint32
	}{
		{shader.Float, 1, 0x3f800000},
		{shader.Sint, -1, 0xffffffff},
		{shader.Uint, -5, 0},
		{shader.Uint, 7.9, 7},
		{shader.Bool, 0.5, 1},
		{shader.Bool, 0, 0},
	}
	for _, tt := range tests {
		if got := scalarBits(tt.kind, tt.v); got != tt.want {
			t.Errorf("scalarBits(%v, %v) = %#x, want %#x", tt.kind, tt.v, got, tt.want)
		}
	}
}

func TestSRGBToLinear(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{0.04, 0.0030960},
		{0.5, 0.21404},
		{0.73536, 0.5},
	}
	for _, tt := range tests {
		if got := srgbToLinear(tt.in); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("srgbToLinear(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.000 ms"},
		{time.Millisecond, "1.000 ms"},
		{1500 * time.Microsecond, "1.500 ms"},
		{1234567 * time.Nanosecond, "1.235 ms"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIndirectStride(t *testing.T) {
	tests := []struct {
		t    session.CallType
		want int
	}{
		{session.ComputeIndirect, 12},
		{session.DrawIndirect, 16},
		{session.DrawIndexedIndirect, 20},
	}
	for _, tt := range tests {
		if got := indirectStride(tt.t); got != tt.want {
			t.Errorf("indirectStride(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func testTexture(id session.ItemID, t session.Texture) *Texture {
	return newTexture(&session.Item{ID: id, Name: "tex"}, &t)
}

func TestNewTextureNormalizes(t *testing.T) {
	tests := []struct {
		name   string
		desc   session.Texture
		height int
		depth  int
		layers int
	}{
		{"2D drops depth and layers", session.Texture{Target: session.Target2D, Width: 4, Height: 4, Depth: 3, Layers: 2}, 4, 1, 1},
		{"1D has height 1", session.Texture{Target: session.Target1D, Width: 4, Height: 4}, 1, 1, 1},
		{"cube has 6 layers", session.Texture{Target: session.TargetCube, Width: 4, Height: 4}, 4, 1, 6},
		{"cube array", session.Texture{Target: session.TargetCubeArray, Width: 4, Height: 4, Layers: 2}, 4, 1, 12},
		{"3D keeps depth", session.Texture{Target: session.Target3D, Width: 4, Height: 4, Depth: 5}, 4, 5, 1},
		{"2D array keeps layers", session.Texture{Target: session.Target2DArray, Width: 4, Height: 0, Layers: 3}, 1, 1, 3},
	}
	for _, tt := range tests {
		tex := testTexture(1, tt.desc)
		if tex.height != tt.height || tex.depth != tt.depth || tex.layers != tt.layers {
			t.Errorf("%s: height/depth/layers = %d/%d/%d, want %d/%d/%d",
				tt.name, tex.height, tex.depth, tex.layers, tt.height, tt.depth, tt.layers)
		}
	}
}

func TestTextureEqualAndSwap(t *testing.T) {
	a := testTexture(1, session.Texture{Format: session.RGBA8Unorm, Width: 2, Height: 2})
	b := testTexture(1, session.Texture{Format: session.RGBA8Unorm, Width: 2, Height: 2})
	if !a.Equal(b) {
		t.Error("identical descriptions not equal")
	}
	c := testTexture(1, session.Texture{Format: session.RGBA8Unorm, Width: 4, Height: 2})
	if a.Equal(c) {
		t.Error("textures of different size equal")
	}

	a.handle, a.data = 7, []byte{1}
	b.handle, b.data = 8, []byte{2}
	b.itemID = 2
	if !a.Swap(b) {
		t.Fatal("Swap of matching textures failed")
	}
	if a.handle != 8 || b.handle != 7 || a.data[0] != 2 {
		t.Errorf("after Swap: handles %d/%d, data %v; want 8/7 and [2]", a.handle, b.handle, a.data)
	}
	if a.Swap(c) {
		t.Error("Swap of textures with different sizes succeeded")
	}
}

func TestBufferAdopt(t *testing.T) {
	prev := newBuffer(1, "b", "", 16)
	prev.handle = 5
	prev.data = make([]byte, 16)
	prev.deviceModified = true

	next := newBuffer(1, "b", "", 16)
	if !next.Equal(prev) {
		t.Fatal("equal buffers differ")
	}
	next.adopt(prev)
	if next.handle != 5 || !next.deviceModified || len(next.data) != 16 {
		t.Errorf("adopted state = %d/%t/%d, want 5/true/16", next.handle, next.deviceModified, len(next.data))
	}
	if prev.handle != 0 {
		t.Errorf("previous handle = %d, want 0", prev.handle)
	}
	if next.Equal(newBuffer(1, "b", "other.bin", 16)) {
		t.Error("buffers with different files equal")
	}
}

func TestTargetValidate(t *testing.T) {
	small := testTexture(1, session.Texture{Format: session.RGBA8Unorm, Width: 2, Height: 2})
	large := testTexture(2, session.Texture{Format: session.RGBA8Unorm, Width: 4, Height: 4})
	multi := testTexture(3, session.Texture{Format: session.Depth32Float, Width: 2, Height: 2, Samples: 4})

	tests := []struct {
		name   string
		target Target
		ok     bool
		reason string
	}{
		{"default size", Target{state: session.Target{DefaultWidth: 8, DefaultHeight: 8}}, true, ""},
		{"nothing", Target{}, false, "(missing attachment)"},
		{"unresolved attachment", Target{attachments: []attachment{{itemID: 4}}}, false, "(missing attachment)"},
		{"one", Target{attachments: []attachment{{texture: small}}}, true, ""},
		{"size mismatch", Target{attachments: []attachment{{texture: small}, {texture: large}}}, false, "(size mismatch)"},
		{"sample mismatch", Target{attachments: []attachment{{texture: small}, {texture: multi}}}, false, "(sample mismatch)"},
	}
	for _, tt := range tests {
		ok, reason := tt.target.Validate()
		if ok != tt.ok || reason != tt.reason {
			t.Errorf("%s: Validate = %t, %q; want %t, %q", tt.name, ok, reason, tt.ok, tt.reason)
		}
	}
}

func TestCompileGroupCommands(t *testing.T) {
	m := session.NewModel()
	prog := m.Add(nil, "prog", &session.Program{})
	g := m.Add(nil, "loop", &session.Group{Iterations: "2"})
	m.Add(g, "scale", &session.Binding{BindingType: session.UniformBinding, Values: []string{"1"}})
	m.Add(g, "dispatch", &session.Call{Checked: true, CallType: session.Compute, ProgramID: prog.ID})
	m.Add(nil, "disabled", &session.Call{CallType: session.Compute, ProgramID: prog.ID})

	q := Compile(m, script.NewStarlark(), asset.New(""))
	want := []string{"begin", "push", "uniform", "call", "pop", "end"}
	if len(q.Commands) != len(want) {
		t.Fatalf("commands = %d, want %d", len(q.Commands), len(want))
	}
	for i, cmd := range q.Commands {
		var got string
		switch c := cmd.(type) {
		case *BeginIteration:
			got = "begin"
			if c.Count != 2 {
				t.Errorf("iteration count = %d, want 2", c.Count)
			}
		case *PushScope:
			got = "push"
		case *SetUniform:
			got = "uniform"
		case *ExecuteCall:
			got = "call"
		case *PopScope:
			got = "pop"
		case *EndIteration:
			got = "end"
			if c.Begin != 0 {
				t.Errorf("end jumps to %d, want 0", c.Begin)
			}
		}
		if got != want[i] {
			t.Errorf("command %d = %s, want %s", i, got, want[i])
		}
	}
	if !q.UsedItems.Has(g.ID) || !q.UsedItems.Has(prog.ID) {
		t.Errorf("used items = %v, want group %d and program %d", q.UsedItems.Sorted(), g.ID, prog.ID)
	}
	if len(q.Programs) != 1 {
		t.Errorf("programs = %d, want 1", len(q.Programs))
	}
}

func TestCompileEmptyGroup(t *testing.T) {
	m := session.NewModel()
	g := m.Add(nil, "never", &session.Group{Iterations: "0"})
	buf := m.Add(nil, "buf", &session.Buffer{Size: 4})
	m.Add(g, "clear", &session.Call{Checked: true, CallType: session.ClearBuffer, BufferID: buf.ID})

	q := Compile(m, script.NewStarlark(), asset.New(""))
	if len(q.Commands) != 0 {
		t.Errorf("commands = %d, want 0", len(q.Commands))
	}
	if q.UsedItems.Has(g.ID) {
		t.Error("group without iterations reported as used")
	}
}

func TestCompileInvalidIndexType(t *testing.T) {
	m := session.NewModel()
	buf := m.Add(nil, "indices", &session.Buffer{})
	block := m.Add(buf, "block", &session.Block{Offset: "0", RowCount: "3"})
	m.Add(block, "index", &session.Field{DataType: session.Float64, Count: 1})
	m.Add(nil, "draw", &session.Call{Checked: true, CallType: session.DrawIndexed, IndexBufferBlockID: block.ID})

	q := Compile(m, script.NewStarlark(), asset.New(""))
	if len(q.Messages) != 1 || q.Messages[0].ItemID != block.ID || q.Messages[0].Text != "8 bytes" {
		t.Errorf("messages = %v, want InvalidIndexType 8 bytes on item %d", q.Messages, block.ID)
	}
	if size := q.Buffers[buf.ID].Size(); size != 24 {
		t.Errorf("buffer size = %d, want 24", size)
	}
}
