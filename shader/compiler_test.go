package shader

import (
	"testing"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

const vertexFragment = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) col: vec3<f32>) -> VertexOutput {
    var output: VertexOutput;
    output.position = vec4<f32>(pos.x, pos.y, pos.z, 1.0);
    output.color = col;
    return output;
}

@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color.x, color.y, color.z, 1.0);
}
`

func TestNagaCompileVertexFragment(t *testing.T) {
	c := &Naga{SPIRVVersion: NewNaga().SPIRVVersion}
	m, msgs := c.Compile([]Source{
		{ItemID: 2, FileName: "vs.wgsl", Text: vertexFragment, Type: session.VertexShader},
		{ItemID: 3, FileName: "vs.wgsl", Text: "", Type: session.FragmentShader},
	})
	if m == nil {
		t.Fatalf("Compile failed: %v", msgs)
	}
	if got := m.EntryPoint(ir.StageVertex); got != "vs_main" {
		t.Errorf("vertex entry = %q, want vs_main", got)
	}
	if got := m.EntryPoint(ir.StageFragment); got != "fs_main" {
		t.Errorf("fragment entry = %q, want fs_main", got)
	}
	if m.IsCompute() {
		t.Error("IsCompute() = true for a graphics program")
	}
	if len(m.SPIRV) < 5 || m.SPIRV[0] != 0x07230203 {
		t.Errorf("SPIR-V header missing: %v", m.SPIRV[:min(len(m.SPIRV), 5)])
	}

	attrs := m.Interface.Attributes
	if len(attrs) != 2 || attrs[0].Name != "pos" || attrs[1].Name != "col" || attrs[1].Location != 1 {
		t.Fatalf("Attributes = %+v", attrs)
	}
	if attrs[0].Components != 3 || attrs[0].Scalar != Float {
		t.Errorf("pos = %+v, want 3 float components", attrs[0])
	}
}

func TestNagaCompileUnsupportedLanguage(t *testing.T) {
	m, msgs := NewNaga().Compile([]Source{
		{ItemID: 4, FileName: "a.vert", Text: "void main() {}", Type: session.VertexShader, Language: session.GLSL},
	})
	if m != nil {
		t.Fatal("GLSL source should not link")
	}
	if len(msgs) != 1 || msgs[0].Type != message.UnsupportedShaderLanguage || msgs[0].ItemID != 4 {
		t.Errorf("messages = %v", msgs)
	}
}

func TestNagaCompileNoStages(t *testing.T) {
	m, msgs := NewNaga().Compile([]Source{
		{ItemID: 5, FileName: "common.wgsl", Text: "struct S { a: f32, }", Type: session.IncludableShader},
	})
	if m != nil || len(msgs) != 1 || msgs[0].Type != message.ProgramNotLinked {
		t.Errorf("got %v, %v; want ProgramNotLinked", m, msgs)
	}
}

func TestNagaCompileErrorLocation(t *testing.T) {
	common := "struct Params {\n    scale: f32,\n}\n"
	main := `@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos.x, pos.y, pos.z, 1.0) +;
}
`
	m, msgs := (&Naga{}).Compile([]Source{
		{ItemID: 6, FileName: "main.wgsl", Text: main, Type: session.VertexShader},
		{ItemID: 7, FileName: "common.wgsl", Text: common, Type: session.IncludableShader},
	})
	if m != nil {
		t.Fatal("broken source linked")
	}
	if len(msgs) == 0 {
		t.Fatal("no messages")
	}
	got := msgs[0]
	if got.Type != message.ShaderError || got.FileName != "main.wgsl" || got.Line != 3 {
		t.Errorf("message = %+v, want ShaderError at main.wgsl:3", got)
	}
}

func TestNagaCompileMissingEntryPoint(t *testing.T) {
	_, msgs := (&Naga{}).Compile([]Source{
		{ItemID: 8, FileName: "vs.wgsl", Text: vertexFragment, Type: session.VertexShader, EntryPoint: "other"},
	})
	if len(msgs) != 1 || msgs[0].ItemID != 8 || msgs[0].Type != message.ShaderError {
		t.Errorf("messages = %v", msgs)
	}
}

func TestLinkerLineMapping(t *testing.T) {
	l := linker{
		main: Source{ItemID: 1},
		segments: []segment{
			{start: 1, lines: 3, src: Source{ItemID: 2, FileName: "common.wgsl"}},
			{start: 4, lines: 10, src: Source{ItemID: 1, FileName: "main.wgsl"}},
		},
	}
	l.add(2, message.ShaderError, "a")
	l.add(5, message.ShaderWarning, "b")
	l.add(40, message.ShaderError, "c")

	want := []message.Message{
		message.ForFile("common.wgsl", 2, message.ShaderError, "a"),
		message.ForFile("main.wgsl", 2, message.ShaderWarning, "b"),
		message.ForItem(1, message.ShaderError, "c"),
	}
	for i := range want {
		if l.msgs[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, l.msgs[i], want[i])
		}
	}
}
