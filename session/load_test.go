package session

import (
	"strings"
	"testing"
)

const testSession = `
buffer "verts" {
  size = 48
  block "b" {
    rows = 3
    field "pos" {
      type  = "float32"
      count = 4
    }
  }
}

texture "color" {
  format = "rgba8unorm"
  width  = 256
  height = 256
}

program "prog" {
  shader "vs" {
    type = "vertex"
    file = "shader.wgsl"
  }
}

target "fb" {
  attachment "a0" {
    texture = "color"
  }
}

stream "vs" {
  attribute "position" {
    field = "verts/b/pos"
  }
}

group "scene" {
  iterations = 2

  binding "tint" {
    type   = "uniform"
    values = [1, 0.5, time * 2, true]
  }

  call "draw" {
    type       = "draw"
    program    = "prog"
    target     = "fb"
    stream     = "vs"
    count      = frames + 1
    execute_on = "manual_evaluation"
  }
}

script "init" {
  file = "init.star"
}
`

func TestParseSession(t *testing.T) {
	m, err := Parse([]byte(testSession), "test.hcl")
	if err != nil {
		t.Fatal(err)
	}

	var calls []*Item
	m.ForEachItem(func(it *Item) {
		if it.Kind() == KindCall {
			calls = append(calls, it)
		}
	})
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	call, _ := As[*Call](calls[0])

	if !call.Checked {
		t.Error("call should default to enabled")
	}
	if call.ExecuteOn != ManualEvaluation {
		t.Errorf("ExecuteOn = %v, want %v", call.ExecuteOn, ManualEvaluation)
	}
	if call.Count != "frames + 1" {
		t.Errorf("Count = %q, want %q", call.Count, "frames + 1")
	}
	if call.InstanceCount != "1" {
		t.Errorf("InstanceCount = %q, want %q", call.InstanceCount, "1")
	}
	if p := m.FindItem(call.ProgramID); p == nil || p.Kind() != KindProgram {
		t.Errorf("ProgramID %d does not resolve to a program", call.ProgramID)
	}
	if s := m.FindItem(call.VertexStreamID); s == nil || s.Kind() != KindStream {
		t.Errorf("VertexStreamID %d does not resolve to a stream", call.VertexStreamID)
	}

	group, _ := As[*Group](calls[0].Parent)
	if group.Iterations != "2" {
		t.Errorf("Iterations = %q, want %q", group.Iterations, "2")
	}
	binding, _ := As[*Binding](calls[0].Parent.Items[0])
	want := []string{"1", "0.5", "time * 2", "1"}
	if strings.Join(binding.Values, ",") != strings.Join(want, ",") {
		t.Errorf("Values = %q, want %q", binding.Values, want)
	}

	attr := m.FindItem(m.Root().Items[4].Items[0].ID)
	a, _ := As[*Attribute](attr)
	if f := m.FindItem(a.FieldID); f == nil || f.Name != "pos" {
		t.Errorf("attribute field resolves to %v, want pos", f)
	}

	tex, _ := As[*Texture](m.Root().Items[1])
	if tex.Format != RGBA8Unorm || tex.Width != 256 || tex.Depth != 1 {
		t.Errorf("texture = %+v", tex)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown block", `widget "x" {}`, "Unsupported block type"},
		{"unknown enum", `call "c" { type = "paint" }`, "Unknown call type"},
		{"missing reference", `call "c" {
  type    = "draw"
  program = "nope"
}`, "Unresolved reference"},
		{"wrong kind", `texture "t" {}
call "c" {
  type    = "draw"
  program = "t"
}`, "Invalid reference"},
		{"ambiguous", `group "a" {
  program "p" {}
}
group "b" {
  program "p" {}
}
call "c" {
  type    = "compute"
  program = "p"
}`, "Ambiguous reference"},
		{"syntax", `buffer "b" {`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("does/not/exist.hcl"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
