package script

import (
	"testing"

	"github.com/gogpu/gpuplay/message"
)

func TestStarlarkEvaluate(t *testing.T) {
	s := NewStarlark()
	s.SetGlobal("time", []float64{1.5})
	s.SetGlobal("color", []float64{1, 0.5, 0.25})

	tests := []struct {
		expr string
		want []float64
	}{
		{"3", []float64{3}},
		{"time * 2", []float64{3}},
		{"[1, 2.5, True]", []float64{1, 2.5, 1}},
		{"color", []float64{1, 0.5, 0.25}},
		{"math.floor(time)", []float64{1}},
	}
	for _, tt := range tests {
		var msgs message.List
		got := s.EvaluateValues([]string{tt.expr}, 1, &msgs)
		if msgs.Len() != 0 {
			t.Errorf("%q: unexpected messages %v", tt.expr, msgs.Messages())
		}
		if len(got) != len(tt.want) {
			t.Errorf("%q = %v, want %v", tt.expr, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q = %v, want %v", tt.expr, got, tt.want)
				break
			}
		}
	}
}

func TestStarlarkIntegers(t *testing.T) {
	s := NewStarlark()
	var msgs message.List

	if got := s.EvaluateInt("7 / 2", 1, &msgs); got != 3 {
		t.Errorf("EvaluateInt = %d, want 3", got)
	}
	if got := s.EvaluateUInt("-4", 1, &msgs); got != 0 {
		t.Errorf("EvaluateUInt(-4) = %d, want 0", got)
	}
	if got := s.EvaluateInt("", 1, &msgs); got != 0 {
		t.Errorf("EvaluateInt(\"\") = %d, want 0", got)
	}
	if msgs.Len() != 0 {
		t.Errorf("unexpected messages %v", msgs.Messages())
	}
}

func TestStarlarkErrors(t *testing.T) {
	s := NewStarlark()
	var msgs message.List

	if got := s.EvaluateInt("undefined_name + 1", 5, &msgs); got != 0 {
		t.Errorf("EvaluateInt = %d, want 0", got)
	}
	if !msgs.Has(5, message.ScriptError) {
		t.Errorf("missing ScriptError for item 5: %v", msgs.Messages())
	}

	// A failing element still contributes one value.
	got := s.EvaluateValues([]string{"1", "nope"}, 6, &msgs)
	if len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("EvaluateValues = %v, want [1 0]", got)
	}

	s.EvaluateScript("x = 1\ny = (\n", "broken.star", &msgs)
	found := false
	for _, m := range msgs.Messages() {
		if m.FileName == "broken.star" && m.Type == message.ScriptError && m.Line > 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("missing located ScriptError for broken.star: %v", msgs.Messages())
	}
}

func TestStarlarkScriptGlobals(t *testing.T) {
	s := NewStarlark()
	var msgs message.List

	s.EvaluateScript("scale = 4\ndef double(v):\n    return v * 2\n", "init.star", &msgs)
	if msgs.Len() != 0 {
		t.Fatalf("unexpected messages %v", msgs.Messages())
	}
	if got := s.EvaluateInt("double(scale)", 1, &msgs); got != 8 {
		t.Errorf("double(scale) = %d, want 8", got)
	}
}

func TestIsConstant(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"1 + 2", true},
		{"[1, True]", true},
		{"time", false},
		{"math.pi", false},
		{"(", false},
	}
	for _, tt := range tests {
		if got := isConstant(tt.expr); got != tt.want {
			t.Errorf("isConstant(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestConstantsAreCached(t *testing.T) {
	s := NewStarlark()
	var msgs message.List
	s.EvaluateInt("2 * 21", 1, &msgs)
	s.EvaluateInt("2 * 21", 1, &msgs)
	s.EvaluateInt("time", 1, &msgs)

	if got := s.constants.Len(); got != 1 {
		t.Errorf("cached constants = %d, want 1", got)
	}
	if _, ok := s.constants.Get("2 * 21"); !ok {
		t.Error("constant expression was not cached")
	}
}
