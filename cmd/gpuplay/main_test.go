package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gpuplay/render"
)

const testSession = `
buffer "data" {
  size = 16
}

call "dispatch" {
  type = "compute"
}

call "clear" {
  type   = "clear_buffer"
  buffer = "data"
}
`

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.hcl")
	if err := os.WriteFile(path, []byte(testSession), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no session", nil, 2, "", "usage: gpuplay"},
		{"bad flag", []string{"-frames=x", path}, 2, "", "invalid value"},
		{"bad evaluation", []string{"-eval=sometimes", path}, 2, "", `unknown evaluation "sometimes"`},
		{"missing file", []string{"-device=fake", filepath.Join(t.TempDir(), "none.hcl")}, 1, "", "Failed to load session"},
		{"unknown device", []string{"-device=metal", path}, 1, "", `unknown device "metal"`},
		{"fake device", []string{"-device=fake", "-frames=2", path}, 0, "no program set", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", got, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	for _, want := range []render.EvaluationType{render.Steady, render.Automatic, render.Manual, render.Reset} {
		got, err := parseEvaluation(want.String())
		if err != nil || got != want {
			t.Errorf("parseEvaluation(%q) = %v, %v, want %v", want.String(), got, err, want)
		}
	}
}
