// Package shader compiles the shader sources of a program and reflects the
// resources they consume.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/naga/wgsl"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

// Source is one shader of a program.
type Source struct {
	ItemID     session.ItemID
	FileName   string
	Text       string
	Type       session.ShaderType
	Language   session.Language
	EntryPoint string
}

// Compiler links the sources of a program into a module. A nil module
// means linking failed; the messages explain why.
type Compiler interface {
	Compile(sources []Source) (*Module, []message.Message)
}

// Module is a linked program.
type Module struct {
	WGSL      string
	IR        *ir.Module
	SPIRV     []uint32
	Interface *Interface

	entryPoints map[ir.ShaderStage]string
}

// EntryPoint returns the entry point selected for stage, or "".
func (m *Module) EntryPoint(stage ir.ShaderStage) string {
	return m.entryPoints[stage]
}

// IsCompute reports whether the module is a compute program.
func (m *Module) IsCompute() bool {
	_, ok := m.entryPoints[ir.StageCompute]
	return ok
}

// Naga compiles WGSL with github.com/gogpu/naga.
type Naga struct {
	SPIRVVersion spirv.Version
	Validate     bool
}

var _ Compiler = (*Naga)(nil)

// NewNaga returns a compiler with naga's default options.
func NewNaga() *Naga {
	opts := naga.DefaultOptions()
	return &Naga{SPIRVVersion: opts.SPIRVVersion, Validate: opts.Validate}
}

// segment maps a range of lines of the combined source back to its file.
type segment struct {
	start int
	lines int
	src   Source
}

type linker struct {
	segments []segment
	main     Source
	msgs     []message.Message
}

func (l *linker) add(line int, t message.Type, text string) {
	for _, seg := range l.segments {
		if line >= seg.start && line < seg.start+seg.lines {
			if seg.src.FileName != "" {
				l.msgs = append(l.msgs, message.ForFile(seg.src.FileName, line-seg.start+1, t, text))
			} else {
				l.msgs = append(l.msgs, message.ForItem(seg.src.ItemID, t, text))
			}
			return
		}
	}
	l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, t, text))
}

// Compile concatenates the sources (includable ones first), then parses,
// lowers, validates and generates SPIR-V.
func (c *Naga) Compile(sources []Source) (*Module, []message.Message) {
	var l linker
	ordered := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Type == session.IncludableShader {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sources {
		if s.Type != session.IncludableShader {
			ordered = append(ordered, s)
			if l.main.ItemID == 0 {
				l.main = s
			}
		}
	}
	if l.main.ItemID == 0 {
		if len(sources) > 0 {
			l.main = sources[0]
		}
		l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ProgramNotLinked, "no shader stages"))
		return nil, l.msgs
	}

	var sb strings.Builder
	line := 1
	for _, s := range ordered {
		if s.Language != session.WGSL {
			l.msgs = append(l.msgs, message.ForItem(s.ItemID, message.UnsupportedShaderLanguage, s.Language.String()))
			continue
		}
		text := s.Text
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		n := strings.Count(text, "\n")
		l.segments = append(l.segments, segment{start: line, lines: n, src: s})
		line += n
		sb.WriteString(text)
	}
	if len(l.msgs) > 0 {
		return nil, l.msgs
	}
	src := sb.String()

	ast, err := naga.Parse(src)
	if err != nil {
		l.diagnose(err)
		return nil, l.msgs
	}
	lowered, err := wgsl.LowerWithWarnings(ast, src)
	if err != nil {
		l.diagnose(err)
		return nil, l.msgs
	}
	for _, w := range lowered.Warnings {
		l.add(w.Span.Start.Line, message.ShaderWarning, w.Message)
	}
	module := lowered.Module

	if c.Validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ShaderError, err.Error()))
			return nil, l.msgs
		}
		for _, v := range verrs {
			l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ShaderError, v.Error()))
		}
		if len(verrs) > 0 {
			return nil, l.msgs
		}
	}

	entryPoints, ok := l.selectEntryPoints(module, ordered)
	if !ok {
		return nil, l.msgs
	}

	bytes, err := naga.GenerateSPIRV(module, spirv.Options{Version: c.SPIRVVersion})
	if err != nil {
		l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ShaderError, err.Error()))
		return nil, l.msgs
	}

	gpuplay.Logger().Debug("shader: linked program",
		"item", l.main.ItemID, "sources", len(ordered), "spirv_bytes", len(bytes))

	return &Module{
		WGSL:        src,
		IR:          module,
		SPIRV:       words(bytes),
		Interface:   reflectModule(module, entryPoints[ir.StageVertex]),
		entryPoints: entryPoints,
	}, l.msgs
}

func (l *linker) diagnose(err error) {
	var many wgsl.SourceErrors
	if errors.As(err, &many) && len(many) > 0 {
		for _, e := range many {
			l.add(e.Span.Start.Line, message.ShaderError, e.Message)
		}
		return
	}
	var one *wgsl.SourceError
	if errors.As(err, &one) {
		l.add(one.Span.Start.Line, message.ShaderError, one.Message)
		return
	}
	var perr wgsl.ParseError
	if errors.As(err, &perr) {
		l.add(perr.Token.Line, message.ShaderError, perr.Message)
		return
	}
	l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ShaderError, err.Error()))
}

func stageOf(t session.ShaderType) (ir.ShaderStage, bool) {
	switch t {
	case session.VertexShader:
		return ir.StageVertex, true
	case session.FragmentShader:
		return ir.StageFragment, true
	case session.ComputeShader:
		return ir.StageCompute, true
	}
	return 0, false
}

func stageName(s ir.ShaderStage) string {
	switch s {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	}
	return fmt.Sprintf("stage %d", s)
}

func (l *linker) selectEntryPoints(m *ir.Module, sources []Source) (map[ir.ShaderStage]string, bool) {
	selected := make(map[ir.ShaderStage]string)
	ok := true
	for _, s := range sources {
		stage, isStage := stageOf(s.Type)
		if !isStage {
			continue
		}
		if _, done := selected[stage]; done {
			continue
		}
		found := ""
		for _, ep := range m.EntryPoints {
			if ep.Stage == stage && (s.EntryPoint == "" || ep.Name == s.EntryPoint) {
				found = ep.Name
				break
			}
		}
		if found == "" {
			text := "no " + stageName(stage) + " entry point"
			if s.EntryPoint != "" {
				text = fmt.Sprintf("%s entry point %q not found", stageName(stage), s.EntryPoint)
			}
			l.msgs = append(l.msgs, message.ForItem(s.ItemID, message.ShaderError, text))
			ok = false
			continue
		}
		selected[stage] = found
	}
	if _, compute := selected[ir.StageCompute]; compute && len(selected) > 1 {
		l.msgs = append(l.msgs, message.ForItem(l.main.ItemID, message.ShaderError, "compute shaders cannot be linked with graphics stages"))
		ok = false
	}
	return selected, ok
}

// words converts little-endian SPIR-V bytes to 32-bit words.
func words(b []byte) []uint32 {
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return code
}
