// Package message defines the diagnostics produced while compiling and
// executing a session.
package message

import (
	"fmt"

	"github.com/gogpu/gpuplay/session"
)

// ItemID locates a message on a session item.
type ItemID = session.ItemID

// Severity classifies a message for display.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// Type identifies what a message reports.
type Type uint16

const (
	None Type = iota

	// Fatal
	GPUContextNotAvailable

	// Calls
	ProgramNotAssigned
	TargetNotAssigned
	TextureNotAssigned
	BufferNotAssigned
	IndexBufferNotAssigned
	IndirectBufferNotAssigned
	InvalidIndexType
	InvalidIndirectStride
	CountExceeded
	CallFailed
	ClearingTextureFailed
	CopyingTextureFailed
	SwappingTexturesFailed
	SwappingBuffersFailed
	CreatingFramebufferFailed
	TooManyIterations

	// Bindings
	UniformNotSet
	BufferNotSet
	AttributeNotSet
	InvalidAttribute
	ImageNotSet
	SamplerNotSet
	InvalidSubroutine
	SubroutineNotSet
	SubroutinesNotAvailable
	UniformComponentMismatch
	ImageFormatNotBindable

	// Resources
	LoadingFileFailed
	CreatingBufferFailed
	CreatingTextureFailed

	// Shaders and scripts
	ProgramNotLinked
	ShaderError
	ShaderWarning
	ShaderInfo
	UnsupportedShaderLanguage
	ScriptError

	// Timing
	CallDuration
	TotalDuration
)

var typeInfo = [...]struct {
	text     string
	severity Severity
}{
	None:                      {"", Info},
	GPUContextNotAvailable:    {"GPU context not available", Error},
	ProgramNotAssigned:        {"no program set", Warning},
	TargetNotAssigned:         {"no target set", Warning},
	TextureNotAssigned:        {"no texture set", Warning},
	BufferNotAssigned:         {"no buffer set", Warning},
	IndexBufferNotAssigned:    {"no index buffer set", Warning},
	IndirectBufferNotAssigned: {"no indirect buffer set", Warning},
	InvalidIndexType:          {"invalid index type", Error},
	InvalidIndirectStride:     {"invalid indirect stride", Error},
	CountExceeded:             {"count exceeds available elements", Warning},
	CallFailed:                {"call failed", Error},
	ClearingTextureFailed:     {"clearing texture failed", Error},
	CopyingTextureFailed:      {"copying texture failed", Error},
	SwappingTexturesFailed:    {"swapping textures failed", Error},
	SwappingBuffersFailed:     {"swapping buffers failed", Error},
	CreatingFramebufferFailed: {"creating framebuffer failed", Error},
	TooManyIterations:         {"too many iterations", Warning},
	UniformNotSet:             {"uniform not set", Warning},
	BufferNotSet:              {"buffer not set", Warning},
	AttributeNotSet:           {"attribute not set", Warning},
	InvalidAttribute:          {"invalid attribute", Warning},
	ImageNotSet:               {"image not set", Warning},
	SamplerNotSet:             {"sampler not set", Warning},
	InvalidSubroutine:         {"invalid subroutine", Warning},
	SubroutineNotSet:          {"subroutine not set", Warning},
	SubroutinesNotAvailable:   {"subroutines not available", Warning},
	UniformComponentMismatch:  {"uniform component mismatch", Warning},
	ImageFormatNotBindable:    {"image format not bindable", Error},
	LoadingFileFailed:         {"loading file failed", Error},
	CreatingBufferFailed:      {"creating buffer failed", Error},
	CreatingTextureFailed:     {"creating texture failed", Error},
	ProgramNotLinked:          {"program not linked", Error},
	ShaderError:               {"", Error},
	ShaderWarning:             {"", Warning},
	ShaderInfo:                {"", Info},
	UnsupportedShaderLanguage: {"unsupported shader language", Error},
	ScriptError:               {"", Error},
	CallDuration:              {"duration", Info},
	TotalDuration:             {"total duration", Info},
}

// String returns the human readable description of t.
func (t Type) String() string {
	if int(t) < len(typeInfo) {
		return typeInfo[t].text
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Severity returns the default severity of t.
func (t Type) Severity() Severity {
	if int(t) < len(typeInfo) {
		return typeInfo[t].severity
	}
	return Warning
}

// Message is one diagnostic. It is located either by ItemID or by
// FileName and Line.
type Message struct {
	ItemID   ItemID
	FileName string
	Line     int
	Type     Type
	Text     string
}

// ForItem creates a message attached to an item.
func ForItem(id ItemID, t Type, text string) Message {
	return Message{ItemID: id, Type: t, Text: text}
}

// ForFile creates a message attached to a line of a file.
func ForFile(fileName string, line int, t Type, text string) Message {
	return Message{FileName: fileName, Line: line, Type: t, Text: text}
}

// Severity returns the severity of the message type.
func (m Message) Severity() Severity { return m.Type.Severity() }

func (m Message) String() string {
	desc := m.Type.String()
	switch {
	case desc == "":
		desc = m.Text
	case m.Text != "":
		desc += ": " + m.Text
	}
	switch {
	case m.FileName != "" && m.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", m.FileName, m.Line, m.Severity(), desc)
	case m.FileName != "":
		return fmt.Sprintf("%s: %s: %s", m.FileName, m.Severity(), desc)
	case m.ItemID != 0:
		return fmt.Sprintf("item %d: %s: %s", m.ItemID, m.Severity(), desc)
	}
	return fmt.Sprintf("%s: %s", m.Severity(), desc)
}
