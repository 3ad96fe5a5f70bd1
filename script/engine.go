// Package script evaluates the dynamic expressions and script files of a
// session.
package script

import (
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

// Engine evaluates expressions on behalf of session items. Evaluation
// errors are reported into msgs and yield zero values.
type Engine interface {
	EvaluateInt(expr string, id session.ItemID, msgs *message.List) int
	EvaluateUInt(expr string, id session.ItemID, msgs *message.List) uint32
	EvaluateValues(exprs []string, id session.ItemID, msgs *message.List) []float64
	EvaluateScript(src, fileName string, msgs *message.List)
	SetGlobal(name string, values []float64)
}
