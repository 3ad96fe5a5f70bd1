package script

import (
	"errors"
	"fmt"
	"math"
	"sync"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/internal/cache"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

// constantCacheSize bounds the number of memoized constant expressions.
const constantCacheSize = 1024

// Starlark is an Engine backed by a Starlark interpreter. Globals set by
// scripts and SetGlobal persist for the lifetime of the engine.
type Starlark struct {
	mu        sync.Mutex
	thread    *starlark.Thread
	globals   starlark.StringDict
	constants *cache.Cache[string, []float64]
}

var _ Engine = (*Starlark)(nil)

// NewStarlark creates an engine with the math module predeclared.
func NewStarlark() *Starlark {
	return &Starlark{
		thread: &starlark.Thread{
			Name:  "gpuplay",
			Print: func(_ *starlark.Thread, msg string) { gpuplay.Logger().Info("script", "msg", msg) },
		},
		globals:   starlark.StringDict{"math": starlarkmath.Module},
		constants: cache.New[string, []float64](constantCacheSize),
	}
}

// EvaluateInt evaluates expr and truncates the first value.
func (s *Starlark) EvaluateInt(expr string, id session.ItemID, msgs *message.List) int {
	values := s.evaluate(expr, id, msgs)
	if len(values) == 0 {
		return 0
	}
	return int(values[0])
}

// EvaluateUInt evaluates expr and clamps the first value to uint32.
func (s *Starlark) EvaluateUInt(expr string, id session.ItemID, msgs *message.List) uint32 {
	values := s.evaluate(expr, id, msgs)
	if len(values) == 0 || values[0] <= 0 {
		return 0
	}
	if values[0] >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(values[0])
}

// EvaluateValues evaluates every expression and concatenates the results.
// Each expression may yield a scalar or a list.
func (s *Starlark) EvaluateValues(exprs []string, id session.ItemID, msgs *message.List) []float64 {
	var result []float64
	for _, expr := range exprs {
		values := s.evaluate(expr, id, msgs)
		if values == nil {
			values = []float64{0}
		}
		result = append(result, values...)
	}
	return result
}

// EvaluateScript executes a script file. Its top-level definitions become
// globals visible to later expressions.
func (s *Starlark) EvaluateScript(src, fileName string, msgs *message.List) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defined, err := starlark.ExecFile(s.thread, fileName, src, s.globals)
	if err != nil {
		if msgs != nil {
			msgs.Insert(message.ForFile(fileName, errorLine(err), message.ScriptError, errorText(err)))
		}
		return
	}
	for name, v := range defined {
		s.globals[name] = v
	}
}

// SetGlobal publishes values under name. A single value becomes a float,
// several become a list.
func (s *Starlark) SetGlobal(name string, values []float64) {
	if !syntaxIdent(name) {
		return
	}
	var v starlark.Value
	if len(values) == 1 {
		v = starlark.Float(values[0])
	} else {
		elems := make([]starlark.Value, len(values))
		for i, f := range values {
			elems[i] = starlark.Float(f)
		}
		v = starlark.NewList(elems)
	}
	s.mu.Lock()
	s.globals[name] = v
	s.mu.Unlock()
}

func (s *Starlark) evaluate(expr string, id session.ItemID, msgs *message.List) []float64 {
	if expr == "" {
		return nil
	}
	if values, ok := s.constants.Get(expr); ok {
		return values
	}

	s.mu.Lock()
	v, err := starlark.Eval(s.thread, "expression", expr, s.globals)
	s.mu.Unlock()

	var values []float64
	if err == nil {
		values, err = toFloats(v)
	}
	if err != nil {
		if msgs != nil {
			msgs.Add(id, message.ScriptError, errorText(err))
		}
		return nil
	}
	if isConstant(expr) {
		s.constants.Set(expr, values)
	}
	return values
}

func toFloats(v starlark.Value) ([]float64, error) {
	switch x := v.(type) {
	case starlark.Int:
		return []float64{float64(x.Float())}, nil
	case starlark.Float:
		return []float64{float64(x)}, nil
	case starlark.Bool:
		if x {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	case starlark.Indexable:
		var result []float64
		for i := 0; i < x.Len(); i++ {
			elem, err := toFloats(x.Index(i))
			if err != nil {
				return nil, err
			}
			result = append(result, elem...)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type())
}

var constantIdents = map[string]bool{"True": true, "False": true}

// isConstant reports whether expr references no names, so its value never
// changes.
func isConstant(expr string) bool {
	e, err := syntax.ParseExpr("expression", expr, 0)
	if err != nil {
		return false
	}
	constant := true
	syntax.Walk(e, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok && !constantIdents[id.Name] {
			constant = false
		}
		return constant
	})
	return constant
}

func syntaxIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func errorLine(err error) int {
	var serr syntax.Error
	if errors.As(err, &serr) {
		return int(serr.Pos.Line)
	}
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) && len(eerr.CallStack) > 0 {
		return int(eerr.CallStack[len(eerr.CallStack)-1].Pos.Line)
	}
	return 0
}

func errorText(err error) string {
	var serr syntax.Error
	if errors.As(err, &serr) {
		return serr.Msg
	}
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		return eerr.Msg
	}
	return err.Error()
}
