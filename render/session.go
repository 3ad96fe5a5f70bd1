// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/script"
	"github.com/gogpu/gpuplay/session"
)

// ErrNoModel is returned by Render before the first Update.
var ErrNoModel = errors.New("render: no model; call Update first")

// EvaluationType says why a frame is rendered. Calls and scripts select
// the evaluations they run in with their ExecuteOn policy.
type EvaluationType uint8

const (
	// Steady re-renders without a request.
	Steady EvaluationType = iota
	// Automatic is an evaluation triggered by a change.
	Automatic
	// Manual is an evaluation explicitly requested by the user.
	Manual
	// Reset recompiles the queue and recreates the script engine. A
	// program that fails to link is not replaced by its last linked
	// version.
	Reset
)

func (t EvaluationType) String() string {
	switch t {
	case Steady:
		return "steady"
	case Automatic:
		return "automatic"
	case Manual:
		return "manual"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("EvaluationType(%d)", t)
}

// Session renders frames of an item tree. Update may be called from any
// goroutine; Render and Release must be called from the goroutine that
// owns the device.
type Session struct {
	dev  Device
	opts sessionOptions

	mu           sync.Mutex
	model        *session.Model
	itemsChanged bool
	eval         EvaluationType

	engine         script.Engine
	queue          *Queue
	failedPrograms []*Program
	used           ItemSet
	msgs           message.List

	modifiedBuffers  []session.ItemID
	modifiedTextures []session.ItemID

	usedMu       sync.Mutex
	usedSnapshot ItemSet
}

// NewSession creates a session rendering with dev. A nil device is
// allowed; its frames only report that no GPU is available.
func NewSession(dev Device, opts ...SessionOption) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{dev: dev, opts: o, used: ItemSet{}, usedSnapshot: ItemSet{}}
}

// Update hands a new state of the item tree to the session. The model is
// copied when itemsChanged is set or t is Reset, so the caller may keep
// editing it. Evaluations requested between two frames combine to the
// strongest one.
func (s *Session) Update(model *session.Model, itemsChanged bool, t EvaluationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if itemsChanged || t == Reset || s.model == nil {
		s.model = model.Clone()
	}
	s.itemsChanged = s.itemsChanged || itemsChanged
	s.eval = max(s.eval, t)
}

// Render produces one frame. Failures of individual calls are reported as
// messages; the returned error is only set when no frame could be
// attempted.
func (s *Session) Render(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	model, itemsChanged, eval := s.model, s.itemsChanged, s.eval
	s.itemsChanged, s.eval = false, Steady
	s.mu.Unlock()
	if model == nil {
		return ErrNoModel
	}

	start := time.Now()
	if s.engine == nil {
		eval = Reset
	}
	if eval == Reset {
		s.engine = s.opts.newEngine()
	}
	s.msgs.Clear()
	scripts := s.configure(model, eval)

	var next *Queue
	if itemsChanged || eval == Reset || s.queue == nil {
		next = compile(model, s.engine, s.opts.assets, s.opts.maxIterations)
		s.used = next.UsedItems.Clone()
	}
	s.used.Merge(scripts)

	if s.dev == nil {
		if next != nil {
			s.queue = next
		}
		s.msgs.Clear()
		s.msgs.Add(0, message.GPUContextNotAvailable, "")
		s.publish()
		return nil
	}

	if next != nil {
		s.failedPrograms = Reuse(next, s.queue, s.dev, s.opts.compiler, eval != Reset)
		s.queue = next
	}
	s.msgs.Merge(s.queue.Messages)

	e := &env{dev: s.dev, assets: s.opts.assets, msgs: &s.msgs}
	x := newExecutor(e, s.engine, s.opts.compiler, eval, s.opts.timerQueries)
	x.run(s.queue.Commands)
	s.used.Merge(x.used)

	s.download(itemsChanged, eval)
	s.collectTimers(x.calls)
	for _, id := range slices.Sorted(maps.Keys(s.queue.Programs)) {
		s.msgs.Merge(s.queue.Programs[id].Messages())
	}
	for _, p := range s.failedPrograms {
		s.msgs.Merge(p.Messages())
	}
	s.publish()

	gpuplay.Logger().Debug("render: frame",
		"evaluation", eval, "compiled", next != nil, "commands", len(s.queue.Commands),
		"messages", s.msgs.Len(), "elapsed", time.Since(start))
	return nil
}

// configure runs the scripts selected by eval and publishes the values of
// uniform bindings as script globals, so expressions compiled afterwards
// can refer to them. It returns the scripts that ran only because of eval.
func (s *Session) configure(model *session.Model, eval EvaluationType) ItemSet {
	used := ItemSet{}
	model.ForEachItem(func(it *session.Item) {
		sc, ok := session.As[*session.Script](it)
		if !ok || !shouldExecute(sc.ExecuteOn, eval) {
			return
		}
		src, err := s.opts.assets.Source(sc.FileName)
		if err != nil {
			s.msgs.Add(it.ID, message.LoadingFileFailed, sc.FileName)
			return
		}
		s.engine.EvaluateScript(src, sc.FileName, &s.msgs)
		if sc.ExecuteOn != session.EveryEvaluation {
			used.Add(it.ID)
		}
	})
	model.ForEachItem(func(it *session.Item) {
		b, ok := session.As[*session.Binding](it)
		if !ok || b.BindingType != session.UniformBinding {
			return
		}
		s.engine.SetGlobal(it.Name, s.engine.EvaluateValues(b.Values, it.ID, &s.msgs))
	})
	return used
}

// download reads back the resources backed by files that the device
// wrote. Buffers are only read when something requested an evaluation.
func (s *Session) download(itemsChanged bool, eval EvaluationType) {
	s.modifiedBuffers = s.modifiedBuffers[:0]
	s.modifiedTextures = s.modifiedTextures[:0]

	for _, id := range slices.Sorted(maps.Keys(s.queue.Textures)) {
		t := s.queue.Textures[id]
		if t.fileName != "" && t.Download(s.dev) {
			s.modifiedTextures = append(s.modifiedTextures, id)
		}
	}
	if !itemsChanged && eval == Steady {
		return
	}
	for _, id := range slices.Sorted(maps.Keys(s.queue.Buffers)) {
		b := s.queue.Buffers[id]
		if b.fileName != "" && b.Download(s.dev, eval != Reset) {
			s.modifiedBuffers = append(s.modifiedBuffers, id)
		}
	}
}

// collectTimers waits for the call timers and reports one duration per
// call, plus the total when more than one call was timed.
func (s *Session) collectTimers(calls []callTimer) {
	if len(calls) == 0 {
		return
	}
	var order []session.ItemID
	durations := make(map[session.ItemID]time.Duration)
	var total time.Duration
	for _, c := range calls {
		d := c.timer.Wait()
		if _, ok := durations[c.itemID]; !ok {
			order = append(order, c.itemID)
		}
		durations[c.itemID] += d
		total += d
	}
	for _, id := range order {
		s.msgs.Add(id, message.CallDuration, formatDuration(durations[id]))
	}
	if len(calls) > 1 {
		s.msgs.Add(0, message.TotalDuration, formatDuration(total))
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}

func (s *Session) publish() {
	snapshot := s.used.Clone()
	s.usedMu.Lock()
	s.usedSnapshot = snapshot
	s.usedMu.Unlock()
}

// Messages returns the diagnostics of the last frame.
func (s *Session) Messages() []message.Message {
	return s.msgs.Messages()
}

// UsedItems returns the items exercised since the queue was last compiled,
// as of the end of the last frame. It may be called from any goroutine.
func (s *Session) UsedItems() ItemSet {
	s.usedMu.Lock()
	defer s.usedMu.Unlock()
	return s.usedSnapshot.Clone()
}

// ModifiedBuffers returns the file backed buffers whose contents the last
// frame changed.
func (s *Session) ModifiedBuffers() []session.ItemID {
	return slices.Clone(s.modifiedBuffers)
}

// ModifiedTextures returns the file backed textures whose contents the
// last frame changed.
func (s *Session) ModifiedTextures() []session.ItemID {
	return slices.Clone(s.modifiedTextures)
}

// StoreModified writes the contents of the modified buffers and textures
// back to their files.
func (s *Session) StoreModified() error {
	if s.queue == nil {
		return nil
	}
	var errs []error
	for _, id := range s.modifiedBuffers {
		b := s.queue.Buffers[id]
		if err := s.opts.assets.Store(b.fileName, b.data); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range s.modifiedTextures {
		t := s.queue.Textures[id]
		img := t.Image()
		if img == nil {
			errs = append(errs, fmt.Errorf("render: %s: %w", t.fileName, ErrUnsupported))
			continue
		}
		if err := s.opts.assets.StoreImage(t.fileName, img); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Queue returns the compiled queue of the last frame, or nil.
func (s *Session) Queue() *Queue { return s.queue }

// Release destroys all device objects. The session can render again
// afterwards; the next frame starts with a reset evaluation.
func (s *Session) Release() {
	if s.queue != nil {
		s.queue.Release(s.dev)
	}
	for _, p := range s.failedPrograms {
		p.Release(s.dev)
	}
	s.queue = nil
	s.failedPrograms = nil
	s.engine = nil
}

