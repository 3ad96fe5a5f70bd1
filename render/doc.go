// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render compiles a session item tree into a command queue and
// executes it on a GPU device, frame after frame.
//
// # Key Principle
//
// render RECEIVES a Device, it does NOT create one. The host passes the
// device to NewSession; a session without a device reports
// GPUContextNotAvailable and does no GPU work.
//
// # Pipeline
//
//	session.Model ──Compile──▶ Queue ──Reuse──▶ Queue ──execute──▶ Device
//	                            │                 │
//	                   resource wrappers   device objects of the
//	                   and commands        previous queue moved in
//
// Compile walks the tree in document order. Every referenced buffer,
// texture, program, target and stream item becomes exactly one wrapper;
// groups, bindings, scripts and calls become commands. The queue is only
// rebuilt when the items changed or a reset is requested, otherwise the
// previous queue is replayed.
//
// Reuse compares each wrapper of a new queue to the wrapper of the same
// item in the previous one. Equal wrappers take over the device object, so
// unchanged resources survive edits elsewhere in the tree.
//
// # Bindings
//
// Bindings are scoped: a group that is not inline opens a scope, and a
// call sees the bindings of all enclosing scopes, inner ones first.
// Bindings never outlive a frame; each frame starts with an empty State.
//
// # Resource Wrappers
//
// Buffer and Texture keep a CPU shadow and two dirty flags. Handles are
// created on first use, the shadow is uploaded only when it changed and
// read back only when the device wrote the resource.
//
// # Diagnostics
//
// Nothing inside a frame is returned as an error. Failed calls are
// reported as messages and the rest of the queue still executes.
//
// # Usage
//
//	s := render.NewSession(dev, render.WithAssets(asset.New(dir)))
//	defer s.Release()
//
//	s.Update(model, true, render.Reset)
//	if err := s.Render(ctx); err != nil {
//	    return err
//	}
//	for _, m := range s.Messages() {
//	    fmt.Println(m)
//	}
//
// # Thread Safety
//
// Update, Messages and UsedItems may be called from any goroutine. Render
// and Release must be called from the goroutine that owns the device.
package render
