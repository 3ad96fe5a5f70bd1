// Package gpuplay compiles a declarative GPU session into replayable frames.
//
// # Overview
//
// A session is a tree of items: buffers, textures, shader programs, render
// targets, vertex streams, resource bindings, groups and calls. The render
// package compiles that tree into an ordered command queue with scoped
// bindings, keeps GPU resources alive across recompilations while their
// description is unchanged, and replays the queue against a GPU device
// once per frame.
//
// # Quick Start
//
//	model, err := session.LoadFile("triangle.hcl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s := render.NewSession(dev) // dev implements render.Device
//	defer s.Release()
//
//	s.Update(model, true, render.Reset)
//	if err := s.Render(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range s.Messages() {
//	    fmt.Println(m)
//	}
//
// # Architecture
//
// The module is organized into:
//   - session: the item tree and its HCL loader
//   - render: command compiler, resource reuse, executor and call kinds
//   - shader: WGSL compilation and interface reflection
//   - script: expression and script evaluation
//   - asset: file, image and source loading
//   - message: diagnostics consumed by the caller
//
// # Threading
//
// A Session is driven from one goroutine (the render thread). UsedItems and
// Messages may be read from any goroutine; they return snapshots.
//
// The gpuplay command in cmd/gpuplay runs a session file for a number of
// frames on a HAL backend, or on an in-memory device with -device=fake.
package gpuplay

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
