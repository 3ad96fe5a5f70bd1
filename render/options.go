// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/asset"
	"github.com/gogpu/gpuplay/script"
	"github.com/gogpu/gpuplay/shader"
)

// SessionOption configures a Session during creation.
//
// Example:
//
//	s := render.NewSession(dev,
//	    render.WithAssets(asset.New("testdata")),
//	    render.WithMaxIterations(64))
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	assets        Assets
	newEngine     func() script.Engine
	compiler      shader.Compiler
	maxIterations int
	timerQueries  bool
}

func defaultOptions() sessionOptions {
	return sessionOptions{
		assets:        asset.New(""),
		newEngine:     func() script.Engine { return script.NewStarlark() },
		compiler:      shader.NewNaga(),
		maxIterations: DefaultMaxIterations,
		timerQueries:  true,
	}
}

// WithAssets sets where file contents are read from. The default reads
// files relative to the working directory.
func WithAssets(a Assets) SessionOption {
	return func(o *sessionOptions) {
		o.assets = a
	}
}

// WithScriptEngine sets the constructor of the script engine. A new engine
// is created for every reset evaluation, so script globals do not survive
// a reset.
func WithScriptEngine(newEngine func() script.Engine) SessionOption {
	return func(o *sessionOptions) {
		o.newEngine = newEngine
	}
}

// WithShaderCompiler sets the compiler programs are linked with.
func WithShaderCompiler(c shader.Compiler) SessionOption {
	return func(o *sessionOptions) {
		o.compiler = c
	}
}

// WithMaxIterations caps the iteration count of groups. Larger counts are
// clamped and reported.
func WithMaxIterations(n int) SessionOption {
	return func(o *sessionOptions) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithTimerQueries enables or disables measuring the duration of calls.
// It is enabled by default.
func WithTimerQueries(enabled bool) SessionOption {
	return func(o *sessionOptions) {
		o.timerQueries = enabled
	}
}
