// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/session"
	"github.com/gogpu/gpuplay/shader"
)

// Reuse carries the device objects of prev over to next. Every wrapper of
// next that equals the wrapper of prev with the same item id takes over
// its handle, shadow data and dirty flags; the remaining objects of prev
// are released.
//
// With keepLinked set, a program of next that fails to link is replaced by
// the previous version of the program when that one links. The failed
// programs are returned so their diagnostics can still be reported.
func Reuse(next, prev *Queue, dev Device, compiler shader.Compiler, keepLinked bool) []*Program {
	if prev == nil {
		return nil
	}
	buffers := reuseTable(next.Buffers, prev.Buffers, (*Buffer).Equal, (*Buffer).adopt)
	textures := reuseTable(next.Textures, prev.Textures, (*Texture).Equal, (*Texture).adopt)
	programs := reuseTable(next.Programs, prev.Programs, (*Program).Equal, (*Program).adopt)

	var failed []*Program
	if keepLinked {
		for id, p := range next.Programs {
			old, ok := prev.Programs[id]
			if !ok || p.state != linkPending {
				continue
			}
			if p.Link(dev, compiler) || !old.Link(dev, compiler) {
				continue
			}
			failed = append(failed, &Program{
				itemID:   p.itemID,
				name:     p.name,
				sources:  p.sources,
				state:    linkFailed,
				messages: p.messages,
			})
			p.adopt(old)
			// The next compile compares against the sources that linked,
			// so the edited sources are tried again.
			p.sources = old.sources
		}
	}

	prev.Release(dev)
	gpuplay.Logger().Debug("render: reused resources",
		"buffers", buffers, "textures", textures, "programs", programs, "kept_programs", len(failed))
	return failed
}

func reuseTable[T any](next, prev map[session.ItemID]*T, equal func(a, b *T) bool, adopt func(dst, src *T)) int {
	n := 0
	for id, w := range next {
		if old, ok := prev[id]; ok && equal(w, old) {
			adopt(w, old)
			n++
		}
	}
	return n
}
