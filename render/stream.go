// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/session"
)

// streamAttribute feeds one named vertex attribute from a block field.
type streamAttribute struct {
	itemID     session.ItemID
	name       string
	buffer     *Buffer
	dataType   session.DataType
	components int
	normalize  bool
	divisor    int
	offset     int
	stride     int
	rows       int
}

// Stream is a vertex stream: attributes looked up by name at draw time.
type Stream struct {
	itemID     session.ItemID
	attributes []streamAttribute
}

// ItemID returns the id of the stream item.
func (s *Stream) ItemID() session.ItemID { return s.itemID }

func (s *Stream) attribute(name string) (streamAttribute, bool) {
	for _, a := range s.attributes {
		if a.name == name {
			return a, true
		}
	}
	return streamAttribute{}, false
}

// MaxElementCount returns the number of vertices all attributes can
// supply, or -1 when no attribute has a buffer.
func (s *Stream) MaxElementCount() int {
	count := -1
	for _, a := range s.attributes {
		if a.buffer == nil {
			continue
		}
		if count < 0 || a.rows < count {
			count = a.rows
		}
	}
	return count
}
