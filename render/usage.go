// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"maps"
	"slices"

	"github.com/gogpu/gpuplay/session"
)

// ItemSet is a set of item ids. The zero id is never a member.
type ItemSet map[session.ItemID]struct{}

// Add inserts ids, ignoring 0.
func (s ItemSet) Add(ids ...session.ItemID) {
	for _, id := range ids {
		if id != 0 {
			s[id] = struct{}{}
		}
	}
}

// Has reports whether id is a member.
func (s ItemSet) Has(id session.ItemID) bool {
	_, ok := s[id]
	return ok
}

// Merge inserts every member of other.
func (s ItemSet) Merge(other ItemSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Clone returns a copy of s.
func (s ItemSet) Clone() ItemSet {
	if s == nil {
		return ItemSet{}
	}
	return maps.Clone(s)
}

// Sorted returns the members in ascending order.
func (s ItemSet) Sorted() []session.ItemID {
	return slices.Sorted(maps.Keys(s))
}
