package message

import (
	"slices"
	"sync"
)

// List is an ordered set of messages. Inserting a message equal to one
// already present is a no-op, so a warning raised by every iteration of a
// group is reported once.
//
// List is safe for concurrent use. The zero value is ready to use.
type List struct {
	mu       sync.Mutex
	messages []Message
}

// Insert appends m unless an equal message is present.
func (l *List) Insert(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.messages, m) {
		l.messages = append(l.messages, m)
	}
}

// Add is a shorthand for Insert(ForItem(id, t, text)).
func (l *List) Add(id ItemID, t Type, text string) {
	l.Insert(ForItem(id, t, text))
}

// Merge inserts every message of other.
func (l *List) Merge(other []Message) {
	for _, m := range other {
		l.Insert(m)
	}
}

// Messages returns a copy of the messages in insertion order.
func (l *List) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}

// Len returns the number of messages.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Clear removes all messages.
func (l *List) Clear() {
	l.mu.Lock()
	l.messages = nil
	l.mu.Unlock()
}

// Count returns the number of messages of type t.
func (l *List) Count(t Type) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if m.Type == t {
			n++
		}
	}
	return n
}

// Has reports whether a message of type t is attached to item id.
func (l *List) Has(id ItemID, t Type) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.ItemID == id && m.Type == t {
			return true
		}
	}
	return false
}
