package events

import (
	"context"
	"sync"
)

// DefaultFeedSize is the number of events retained per user.
const DefaultFeedSize = 50

// Feed is a bounded per-user ring buffer of recent events.
// It is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	size  int
	users map[string]*ring
}

type ring struct {
	buf  []Event
	next int
	full bool
}

// NewFeed returns a feed retaining size events per user. A size below one
// uses DefaultFeedSize.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, users: make(map[string]*ring)}
}

// Add records e in its user's buffer, evicting the oldest event when full.
func (f *Feed) Add(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.users[e.UserID]
	if !ok {
		r = &ring{buf: make([]Event, f.size)}
		f.users[e.UserID] = r
	}
	r.buf[r.next] = e
	r.next = (r.next + 1) % f.size
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns up to limit events for userID, newest first. A limit of
// zero or less returns everything retained.
func (f *Feed) Recent(userID string, limit int) []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	r, ok := f.users[userID]
	if !ok {
		return []Event{}
	}
	n := r.next
	if r.full {
		n = f.size
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Event, 0, n)
	i := r.next
	for len(out) < n {
		i = (i - 1 + f.size) % f.size
		out = append(out, r.buf[i])
	}
	return out
}

// Publish implements Publisher by adding e to the feed directly. It is used
// when NATS is disabled.
func (f *Feed) Publish(_ context.Context, e Event) error {
	f.Add(e)
	return nil
}
