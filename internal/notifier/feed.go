package notifier

import (
	"context"
	"sync"

	"github.com/clusterdash/alertd/internal/types"
)

// Feed keeps the most recent presented alerts for the dashboard page
type Feed struct {
	mu      sync.RWMutex
	entries []types.Message
	size    int
	head    int
	count   int
	total   int
}

// NewFeed creates a feed holding up to size messages
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{
		entries: make([]types.Message, size),
		size:    size,
	}
}

// Name implements Notifier
func (f *Feed) Name() string { return "feed" }

// Notify implements Notifier
func (f *Feed) Notify(_ context.Context, msg types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[f.head] = msg
	f.head = (f.head + 1) % f.size
	if f.count < f.size {
		f.count++
	}
	f.total++
	return nil
}

// Recent returns up to n messages, newest first
func (f *Feed) Recent(n int) []types.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > f.count {
		n = f.count
	}
	out := make([]types.Message, 0, n)
	for i := 1; i <= n; i++ {
		idx := (f.head - i + f.size) % f.size
		out = append(out, f.entries[idx])
	}
	return out
}

// Total returns how many messages were ever presented
func (f *Feed) Total() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}
