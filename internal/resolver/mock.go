package resolver

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Resolver backed by a static map.
type Mock struct {
	mu      sync.Mutex
	sources map[string]*Source
	err     error
	delay   time.Duration
	calls   []string
}

// NewMock creates an empty mock resolver.
func NewMock() *Mock {
	return &Mock{sources: make(map[string]*Source)}
}

var _ Resolver = (*Mock)(nil)

// Add registers a source for a track ID.
func (m *Mock) Add(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := src
	m.sources[src.TrackID] = &s
}

// SetError makes every Resolve call fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes Resolve block for d (cancellable) before returning.
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns the track IDs resolved so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) Resolve(ctx context.Context, trackID string) (*Source, error) {
	m.mu.Lock()
	m.calls = append(m.calls, trackID)
	err := m.err
	delay := m.delay
	src, ok := m.sources[trackID]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	out := *src
	return &out, nil
}
