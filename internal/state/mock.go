// internal/state/mock.go
package state

import "database/sql"

// Mock is a test double for Manager.
type Mock struct {
	queueState *QueueState
	volume     *VolumeState
	saved      []QueueState
	closed     bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) SaveQueue(state QueueState) {
	m.saved = append(m.saved, state)
	m.queueState = &state
}

func (m *Mock) GetQueue() (*QueueState, error) {
	return m.queueState, nil
}

func (m *Mock) GetVolume() (*VolumeState, error) {
	if m.volume == nil {
		return &VolumeState{Volume: 1.0}, nil
	}
	return m.volume, nil
}

func (m *Mock) SaveVolume(volume float64, muted bool) error {
	m.volume = &VolumeState{Volume: volume, Muted: muted}
	return nil
}

func (m *Mock) Close() error {
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetQueue(state *QueueState) { m.queueState = state }

func (m *Mock) SavedQueues() []QueueState { return m.saved }

func (m *Mock) IsClosed() bool { return m.closed }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
