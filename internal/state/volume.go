package state

import (
	"database/sql"
	"errors"
)

// VolumeState is the persisted volume level and mute flag.
type VolumeState struct {
	Volume float64
	Muted  bool
}

// GetVolume returns the saved volume, defaulting to full volume unmuted
// when nothing has been saved yet.
func (m *Manager) GetVolume() (*VolumeState, error) {
	vs := &VolumeState{Volume: 1.0}

	row := m.db.QueryRow(`SELECT volume, muted FROM queue_state WHERE id = 1`)
	if err := row.Scan(&vs.Volume, &vs.Muted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &VolumeState{Volume: 1.0}, nil
		}
		return nil, err
	}
	return vs, nil
}

// SaveVolume persists the volume level, creating the singleton state row
// if the queue has never been saved.
func (m *Manager) SaveVolume(volume float64, muted bool) error {
	_, err := m.db.Exec(`
		INSERT INTO queue_state (id, volume, muted)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted
	`, volume, muted)
	return err
}
