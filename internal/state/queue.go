package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/segue/internal/db"
	"github.com/llehouerou/segue/internal/playlist"
)

// QueueState represents the saved queue: its tracks in original order,
// the play cursor and the playback modes.
type QueueState struct {
	CurrentIndex int
	RepeatMode   int
	Shuffle      bool
	Position     time.Duration
	Tracks       []playlist.Track
}

func getQueue(db *sql.DB) (*QueueState, error) {
	// Get queue state
	var currentIndex, repeatMode int
	var shuffle bool
	var positionMs int64
	row := db.QueryRow(`SELECT current_index, repeat_mode, shuffle, position_ms FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &repeatMode, &shuffle, &positionMs)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	// Get tracks
	rows, err := db.Query(`
		SELECT track_id, path, title, artist, album, track_number, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []playlist.Track
	for rows.Next() {
		var t playlist.Track
		var artist, album sql.NullString
		var trackNumber, durationMs sql.NullInt64

		err := rows.Scan(&t.ID, &t.Path, &t.Title, &artist, &album, &trackNumber, &durationMs)
		if err != nil {
			return nil, err
		}

		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.TrackNumber = int(dbutil.NullInt64Value(trackNumber))
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMs)) * time.Millisecond
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueueState{
		CurrentIndex: currentIndex,
		RepeatMode:   repeatMode,
		Shuffle:      shuffle,
		Position:     time.Duration(positionMs) * time.Millisecond,
		Tracks:       tracks,
	}, nil
}

func saveQueue(sqlDB *sql.DB, state QueueState) error {
	return dbutil.WithTx(sqlDB, func(tx *sql.Tx) error {
		// Clear existing queue
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		// Save queue state
		_, err = tx.Exec(`
			INSERT INTO queue_state (id, current_index, repeat_mode, shuffle, position_ms)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle,
				position_ms = excluded.position_ms
		`, state.CurrentIndex, state.RepeatMode, state.Shuffle, state.Position.Milliseconds())
		if err != nil {
			return err
		}

		// Insert tracks
		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, path, title, artist, album, track_number, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range state.Tracks {
			_, err = stmt.Exec(i, t.ID, t.Path, t.Title, t.Artist, t.Album, t.TrackNumber, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}
