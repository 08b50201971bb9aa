package sqlite

import (
	"database/sql"
	"strconv"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// Preference keys. Values are stored as strings in the key/value table.
const (
	prefKeyLastSongID     = "last_song_id"
	prefKeyLastPositionMS = "last_position_ms"
	prefKeyShuffleEnabled = "shuffle_enabled"
	prefKeyRepeatMode     = "repeat_mode"
)

// PreferencesRepository implements ports.PreferencesRepository on the
// preferences key/value table. Every setter is a single autocommitted
// upsert, which combined with synchronous=FULL gives each write
// immediate-commit durability. Getters fall back to the documented
// defaults on any read failure.
type PreferencesRepository struct {
	db *sql.DB
}

// LastSongID returns the persisted last-played song id, 0 when unset.
func (r *PreferencesRepository) LastSongID() int64 {
	value, ok := r.get(prefKeyLastSongID)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// SetLastSongID persists the last-played song id.
func (r *PreferencesRepository) SetLastSongID(id int64) error {
	return r.set(prefKeyLastSongID, strconv.FormatInt(id, 10))
}

// LastPositionMS returns the persisted playback offset, 0 when unset.
func (r *PreferencesRepository) LastPositionMS() int64 {
	value, ok := r.get(prefKeyLastPositionMS)
	if !ok {
		return 0
	}
	position, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return position
}

// SetLastPositionMS persists the playback offset.
func (r *PreferencesRepository) SetLastPositionMS(positionMS int64) error {
	return r.set(prefKeyLastPositionMS, strconv.FormatInt(positionMS, 10))
}

// ShuffleEnabled returns the persisted shuffle flag, false when unset.
func (r *PreferencesRepository) ShuffleEnabled() bool {
	value, ok := r.get(prefKeyShuffleEnabled)
	return ok && value == "true"
}

// SetShuffleEnabled persists the shuffle flag.
func (r *PreferencesRepository) SetShuffleEnabled(enabled bool) error {
	return r.set(prefKeyShuffleEnabled, strconv.FormatBool(enabled))
}

// RepeatMode returns the persisted repeat mode, RepeatOff when unset or
// when the stored name is unknown.
func (r *PreferencesRepository) RepeatMode() domain.RepeatMode {
	value, ok := r.get(prefKeyRepeatMode)
	if !ok {
		return domain.RepeatOff
	}
	return domain.RepeatModeFromString(value)
}

// SetRepeatMode persists the repeat mode by name.
func (r *PreferencesRepository) SetRepeatMode(mode domain.RepeatMode) error {
	return r.set(prefKeyRepeatMode, mode.String())
}

func (r *PreferencesRepository) get(key string) (string, bool) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (r *PreferencesRepository) set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	if err != nil {
		return domain.NewRepositoryError("set", "preferences", key, err)
	}
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
