// Package ports defines repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/soundleaf/soundleaf/internal/domain"
)

// SongRepository handles the persistence of Song records.
//
// Thread-safety: Implementations must be thread-safe.
type SongRepository interface {
	// Upsert inserts or replaces songs keyed by id. Play count and
	// favorite flag of existing rows are preserved.
	Upsert(ctx context.Context, songs []domain.Song) error

	// ByID retrieves a song. Returns domain.ErrSongNotFound when absent.
	ByID(ctx context.Context, id int64) (*domain.Song, error)

	// All returns every song ordered by title.
	All(ctx context.Context) ([]domain.Song, error)

	// Search matches title, artist and album case-insensitively.
	Search(ctx context.Context, query string) ([]domain.Song, error)

	// DeleteByIDs removes songs whose files disappeared.
	DeleteByIDs(ctx context.Context, ids []int64) error

	// IncrementPlayCount adds one to the song's play counter and stamps
	// the last-played time. Missing ids are a no-op, not an error.
	IncrementPlayCount(ctx context.Context, id int64) error

	// SetFavorite updates the favorite flag.
	SetFavorite(ctx context.Context, id int64, favorite bool) error

	// MostPlayed returns up to limit songs with a nonzero play count,
	// ordered by play count descending; ties break by most recently
	// played first, then by id.
	MostPlayed(ctx context.Context, limit int) ([]domain.Song, error)

	// Favorites returns all favorite songs ordered by title.
	Favorites(ctx context.Context) ([]domain.Song, error)
}

// PlaylistRepository handles the persistence of playlists, including the
// three reserved smart playlists.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Create adds a user playlist and returns its assigned id.
	Create(ctx context.Context, name string) (int64, error)

	// Rename changes a playlist's name.
	Rename(ctx context.Context, id int64, name string) error

	// Delete removes a playlist. Missing ids are a no-op.
	Delete(ctx context.Context, id int64) error

	// ByID retrieves a playlist with its ordered song ids.
	// Returns domain.ErrPlaylistNotFound when absent.
	ByID(ctx context.Context, id int64) (*domain.Playlist, error)

	// All returns every playlist, smart playlists first.
	All(ctx context.Context) ([]domain.Playlist, error)

	// ReplaceSongIDs overwrites a playlist's ordered song-id list.
	// Duplicates and dangling ids are stored as given.
	ReplaceSongIDs(ctx context.Context, id int64, songIDs []int64) error

	// AppendSongIDs appends song ids to a playlist.
	AppendSongIDs(ctx context.Context, id int64, songIDs []int64) error
}

// PreferencesRepository persists the playback preferences that must
// survive process death. Each field is an independent scalar with
// immediate-commit semantics; there is no cross-field grouping.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// LastSongID returns the persisted last-played song id, 0 when unset.
	LastSongID() int64

	// SetLastSongID persists the last-played song id.
	SetLastSongID(id int64) error

	// LastPositionMS returns the persisted playback offset, 0 when unset.
	LastPositionMS() int64

	// SetLastPositionMS persists the playback offset.
	SetLastPositionMS(positionMS int64) error

	// ShuffleEnabled returns the persisted shuffle flag, false when unset.
	ShuffleEnabled() bool

	// SetShuffleEnabled persists the shuffle flag.
	SetShuffleEnabled(enabled bool) error

	// RepeatMode returns the persisted repeat mode, RepeatOff when unset.
	RepeatMode() domain.RepeatMode

	// SetRepeatMode persists the repeat mode by name.
	SetRepeatMode(mode domain.RepeatMode) error
}
