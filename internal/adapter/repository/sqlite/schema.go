package sqlite

import (
	"database/sql"

	"github.com/soundleaf/soundleaf/internal/domain"
)

const schemaSongs = `
CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	path TEXT NOT NULL UNIQUE,
	size INTEGER NOT NULL DEFAULT 0,
	date_added INTEGER NOT NULL DEFAULT 0,
	date_modified INTEGER NOT NULL DEFAULT 0,
	track_number INTEGER NOT NULL DEFAULT 0,
	year INTEGER NOT NULL DEFAULT 0,
	album_id INTEGER NOT NULL DEFAULT 0,
	artist_id INTEGER NOT NULL DEFAULT 0,
	composer TEXT NOT NULL DEFAULT '',
	album_artist TEXT NOT NULL DEFAULT '',
	play_count INTEGER NOT NULL DEFAULT 0,
	favorite INTEGER NOT NULL DEFAULT 0,
	last_played_at INTEGER NOT NULL DEFAULT 0,
	lyrics TEXT NOT NULL DEFAULT ''
);`

const schemaSongsIndexes = `
CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title);
CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);
CREATE INDEX IF NOT EXISTS idx_songs_play_count ON songs(play_count DESC, last_played_at DESC);
CREATE INDEX IF NOT EXISTS idx_songs_favorite ON songs(favorite);
`

const schemaPlaylists = `
CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);`

// song_id has no foreign key on purpose: playlists tolerate references to
// songs that no longer exist.
const schemaPlaylistSongs = `
CREATE TABLE IF NOT EXISTS playlist_songs (
	playlist_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	song_id INTEGER NOT NULL,
	PRIMARY KEY (playlist_id, position),
	FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE
);`

const schemaPreferences = `
CREATE TABLE IF NOT EXISTS preferences (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// seedSmartPlaylists inserts the reserved system playlists when missing.
func seedSmartPlaylists(db *sql.DB) error {
	seed := []struct {
		id   int64
		name string
	}{
		{domain.PlaylistRecentlyPlayed, "Recently Played"},
		{domain.PlaylistMostPlayed, "Most Played"},
		{domain.PlaylistFavorites, "Favorites"},
	}
	for _, p := range seed {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO playlists (id, name) VALUES (?, ?)`, p.id, p.name,
		); err != nil {
			return err
		}
	}
	return nil
}
