// Package sqlite persists songs, playlists and playback preferences in a
// local SQLite database via database/sql and the modernc driver.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. synchronous=FULL gives each autocommitted write the
// immediate-commit durability the preferences store requires.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Songs returns the song repository backed by this store.
func (s *Store) Songs() *SongRepository {
	return &SongRepository{db: s.db}
}

// Playlists returns the playlist repository backed by this store.
func (s *Store) Playlists() *PlaylistRepository {
	return &PlaylistRepository{db: s.db}
}

// Preferences returns the preferences repository backed by this store.
func (s *Store) Preferences() *PreferencesRepository {
	return &PreferencesRepository{db: s.db}
}

func applySchema(db *sql.DB) error {
	statements := []string{
		schemaSongs,
		schemaSongsIndexes,
		schemaPlaylists,
		schemaPlaylistSongs,
		schemaPreferences,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}
	return seedSmartPlaylists(db)
}
