package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository on the playlists
// and playlist_songs tables. Smart playlists live in the same tables under
// their reserved negative ids.
//
// Thread-safe: database/sql serializes access to the shared handle.
type PlaylistRepository struct {
	db *sql.DB
}

// Create adds a user playlist and returns its assigned id. AUTOINCREMENT
// keeps assigned ids positive, clear of the reserved smart ids.
func (r *PlaylistRepository) Create(ctx context.Context, name string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO playlists (name) VALUES (?)`, name)
	if err != nil {
		return 0, domain.NewRepositoryError("create", "playlists", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, domain.NewRepositoryError("create", "playlists", "last insert id", err)
	}
	return id, nil
}

// Rename changes a playlist's name.
func (r *PlaylistRepository) Rename(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return domain.NewRepositoryError("rename", "playlists", fmt.Sprintf("playlist %d", id), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPlaylistNotFound
	}
	return nil
}

// Delete removes a playlist and its entries. Missing ids are a no-op.
func (r *PlaylistRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
		return domain.NewRepositoryError("delete", "playlists", fmt.Sprintf("playlist %d entries", id), err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return domain.NewRepositoryError("delete", "playlists", fmt.Sprintf("playlist %d", id), err)
	}
	return nil
}

// ByID retrieves a playlist with its ordered song ids.
func (r *PlaylistRepository) ByID(ctx context.Context, id int64) (*domain.Playlist, error) {
	playlist := domain.Playlist{ID: id}

	err := r.db.QueryRowContext(ctx, `SELECT name FROM playlists WHERE id = ?`, id).
		Scan(&playlist.Name)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError("by_id", "playlists", "scan", err)
	}

	playlist.SongIDs, err = r.songIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// All returns every playlist, smart playlists first.
func (r *PlaylistRepository) All(ctx context.Context) ([]domain.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM playlists
		ORDER BY CASE WHEN id < 0 THEN 0 ELSE 1 END, id`)
	if err != nil {
		return nil, domain.NewRepositoryError("all", "playlists", "query", err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, domain.NewRepositoryError("all", "playlists", "scan", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("all", "playlists", "rows", err)
	}

	for i := range playlists {
		playlists[i].SongIDs, err = r.songIDs(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

// ReplaceSongIDs overwrites a playlist's ordered song-id list. Duplicates
// and dangling ids are stored as given.
func (r *PlaylistRepository) ReplaceSongIDs(ctx context.Context, id int64, songIDs []int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewRepositoryError("replace", "playlists", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
		return domain.NewRepositoryError("replace", "playlists", "clear entries", err)
	}
	if err = insertEntries(ctx, tx, id, 0, songIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return domain.NewRepositoryError("replace", "playlists", "commit", err)
	}
	return nil
}

// AppendSongIDs appends song ids to a playlist.
func (r *PlaylistRepository) AppendSongIDs(ctx context.Context, id int64, songIDs []int64) (err error) {
	if len(songIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewRepositoryError("append", "playlists", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_songs WHERE playlist_id = ?`, id).
		Scan(&next)
	if err != nil {
		return domain.NewRepositoryError("append", "playlists", "next position", err)
	}

	if err = insertEntries(ctx, tx, id, next, songIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return domain.NewRepositoryError("append", "playlists", "commit", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, playlistID int64, start int, songIDs []int64) error {
	if len(songIDs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, position, song_id) VALUES (?, ?, ?)`)
	if err != nil {
		return domain.NewRepositoryError("insert", "playlists", "prepare statement", err)
	}
	defer stmt.Close()

	for i, songID := range songIDs {
		if _, err := stmt.ExecContext(ctx, playlistID, start+i, songID); err != nil {
			return domain.NewRepositoryError("insert", "playlists", fmt.Sprintf("entry %d", i), err)
		}
	}
	return nil
}

func (r *PlaylistRepository) songIDs(ctx context.Context, playlistID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, domain.NewRepositoryError("song_ids", "playlists", "query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewRepositoryError("song_ids", "playlists", "scan", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Verify interface implementation
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
