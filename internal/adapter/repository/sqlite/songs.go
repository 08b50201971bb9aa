package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// SongRepository implements ports.SongRepository on the songs table.
//
// Thread-safe: database/sql serializes access to the shared handle.
type SongRepository struct {
	db *sql.DB
}

const songColumns = `id, title, artist, album, duration_ms, path, size,
	date_added, date_modified, track_number, year, album_id, artist_id,
	composer, album_artist, play_count, favorite, lyrics`

// Upsert inserts or replaces songs keyed by id. Play count, favorite flag,
// last-played stamp and date-added of existing rows are preserved.
func (r *SongRepository) Upsert(ctx context.Context, songs []domain.Song) (err error) {
	if len(songs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewRepositoryError("upsert", "songs", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (id, title, artist, album, duration_ms, path, size,
			date_added, date_modified, track_number, year, album_id, artist_id,
			composer, album_artist, lyrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			duration_ms=excluded.duration_ms,
			path=excluded.path,
			size=excluded.size,
			date_added=CASE WHEN songs.date_added = 0
				THEN excluded.date_added ELSE songs.date_added END,
			date_modified=excluded.date_modified,
			track_number=excluded.track_number,
			year=excluded.year,
			album_id=excluded.album_id,
			artist_id=excluded.artist_id,
			composer=excluded.composer,
			album_artist=excluded.album_artist,
			lyrics=excluded.lyrics
	`)
	if err != nil {
		return domain.NewRepositoryError("upsert", "songs", "prepare statement", err)
	}
	defer stmt.Close()

	for _, song := range songs {
		_, err = stmt.ExecContext(ctx,
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			song.Duration.Milliseconds(),
			song.Path,
			song.Size,
			unixOrZero(song.DateAdded),
			unixOrZero(song.DateModified),
			song.TrackNumber,
			song.Year,
			song.AlbumID,
			song.ArtistID,
			song.Composer,
			song.AlbumArtist,
			encodeLyrics(song.Lyrics),
		)
		if err != nil {
			return domain.NewRepositoryError("upsert", "songs", fmt.Sprintf("song %d", song.ID), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.NewRepositoryError("upsert", "songs", "commit", err)
	}
	return nil
}

// ByID retrieves a song. Returns domain.ErrSongNotFound when absent.
func (r *SongRepository) ByID(ctx context.Context, id int64) (*domain.Song, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ?`, id)

	song, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSongNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError("by_id", "songs", "scan", err)
	}
	return &song, nil
}

// All returns every song ordered by title.
func (r *SongRepository) All(ctx context.Context) ([]domain.Song, error) {
	return r.querySongs(ctx, `SELECT `+songColumns+` FROM songs ORDER BY title`)
}

// Search matches title, artist and album case-insensitively.
func (r *SongRepository) Search(ctx context.Context, query string) ([]domain.Song, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY title`,
		pattern, pattern, pattern)
}

// DeleteByIDs removes songs whose files disappeared.
func (r *SongRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM songs WHERE id IN (%s)", strings.Join(placeholders, ","))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.NewRepositoryError("delete", "songs", "delete by ids", err)
	}
	return nil
}

// IncrementPlayCount adds one to the song's play counter and stamps the
// last-played time. Missing ids are a no-op.
func (r *SongRepository) IncrementPlayCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE songs SET play_count = play_count + 1, last_played_at = ?
		WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return domain.NewRepositoryError("increment_play_count", "songs", fmt.Sprintf("song %d", id), err)
	}
	return nil
}

// SetFavorite updates the favorite flag.
func (r *SongRepository) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE songs SET favorite = ? WHERE id = ?`, boolToInt(favorite), id)
	if err != nil {
		return domain.NewRepositoryError("set_favorite", "songs", fmt.Sprintf("song %d", id), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSongNotFound
	}
	return nil
}

// MostPlayed returns up to limit songs with a nonzero play count, ordered
// by play count descending. Ties break by most recently played first, then
// by id, so the recompute is deterministic.
func (r *SongRepository) MostPlayed(ctx context.Context, limit int) ([]domain.Song, error) {
	return r.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE play_count > 0
		ORDER BY play_count DESC, last_played_at DESC, id ASC
		LIMIT ?`, limit)
}

// Favorites returns all favorite songs ordered by title.
func (r *SongRepository) Favorites(ctx context.Context) ([]domain.Song, error) {
	return r.querySongs(ctx,
		`SELECT `+songColumns+` FROM songs WHERE favorite = 1 ORDER BY title`)
}

func (r *SongRepository) querySongs(ctx context.Context, query string, args ...any) ([]domain.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError("query", "songs", "query", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, domain.NewRepositoryError("query", "songs", "scan", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("query", "songs", "rows", err)
	}
	return songs, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (domain.Song, error) {
	var (
		song         domain.Song
		durationMS   int64
		dateAdded    int64
		dateModified int64
		favorite     int
		lyrics       string
	)
	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Album,
		&durationMS,
		&song.Path,
		&song.Size,
		&dateAdded,
		&dateModified,
		&song.TrackNumber,
		&song.Year,
		&song.AlbumID,
		&song.ArtistID,
		&song.Composer,
		&song.AlbumArtist,
		&song.PlayCount,
		&favorite,
		&lyrics,
	)
	if err != nil {
		return domain.Song{}, err
	}

	song.Duration = time.Duration(durationMS) * time.Millisecond
	song.DateAdded = timeOrZero(dateAdded)
	song.DateModified = timeOrZero(dateModified)
	song.Favorite = favorite != 0
	song.Lyrics = decodeLyrics(lyrics)
	return song, nil
}

func encodeLyrics(lines []domain.LyricLine) string {
	if len(lines) == 0 {
		return ""
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeLyrics(data string) []domain.LyricLine {
	if data == "" {
		return nil
	}
	var lines []domain.LyricLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil
	}
	return lines
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Verify interface implementation
var _ ports.SongRepository = (*SongRepository)(nil)
