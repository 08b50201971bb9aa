package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// PlaylistService manages user playlists and favorite flags. Smart
// playlists are readable through it but never user-editable; their contents
// come from the play-count pipeline and the favorite recompute below.
type PlaylistService struct {
	songs     ports.SongRepository
	playlists ports.PlaylistRepository
	bus       ports.EventBus
	logger    *slog.Logger
}

// NewPlaylistService creates the playlist manager.
func NewPlaylistService(songs ports.SongRepository, playlists ports.PlaylistRepository, bus ports.EventBus, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		songs:     songs,
		playlists: playlists,
		bus:       bus,
		logger:    logger,
	}
}

// Create adds a user playlist.
func (s *PlaylistService) Create(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewServiceError("PlaylistService", "create", "empty playlist name", nil)
	}
	id, err := s.playlists.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return id, nil
}

// Rename changes a user playlist's name.
func (s *PlaylistService) Rename(ctx context.Context, id int64, name string) error {
	if domain.IsSmartPlaylist(id) {
		return domain.ErrSmartPlaylist
	}
	if err := s.playlists.Rename(ctx, id, strings.TrimSpace(name)); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return nil
}

// Delete removes a user playlist.
func (s *PlaylistService) Delete(ctx context.Context, id int64) error {
	if domain.IsSmartPlaylist(id) {
		return domain.ErrSmartPlaylist
	}
	if err := s.playlists.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return nil
}

// All returns every playlist, smart playlists first.
func (s *PlaylistService) All(ctx context.Context) ([]domain.Playlist, error) {
	return s.playlists.All(ctx)
}

// ByID retrieves one playlist with its ordered song ids.
func (s *PlaylistService) ByID(ctx context.Context, id int64) (*domain.Playlist, error) {
	return s.playlists.ByID(ctx, id)
}

// AddSongs appends song ids to a user playlist.
func (s *PlaylistService) AddSongs(ctx context.Context, id int64, songIDs ...int64) error {
	if domain.IsSmartPlaylist(id) {
		return domain.ErrSmartPlaylist
	}
	if len(songIDs) == 0 {
		return nil
	}
	if err := s.playlists.AppendSongIDs(ctx, id, songIDs); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return nil
}

// RemoveAt removes the entry at position from a user playlist.
func (s *PlaylistService) RemoveAt(ctx context.Context, id int64, position int) error {
	if domain.IsSmartPlaylist(id) {
		return domain.ErrSmartPlaylist
	}
	playlist, err := s.playlists.ByID(ctx, id)
	if err != nil {
		return err
	}
	if position < 0 || position >= len(playlist.SongIDs) {
		return domain.ErrInvalidIndex
	}

	ids := append(playlist.SongIDs[:position:position], playlist.SongIDs[position+1:]...)
	if err := s.playlists.ReplaceSongIDs(ctx, id, ids); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return nil
}

// MoveSong moves the entry at from to position to within a user playlist.
func (s *PlaylistService) MoveSong(ctx context.Context, id int64, from, to int) error {
	if domain.IsSmartPlaylist(id) {
		return domain.ErrSmartPlaylist
	}
	playlist, err := s.playlists.ByID(ctx, id)
	if err != nil {
		return err
	}
	ids := playlist.SongIDs
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return domain.ErrInvalidIndex
	}
	if from == to {
		return nil
	}

	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	rest := append([]int64(nil), ids[to:]...)
	ids = append(append(ids[:to], moved), rest...)

	if err := s.playlists.ReplaceSongIDs(ctx, id, ids); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(id))
	return nil
}

// Songs resolves a playlist's song ids to Song records, in playlist order.
// Ids whose songs no longer exist are skipped, not errors.
func (s *PlaylistService) Songs(ctx context.Context, id int64) ([]domain.Song, error) {
	playlist, err := s.playlists.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	songs := make([]domain.Song, 0, len(playlist.SongIDs))
	for _, songID := range playlist.SongIDs {
		song, err := s.songs.ByID(ctx, songID)
		if err == domain.ErrSongNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}
	return songs, nil
}

// SetFavorite updates a song's favorite flag and recomputes the Favorites
// smart playlist. The recompute is best-effort: its failure is logged and
// does not undo the flag update.
func (s *PlaylistService) SetFavorite(ctx context.Context, songID int64, favorite bool) error {
	if err := s.songs.SetFavorite(ctx, songID, favorite); err != nil {
		return err
	}
	s.bus.Publish(domain.NewFavoriteToggledEvent(songID, favorite))

	if err := s.recomputeFavorites(ctx); err != nil {
		s.logger.Error("recompute favorites", "song_id", songID, "error", err)
	}
	return nil
}

func (s *PlaylistService) recomputeFavorites(ctx context.Context) error {
	favorites, err := s.songs.Favorites(ctx)
	if err != nil {
		return err
	}
	ids := make([]int64, len(favorites))
	for i, song := range favorites {
		ids[i] = song.ID
	}
	if err := s.playlists.ReplaceSongIDs(ctx, domain.PlaylistFavorites, ids); err != nil {
		return err
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(domain.PlaylistFavorites))
	return nil
}
