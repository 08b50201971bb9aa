package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// memSongRepo is an in-memory ports.SongRepository with failure injection.
type memSongRepo struct {
	mu         sync.Mutex
	songs      map[int64]domain.Song
	playOrder  map[int64]int // logical last-played clock per song
	clock      int
	failSearch error
}

func newMemSongRepo() *memSongRepo {
	return &memSongRepo{
		songs:     make(map[int64]domain.Song),
		playOrder: make(map[int64]int),
	}
}

func (r *memSongRepo) Upsert(_ context.Context, songs []domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, song := range songs {
		if existing, ok := r.songs[song.ID]; ok {
			song.PlayCount = existing.PlayCount
			song.Favorite = existing.Favorite
			if !existing.DateAdded.IsZero() {
				song.DateAdded = existing.DateAdded
			}
		}
		r.songs[song.ID] = song
	}
	return nil
}

func (r *memSongRepo) ByID(_ context.Context, id int64) (*domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return nil, domain.ErrSongNotFound
	}
	return &song, nil
}

func (r *memSongRepo) All(_ context.Context) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Song, 0, len(r.songs))
	for _, song := range r.songs {
		result = append(result, song)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (r *memSongRepo) Search(_ context.Context, query string) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSearch != nil {
		return nil, r.failSearch
	}
	query = strings.ToLower(query)
	var result []domain.Song
	for _, song := range r.songs {
		haystack := strings.ToLower(song.Title + " " + song.Artist + " " + song.Album)
		if strings.Contains(haystack, query) {
			result = append(result, song)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (r *memSongRepo) DeleteByIDs(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.songs, id)
	}
	return nil
}

func (r *memSongRepo) IncrementPlayCount(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return nil
	}
	song.PlayCount++
	r.songs[id] = song
	r.clock++
	r.playOrder[id] = r.clock
	return nil
}

func (r *memSongRepo) SetFavorite(_ context.Context, id int64, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	song, ok := r.songs[id]
	if !ok {
		return domain.ErrSongNotFound
	}
	song.Favorite = favorite
	r.songs[id] = song
	return nil
}

func (r *memSongRepo) MostPlayed(_ context.Context, limit int) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Song
	for _, song := range r.songs {
		if song.PlayCount > 0 {
			result = append(result, song)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		if r.playOrder[a.ID] != r.playOrder[b.ID] {
			return r.playOrder[a.ID] > r.playOrder[b.ID]
		}
		return a.ID < b.ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memSongRepo) Favorites(_ context.Context) ([]domain.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Song
	for _, song := range r.songs {
		if song.Favorite {
			result = append(result, song)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (r *memSongRepo) playCount(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.songs[id].PlayCount
}

var _ ports.SongRepository = (*memSongRepo)(nil)

// memPlaylistRepo is an in-memory ports.PlaylistRepository with failure
// injection, seeded with the smart playlists.
type memPlaylistRepo struct {
	mu          sync.Mutex
	playlists   map[int64]*domain.Playlist
	nextID      int64
	failReplace error
}

func newMemPlaylistRepo() *memPlaylistRepo {
	return &memPlaylistRepo{
		playlists: map[int64]*domain.Playlist{
			domain.PlaylistRecentlyPlayed: {ID: domain.PlaylistRecentlyPlayed, Name: "Recently Played"},
			domain.PlaylistMostPlayed:     {ID: domain.PlaylistMostPlayed, Name: "Most Played"},
			domain.PlaylistFavorites:      {ID: domain.PlaylistFavorites, Name: "Favorites"},
		},
		nextID: 1,
	}
}

func (r *memPlaylistRepo) Create(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.playlists[id] = &domain.Playlist{ID: id, Name: name}
	return id, nil
}

func (r *memPlaylistRepo) Rename(_ context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	playlist.Name = name
	return nil
}

func (r *memPlaylistRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playlists, id)
	return nil
}

func (r *memPlaylistRepo) ByID(_ context.Context, id int64) (*domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[id]
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}
	copied := *playlist
	copied.SongIDs = append([]int64(nil), playlist.SongIDs...)
	return &copied, nil
}

func (r *memPlaylistRepo) All(_ context.Context) ([]domain.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Playlist, 0, len(r.playlists))
	for _, playlist := range r.playlists {
		copied := *playlist
		copied.SongIDs = append([]int64(nil), playlist.SongIDs...)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if (a.ID < 0) != (b.ID < 0) {
			return a.ID < 0
		}
		return a.ID < b.ID
	})
	return result, nil
}

func (r *memPlaylistRepo) ReplaceSongIDs(_ context.Context, id int64, songIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReplace != nil {
		return r.failReplace
	}
	playlist, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	playlist.SongIDs = append([]int64(nil), songIDs...)
	return nil
}

func (r *memPlaylistRepo) AppendSongIDs(_ context.Context, id int64, songIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	playlist.SongIDs = append(playlist.SongIDs, songIDs...)
	return nil
}

func (r *memPlaylistRepo) songIDs(id int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlist, ok := r.playlists[id]
	if !ok {
		return nil
	}
	return append([]int64(nil), playlist.SongIDs...)
}

var _ ports.PlaylistRepository = (*memPlaylistRepo)(nil)

var errStorageDown = errors.New("storage unavailable")
