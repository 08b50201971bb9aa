package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleaf/soundleaf/internal/domain"
)

func newTestPipeline(t *testing.T, topN int) (*PlayCountPipeline, *memSongRepo, *memPlaylistRepo) {
	t.Helper()
	songs := newMemSongRepo()
	playlists := newMemPlaylistRepo()
	return NewPlayCountPipeline(songs, playlists, topN, testLogger()), songs, playlists
}

func TestRecordPlay_IncrementsAndRecomputes(t *testing.T) {
	pipeline, songs, playlists := newTestPipeline(t, 20)
	ctx := context.Background()
	require.NoError(t, songs.Upsert(ctx, []domain.Song{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}))

	pipeline.RecordPlay(ctx, 1)
	pipeline.RecordPlay(ctx, 2)
	pipeline.RecordPlay(ctx, 2)

	assert.Equal(t, 1, songs.playCount(1))
	assert.Equal(t, 2, songs.playCount(2))
	assert.Equal(t, []int64{2, 1}, playlists.songIDs(domain.PlaylistMostPlayed))
	assert.Equal(t, []int64{2, 1}, playlists.songIDs(domain.PlaylistRecentlyPlayed))
}

func TestRecordPlay_MostPlayedTieBreaksByRecency(t *testing.T) {
	pipeline, songs, playlists := newTestPipeline(t, 20)
	ctx := context.Background()
	require.NoError(t, songs.Upsert(ctx, []domain.Song{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}))

	pipeline.RecordPlay(ctx, 2)
	pipeline.RecordPlay(ctx, 1)

	// Equal counts: the more recently played song ranks first.
	assert.Equal(t, []int64{1, 2}, playlists.songIDs(domain.PlaylistMostPlayed))
}

func TestRecordPlay_IncrementSurvivesRecomputeFailure(t *testing.T) {
	pipeline, songs, playlists := newTestPipeline(t, 20)
	ctx := context.Background()
	require.NoError(t, songs.Upsert(ctx, []domain.Song{{ID: 1, Title: "a"}}))
	playlists.failReplace = errStorageDown

	assert.NotPanics(t, func() { pipeline.RecordPlay(ctx, 1) })

	assert.Equal(t, 1, songs.playCount(1))
	assert.Empty(t, playlists.songIDs(domain.PlaylistMostPlayed))
}

func TestRecordPlay_RecentlyPlayedDeduplicates(t *testing.T) {
	pipeline, songs, playlists := newTestPipeline(t, 20)
	ctx := context.Background()
	require.NoError(t, songs.Upsert(ctx, []domain.Song{
		{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"},
	}))

	pipeline.RecordPlay(ctx, 1)
	pipeline.RecordPlay(ctx, 2)
	pipeline.RecordPlay(ctx, 3)
	pipeline.RecordPlay(ctx, 1)

	assert.Equal(t, []int64{1, 3, 2}, playlists.songIDs(domain.PlaylistRecentlyPlayed))
}

func TestRecordPlay_RecentlyPlayedCapped(t *testing.T) {
	pipeline, songs, playlists := newTestPipeline(t, 2)
	ctx := context.Background()
	require.NoError(t, songs.Upsert(ctx, []domain.Song{
		{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"},
	}))

	pipeline.RecordPlay(ctx, 1)
	pipeline.RecordPlay(ctx, 2)
	pipeline.RecordPlay(ctx, 3)

	assert.Equal(t, []int64{3, 2}, playlists.songIDs(domain.PlaylistRecentlyPlayed))
	assert.Len(t, playlists.songIDs(domain.PlaylistMostPlayed), 2)
}

func TestRecordPlay_UnknownSongIsHarmless(t *testing.T) {
	pipeline, _, playlists := newTestPipeline(t, 20)

	assert.NotPanics(t, func() { pipeline.RecordPlay(context.Background(), 404) })
	assert.Empty(t, playlists.songIDs(domain.PlaylistMostPlayed))
}
