package service

import (
	"context"
	"log/slog"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// DefaultSmartPlaylistSize caps the Most-Played and Recently-Played smart
// playlists.
const DefaultSmartPlaylistSize = 20

// PlayCountPipeline turns genuine track transitions into persisted play
// counters and recomputed smart playlists. The increment and the
// recomputes are independently best-effort: a recompute failure never
// undoes the committed increment and is logged, not propagated.
type PlayCountPipeline struct {
	songs     ports.SongRepository
	playlists ports.PlaylistRepository
	logger    *slog.Logger
	topN      int
}

// NewPlayCountPipeline creates the pipeline. topN caps the smart playlists;
// values below 1 fall back to DefaultSmartPlaylistSize.
func NewPlayCountPipeline(songs ports.SongRepository, playlists ports.PlaylistRepository, topN int, logger *slog.Logger) *PlayCountPipeline {
	if topN < 1 {
		topN = DefaultSmartPlaylistSize
	}
	return &PlayCountPipeline{
		songs:     songs,
		playlists: playlists,
		logger:    logger,
		topN:      topN,
	}
}

// RecordPlay registers one genuine play start for songID: increments the
// persisted counter, then recomputes the Most-Played and Recently-Played
// smart playlists.
func (p *PlayCountPipeline) RecordPlay(ctx context.Context, songID int64) {
	if err := p.songs.IncrementPlayCount(ctx, songID); err != nil {
		p.logger.Error("increment play count", "song_id", songID, "error", err)
		return
	}

	if err := p.recomputeMostPlayed(ctx); err != nil {
		p.logger.Error("recompute most played", "song_id", songID, "error", err)
	}
	if err := p.updateRecentlyPlayed(ctx, songID); err != nil {
		p.logger.Error("update recently played", "song_id", songID, "error", err)
	}
}

func (p *PlayCountPipeline) recomputeMostPlayed(ctx context.Context) error {
	top, err := p.songs.MostPlayed(ctx, p.topN)
	if err != nil {
		return err
	}
	ids := make([]int64, len(top))
	for i, song := range top {
		ids[i] = song.ID
	}
	return p.playlists.ReplaceSongIDs(ctx, domain.PlaylistMostPlayed, ids)
}

// updateRecentlyPlayed prepends songID to the Recently-Played list,
// dropping an earlier occurrence and capping at topN.
func (p *PlayCountPipeline) updateRecentlyPlayed(ctx context.Context, songID int64) error {
	recent, err := p.playlists.ByID(ctx, domain.PlaylistRecentlyPlayed)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(recent.SongIDs)+1)
	ids = append(ids, songID)
	for _, id := range recent.SongIDs {
		if id == songID {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) > p.topN {
		ids = ids[:p.topN]
	}
	return p.playlists.ReplaceSongIDs(ctx, domain.PlaylistRecentlyPlayed, ids)
}

// Verify interface implementation
var _ PlayCounter = (*PlayCountPipeline)(nil)
