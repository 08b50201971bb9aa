// Package mapper converts between domain Songs and the engine's
// track-description objects. The engine type has no native fields for most
// song metadata, so those travel in the Extras bag; the MediaID string is
// the join key for every identity comparison in the bridge.
package mapper

import (
	"strconv"
	"time"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// Extras keys for metadata the engine track cannot carry natively.
const (
	extraSize         = "size"
	extraDateAdded    = "date_added"
	extraDateModified = "date_modified"
	extraTrackNumber  = "track_number"
	extraYear         = "year"
	extraAlbumID      = "album_id"
	extraArtistID     = "artist_id"
	extraComposer     = "composer"
	extraAlbumArtist  = "album_artist"
)

// ToEngineTrack converts a Song into the engine's track description.
// Pure data transformation, no side effects.
func ToEngineTrack(song domain.Song) ports.EngineTrack {
	return ports.EngineTrack{
		MediaID:    strconv.FormatInt(song.ID, 10),
		URI:        song.Path,
		Title:      song.Title,
		Artist:     song.Artist,
		Album:      song.Album,
		DurationMS: song.Duration.Milliseconds(),
		Extras: map[string]string{
			extraSize:         strconv.FormatInt(song.Size, 10),
			extraDateAdded:    formatUnix(song.DateAdded),
			extraDateModified: formatUnix(song.DateModified),
			extraTrackNumber:  strconv.Itoa(song.TrackNumber),
			extraYear:         strconv.Itoa(song.Year),
			extraAlbumID:      strconv.FormatInt(song.AlbumID, 10),
			extraArtistID:     strconv.FormatInt(song.ArtistID, 10),
			extraComposer:     song.Composer,
			extraAlbumArtist:  song.AlbumArtist,
		},
	}
}

// ToEngineTracks converts a slice of Songs preserving order.
func ToEngineTracks(songs []domain.Song) []ports.EngineTrack {
	tracks := make([]ports.EngineTrack, len(songs))
	for i, song := range songs {
		tracks[i] = ToEngineTrack(song)
	}
	return tracks
}

// ToSong converts an engine track back into a Song. Missing or malformed
// metadata decodes to zero values, never a failure.
func ToSong(track ports.EngineTrack) domain.Song {
	return domain.Song{
		ID:           parseInt64(track.MediaID),
		Title:        track.Title,
		Artist:       track.Artist,
		Album:        track.Album,
		Duration:     time.Duration(track.DurationMS) * time.Millisecond,
		Path:         track.URI,
		Size:         parseInt64(track.Extras[extraSize]),
		DateAdded:    parseUnix(track.Extras[extraDateAdded]),
		DateModified: parseUnix(track.Extras[extraDateModified]),
		TrackNumber:  parseInt(track.Extras[extraTrackNumber]),
		Year:         parseInt(track.Extras[extraYear]),
		AlbumID:      parseInt64(track.Extras[extraAlbumID]),
		ArtistID:     parseInt64(track.Extras[extraArtistID]),
		Composer:     track.Extras[extraComposer],
		AlbumArtist:  track.Extras[extraAlbumArtist],
	}
}

// SongID extracts the numeric song id from a track's MediaID, 0 when the
// identifier is absent or not a number.
func SongID(track ports.EngineTrack) int64 {
	return parseInt64(track.MediaID)
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseInt(s string) int {
	return int(parseInt64(s))
}

func formatUnix(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func parseUnix(s string) time.Time {
	n := parseInt64(s)
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
