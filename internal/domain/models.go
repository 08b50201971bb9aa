// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Soundleaf playback core.
package domain

import (
	"time"
)

// Song represents a single audio track found on local storage.
// Identity is the ID (the stable device-media identifier); every other
// field is display or derived metadata.
type Song struct {
	// ID is the stable numeric identifier assigned by the media index
	ID int64

	// Title is the song title (from metadata or filename)
	Title string

	// Artist is the performing artist, empty when unknown
	Artist string

	// Album is the album name, empty when unknown
	Album string

	// Duration is the total length of the track
	Duration time.Duration

	// Path is the absolute path to the audio file on the filesystem
	Path string

	// Size is the file size in bytes
	Size int64

	// DateAdded is when the file entered the library
	DateAdded time.Time

	// DateModified is the file's last modification time
	DateModified time.Time

	// TrackNumber is the track number on the album
	TrackNumber int

	// Year is the release year
	Year int

	// AlbumID groups songs of the same album
	AlbumID int64

	// ArtistID groups songs of the same artist
	ArtistID int64

	// Composer is the song composer
	Composer string

	// AlbumArtist is the album-level artist credit
	AlbumArtist string

	// PlayCount is the persisted number of genuine play starts
	PlayCount int

	// Favorite marks the song as a user favorite
	Favorite bool

	// Lyrics holds timestamped lyric lines ordered by offset
	Lyrics []LyricLine
}

// LyricLine is a single synchronized lyric entry.
type LyricLine struct {
	// OffsetMS is the line's timestamp in milliseconds from track start
	OffsetMS int64

	// Text is the lyric line
	Text string
}

// Playlist is an ordered list of song ids. Duplicate ids and references to
// songs that no longer exist are tolerated, not errors.
type Playlist struct {
	ID      int64
	Name    string
	SongIDs []int64
}

// Reserved playlist ids for the system-managed smart playlists. Their
// contents are recomputed, never edited directly by the user.
const (
	PlaylistRecentlyPlayed int64 = -1
	PlaylistMostPlayed     int64 = -2
	PlaylistFavorites      int64 = -3
)

// IsSmartPlaylist reports whether the id denotes a system-managed playlist.
func IsSmartPlaylist(id int64) bool {
	switch id {
	case PlaylistRecentlyPlayed, PlaylistMostPlayed, PlaylistFavorites:
		return true
	default:
		return false
	}
}

// PlayerState is the normalized playback state exposed by the bridge.
type PlayerState int

const (
	// StateIdle indicates no prepared media
	StateIdle PlayerState = iota

	// StateLoading indicates the engine is buffering
	StateLoading

	// StateReady indicates media is prepared but not advancing
	StateReady

	// StatePlaying indicates playback is actively advancing
	StatePlaying

	// StateEnded indicates playback reached the end with nothing queued
	StateEnded
)

// String returns a human-readable representation of the player state.
func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// RepeatMode selects how the queue repeats.
type RepeatMode int

const (
	// RepeatOff plays the queue through once
	RepeatOff RepeatMode = iota

	// RepeatOne repeats the current item
	RepeatOne

	// RepeatAll repeats the whole queue
	RepeatAll
)

// String returns the persisted name of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "ONE"
	case RepeatAll:
		return "ALL"
	default:
		return "OFF"
	}
}

// RepeatModeFromString parses a persisted repeat mode name.
// Unknown names fall back to RepeatOff.
func RepeatModeFromString(name string) RepeatMode {
	switch name {
	case "ONE":
		return RepeatOne
	case "ALL":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// Command is one entry of the closed vocabulary of player commands the
// bridge maps from engine capability codes. Any new engine capability
// requires an explicit extension here.
type Command int

const (
	// CommandPlayPause toggles between play and pause
	CommandPlayPause Command = iota

	// CommandSeekBack jumps back by the configured increment
	CommandSeekBack

	// CommandSeekForward jumps forward by the configured increment
	CommandSeekForward

	// CommandSkipPrevious moves to the previous queue item
	CommandSkipPrevious

	// CommandSkipNext moves to the next queue item
	CommandSkipNext

	// CommandSetShuffle toggles shuffle mode
	CommandSetShuffle
)

// String returns a human-readable command name.
func (c Command) String() string {
	switch c {
	case CommandPlayPause:
		return "play_pause"
	case CommandSeekBack:
		return "seek_back"
	case CommandSeekForward:
		return "seek_forward"
	case CommandSkipPrevious:
		return "skip_previous"
	case CommandSkipNext:
		return "skip_next"
	case CommandSetShuffle:
		return "set_shuffle"
	default:
		return "unknown"
	}
}

// ScanProgress represents the progress of a music library scan operation.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan (may be -1 if unknown)
	TotalFiles int

	// SongsFound is the number of valid songs found
	SongsFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
