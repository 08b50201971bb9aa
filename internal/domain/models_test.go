package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSmartPlaylist(t *testing.T) {
	assert.True(t, IsSmartPlaylist(PlaylistRecentlyPlayed))
	assert.True(t, IsSmartPlaylist(PlaylistMostPlayed))
	assert.True(t, IsSmartPlaylist(PlaylistFavorites))
	assert.False(t, IsSmartPlaylist(0))
	assert.False(t, IsSmartPlaylist(1))
	assert.False(t, IsSmartPlaylist(-4))
}

func TestRepeatModeRoundTrip(t *testing.T) {
	for _, mode := range []RepeatMode{RepeatOff, RepeatOne, RepeatAll} {
		assert.Equal(t, mode, RepeatModeFromString(mode.String()))
	}
	assert.Equal(t, RepeatOff, RepeatModeFromString("garbage"))
}

func TestPlayerStateString(t *testing.T) {
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "unknown", PlayerState(42).String())
}

func TestScanProgressPercentage(t *testing.T) {
	assert.Equal(t, float64(-1), ScanProgress{TotalFiles: -1}.Percentage())
	assert.Equal(t, float64(50), ScanProgress{FilesScanned: 5, TotalFiles: 10}.Percentage())
}
