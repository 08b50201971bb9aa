// Package config loads application configuration from the environment,
// optionally seeded by a .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	// DatabasePath is the SQLite database file location.
	DatabasePath string

	// MusicDirs are the library roots the scanner walks.
	MusicDirs []string

	// SmartPlaylistSize caps Most-Played and Recently-Played.
	SmartPlaylistSize int

	// SeekBackMS and SeekForwardMS configure the engine's jump increments.
	SeekBackMS    int64
	SeekForwardMS int64
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabasePath:      getString("SOUNDLEAF_DB_PATH", defaultDatabasePath()),
		MusicDirs:         getStringList("SOUNDLEAF_MUSIC_DIRS", defaultMusicDirs()),
		SmartPlaylistSize: getInt("SOUNDLEAF_SMART_PLAYLIST_SIZE", 20),
		SeekBackMS:        getInt64("SOUNDLEAF_SEEK_BACK_MS", 10_000),
		SeekForwardMS:     getInt64("SOUNDLEAF_SEEK_FORWARD_MS", 30_000),
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "soundleaf.db"
	}
	return filepath.Join(home, ".soundleaf", "soundleaf.db")
}

func defaultMusicDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}
	}
	return []string{filepath.Join(home, "Music")}
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getStringList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	if len(list) == 0 {
		return fallback
	}
	return list
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
