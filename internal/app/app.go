// Package app assembles the application: configuration, storage, event
// bus, services, engine and bridge, with constructor injection throughout.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/soundleaf/soundleaf/internal/adapter/engine/beep"
	"github.com/soundleaf/soundleaf/internal/adapter/eventbus"
	"github.com/soundleaf/soundleaf/internal/adapter/repository/sqlite"
	"github.com/soundleaf/soundleaf/internal/config"
	"github.com/soundleaf/soundleaf/internal/service"
)

// App owns every long-lived component and its shutdown order.
type App struct {
	logger *slog.Logger
	cfg    *config.Config

	store *sqlite.Store
	bus   *eventbus.SyncEventBus

	Library   *service.LibraryService
	Playlists *service.PlaylistService
	Bridge    *service.PlayerBridge
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	bus := eventbus.NewSyncEventBus(logger)

	pipeline := service.NewPlayCountPipeline(
		store.Songs(), store.Playlists(), cfg.SmartPlaylistSize, logger)

	bridge := service.NewPlayerBridge(store.Preferences(), pipeline, logger)
	bridge.Attach(beep.New(cfg.SeekBackMS, cfg.SeekForwardMS, logger))

	return &App{
		logger:    logger,
		cfg:       cfg,
		store:     store,
		bus:       bus,
		Library:   service.NewLibraryService(store.Songs(), bus, cfg.MusicDirs, logger),
		Playlists: service.NewPlaylistService(store.Songs(), store.Playlists(), bus, logger),
		Bridge:    bridge,
	}, nil
}

// Run scans the library, loads the full song list into the playback queue
// (which triggers the session restore) and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Library.Scan(ctx); err != nil {
		a.logger.Error("library scan failed", "error", err)
	}

	songs, err := a.Library.Songs(ctx)
	if err != nil {
		return err
	}
	if len(songs) > 0 {
		a.Bridge.SetMediaList(songs)
	} else {
		a.logger.Info("library is empty, nothing to queue")
	}

	<-ctx.Done()
	return nil
}

// Close shuts components down in reverse construction order.
func (a *App) Close() {
	a.Bridge.Close()
	if err := a.bus.Close(); err != nil {
		a.logger.Warn("close event bus", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
}
