// Command soundleaf runs the headless playback core: it scans the music
// library, restores the last session and serves playback until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/soundleaf/soundleaf/internal/app"
	"github.com/soundleaf/soundleaf/internal/config"
	"github.com/soundleaf/soundleaf/internal/logger"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("soundleaf started",
		"db", cfg.DatabasePath, "music_dirs", cfg.MusicDirs)

	if err := application.Run(ctx); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
	log.Info("soundleaf stopped")
}
