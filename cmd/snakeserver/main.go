package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brensch/snekworld/config"
	"github.com/brensch/snekworld/logging"
	"github.com/brensch/snekworld/scores"
	"github.com/brensch/snekworld/server"
	"github.com/brensch/snekworld/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Register(flag.CommandLine, config.Default())
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := server.Options{
		Width:     cfg.Width,
		FPS:       cfg.FPS,
		CellSize:  cfg.CellSize,
		AssetsDir: cfg.AssetsDir,
		RecordDir: cfg.RecordDir,
		Logger:    logger,
	}
	if cfg.ScoresDB != "" {
		db, err := scores.Open(cfg.ScoresDB)
		if err != nil {
			log.Fatalf("Failed to open scores db: %v", err)
		}
		defer db.Close()
		opts.Scores = db
	}
	if cfg.RecordDir != "" {
		index, err := store.OpenIndex(filepath.Join(cfg.RecordDir, "index", "games.log"))
		if err != nil {
			log.Fatalf("Failed to open game index: %v", err)
		}
		defer index.Close()
		opts.Index = index

		games, err := store.OpenQuery(cfg.RecordDir)
		if err != nil {
			log.Fatalf("Failed to open duckdb: %v", err)
		}
		defer games.Close()
		opts.Games = games
	}

	srv, err := server.New(opts)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Watch(ctx); err != nil {
			logger.Error("asset watcher stopped", "err", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Addr, "width", cfg.Width, "fps", cfg.FPS, "assets", cfg.AssetsDir, "record_dir", cfg.RecordDir, "scores_db", cfg.ScoresDB)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("shutdown complete")
}
