package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/brensch/snekworld/config"
	"github.com/brensch/snekworld/logging"
	"github.com/brensch/snekworld/scores"
	"github.com/brensch/snekworld/sim"
	"github.com/brensch/snekworld/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Register(flag.CommandLine, config.Default())
	workers := flag.Int("workers", runtime.NumCPU(), "Number of simulation workers")
	games := flag.Int64("games", 100, "Stop after this many games (0 runs until the timeout)")
	gamesPerFlush := flag.Int("games-per-flush", 50, "Number of games to buffer per parquet flush")
	seed := flag.Int64("seed", 0, "Base seed (0 uses the clock)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	var writer *sim.BatchWriter
	if cfg.RecordDir != "" {
		index, err := store.OpenIndex(filepath.Join(cfg.RecordDir, "index", "games.log"))
		if err != nil {
			log.Fatalf("Failed to open game index: %v", err)
		}
		defer index.Close()
		writer = sim.NewBatchWriter(cfg.RecordDir, *gamesPerFlush, index, logger)
	}
	var db *scores.DB
	if cfg.ScoresDB != "" {
		db, err = scores.Open(cfg.ScoresDB)
		if err != nil {
			log.Fatalf("Failed to open scores db: %v", err)
		}
		defer db.Close()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, cfg.Timeout)
	defer cancel()

	simCfg := sim.Config{
		Width:    cfg.Width,
		Workers:  *workers,
		Games:    *games,
		MaxTurns: cfg.MaxTurns,
		Seed:     *seed,
		Record:   writer != nil,
	}
	logger.Info("starting simulation", "workers", simCfg.Workers, "games", simCfg.Games, "width", simCfg.Width, "max_turns", simCfg.MaxTurns)

	results := make(chan sim.GameResult, *workers)
	runErr := make(chan error, 1)
	go func() { runErr <- sim.Run(ctx, simCfg, results) }()

	var summary sim.Summary
	start := time.Now()
	for r := range results {
		summary.Add(r)
		logger.Debug("game finished", "worker", r.WorkerID, "game", r.GameID, "status", r.Status.String(), "points", r.Points, "turns", r.Turns)

		if writer != nil {
			if err := writer.Add(r); err != nil {
				logger.Error("record games", "err", err)
			}
		}
		if db != nil && r.Status.Terminal() {
			err := db.Record(context.Background(), scores.Result{
				GameID:     r.GameID,
				Width:      cfg.Width,
				Points:     r.Points,
				Length:     r.Length,
				Status:     r.Status.String(),
				Turns:      r.Turns,
				FinishedAt: time.Now().UTC(),
			})
			if err != nil {
				logger.Error("record score", "game", r.GameID, "err", err)
			}
		}
	}
	err = <-runErr
	if writer != nil {
		if ferr := writer.Flush(); ferr != nil {
			log.Fatalf("Final flush failed: %v", ferr)
		}
	}
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Println(summary)
	if summary.Games > 0 {
		fmt.Printf("elapsed=%s games/sec=%.2f win_rate=%.1f%%\n",
			elapsed.Round(time.Millisecond),
			float64(summary.Games)/elapsed.Seconds(),
			100*float64(summary.Won)/float64(summary.Games))
	}
}
