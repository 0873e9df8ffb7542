package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/brensch/snekworld/config"
	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/logging"
	"github.com/brensch/snekworld/scores"
	"github.com/brensch/snekworld/store"
	"github.com/brensch/snekworld/tui"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Register(flag.CommandLine, config.Default())
	autopilot := flag.Bool("autopilot", false, "Let the autopilot steer")
	seed := flag.Int64("seed", 0, "Seed for spawn and reward placement (0 uses the clock)")
	logFile := flag.String("log-file", "", "Write logs here; the terminal is owned by the board")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	var db *scores.DB
	if cfg.ScoresDB != "" {
		db, err = scores.Open(cfg.ScoresDB)
		if err != nil {
			log.Fatalf("Failed to open scores db: %v", err)
		}
		defer db.Close()
	}
	var index *store.Index
	if cfg.RecordDir != "" {
		index, err = store.OpenIndex(filepath.Join(cfg.RecordDir, "index", "games.log"))
		if err != nil {
			log.Fatalf("Failed to open game index: %v", err)
		}
		defer index.Close()
	}

	var (
		games    int64
		gameID   string
		recorder *store.Recorder
	)
	newWorld := func() (*game.World, error) {
		games++
		gameID = uuid.NewString()
		recorder = store.NewRecorder(gameID)

		var src game.IndexSource
		if *seed != 0 {
			src = game.NewSeededSource(*seed + games)
		} else {
			src = game.NewSeededSource(time.Now().UnixNano())
		}
		w, err := game.New(cfg.Width, game.RandomSpawn(cfg.Width, src), game.WithRand(src))
		if err != nil {
			return nil, err
		}
		recorder.Record(w)
		return w, nil
	}

	record := func(w *game.World) {
		recorder.Record(w)
	}
	onFinish := func(w *game.World) {
		recorder.Record(w)
		status, _ := w.GameStatus()
		logger.Info("game finished", "game", gameID, "status", status.String(), "points", w.Points(), "turns", w.Turn())

		if db != nil {
			result, err := scores.ResultFromWorld(gameID, w, time.Now())
			if err == nil {
				err = db.Record(context.Background(), result)
			}
			if err != nil {
				logger.Error("record score", "game", gameID, "err", err)
			}
		}
		if cfg.RecordDir != "" {
			path, err := recorder.Flush(cfg.RecordDir)
			if err != nil {
				logger.Error("write recording", "game", gameID, "err", err)
				return
			}
			if err := index.Add(gameID, path); err != nil {
				logger.Error("index recording", "game", gameID, "err", err)
			}
		}
	}

	m, err := tui.New(tui.Options{
		NewWorld:  newWorld,
		Interval:  cfg.TickInterval(),
		Autopilot: *autopilot,
		OnStart:   record,
		OnStep:    record,
		OnFinish:  onFinish,
	})
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		log.Fatalf("Program failed: %v", err)
	}
	if fm, ok := final.(tui.Model); ok {
		if err := fm.Err(); err != nil {
			log.Fatalf("Game error: %v", err)
		}
		w := fm.World()
		fmt.Printf("%s  points: %d  turns: %d\n", w.GameStatusText(), w.Points(), w.Turn())
	}
}
