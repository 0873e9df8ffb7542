// Package sim plays headless autopilot games on a pool of workers.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/rules"
	"github.com/brensch/snekworld/store"
)

type Config struct {
	Width    int
	Workers  int
	Games    int64 // stop after this many games; 0 runs until ctx is done
	MaxTurns int   // 0 means no limit
	Seed     int64 // base seed, game n uses Seed+n; 0 seeds from the clock
	Record   bool  // keep one row per turn in each result
}

func (c Config) validate() error {
	var errs []error
	if c.Width < game.MinWidth {
		errs = append(errs, fmt.Errorf("width must be at least %d, got %d", game.MinWidth, c.Width))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Games < 0 {
		errs = append(errs, fmt.Errorf("games must not be negative, got %d", c.Games))
	}
	return errors.Join(errs...)
}

// GameResult is one finished (or turn-limited) game.
type GameResult struct {
	WorkerID int
	GameID   string
	Seed     int64
	Status   game.Status // Played when the turn limit was hit
	Points   int
	Length   int
	Turns    int
	Elapsed  time.Duration
	Rows     []store.TurnRow
}

// PlayGame runs one autopilot game from a seeded source. It returns
// ctx.Err() if the context ends first.
func PlayGame(ctx context.Context, gameID string, width int, seed int64, maxTurns int, record bool) (GameResult, error) {
	start := time.Now()
	src := game.NewSeededSource(seed)
	w, err := game.New(width, game.RandomSpawn(width, src), game.WithRand(src))
	if err != nil {
		return GameResult{}, err
	}

	var rec *store.Recorder
	if record {
		rec = store.NewRecorder(gameID)
		rec.Record(w)
	}
	if err := w.StartGame(); err != nil {
		return GameResult{}, err
	}
	if rec != nil {
		rec.Record(w)
	}

	for maxTurns <= 0 || w.Turn() < maxTurns {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}
		status, _ := w.GameStatus()
		if status.Terminal() {
			break
		}
		w.ChangeSnakeDirection(rules.Autopilot(w))
		if err := w.Step(); err != nil {
			return GameResult{}, err
		}
		if rec != nil {
			rec.Record(w)
		}
	}

	status, _ := w.GameStatus()
	res := GameResult{
		GameID:  gameID,
		Seed:    seed,
		Status:  status,
		Points:  w.Points(),
		Length:  w.SnakeLength(),
		Turns:   w.Turn(),
		Elapsed: time.Since(start),
	}
	if rec != nil {
		res.Rows = rec.Rows()
	}
	return res, nil
}

// playGame is PlayGame, swapped out by tests.
var playGame = PlayGame

// Run plays games on cfg.Workers goroutines and sends every result on
// results, closing it when all workers have stopped. Workers stop when
// cfg.Games have been claimed or ctx is done; a game interrupted by ctx
// is dropped. Any other game error stops the remaining workers and is
// returned.
func Run(ctx context.Context, cfg Config, results chan<- GameResult) error {
	defer close(results)
	if err := cfg.validate(); err != nil {
		return err
	}
	base := cfg.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	var claimed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		workerID := i
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				n := claimed.Add(1)
				if cfg.Games > 0 && n > cfg.Games {
					return nil
				}
				gameID := uuid.NewString()
				res, err := playGame(gctx, gameID, cfg.Width, base+n, cfg.MaxTurns, cfg.Record)
				if err != nil {
					if gctx.Err() != nil && errors.Is(err, gctx.Err()) {
						return nil
					}
					return fmt.Errorf("worker %d game %s (seed %d): %w", workerID, gameID, base+n, err)
				}
				res.WorkerID = workerID
				select {
				case results <- res:
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	return g.Wait()
}
