// Package client plays games against a running snake server over its
// websocket, steering each game with the autopilot.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/rules"
)

type Config struct {
	URL            string // websocket endpoint, e.g. ws://localhost:3000/ws
	Games          int    // games to play before disconnecting
	MaxTurns       int    // restart a game that reaches this turn; 0 means no limit
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:            "ws://localhost:3000/ws",
		Games:          1,
		MaxTurns:       2000,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Event is a message from the server.
type Event struct {
	Type     string         `json:"type"`
	Session  string         `json:"session,omitempty"`
	Game     string         `json:"game,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Intent is a message to the server.
type Intent struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

// Result is one game as the bot saw it end. Status is Played for a game
// abandoned at MaxTurns.
type Result struct {
	Session string
	GameID  string
	Status  game.Status
	Points  int
	Turns   int
}

type Stats struct {
	Frames  int64
	Intents int64
}

type Bot struct {
	config Config
	logger *slog.Logger
	steer  func(*game.World) game.Direction

	frames  atomic.Int64
	intents atomic.Int64
}

func NewBot(config Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{config: config, logger: logger, steer: rules.Autopilot}
}

func (b *Bot) Stats() Stats {
	return Stats{Frames: b.frames.Load(), Intents: b.intents.Load()}
}

// Play connects, plays config.Games games and returns their results. If
// ctx ends first it returns the games finished so far with ctx.Err().
func (b *Bot) Play(ctx context.Context) ([]Result, error) {
	if b.config.Games <= 0 {
		return nil, errors.New("client: games must be positive")
	}

	dialer := websocket.Dialer{HandshakeTimeout: b.config.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, b.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var (
		results     []Result
		plannedGame string
		plannedTurn = -1
		lastResult  string
	)
	for {
		if b.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(b.config.ReadTimeout))
		}
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			return results, fmt.Errorf("read error: %w", err)
		}

		switch ev.Type {
		case "error":
			b.logger.Warn("server error", "session", ev.Session, "error", ev.Error)
			continue
		case "snapshot":
		default:
			continue
		}
		if ev.Snapshot == nil {
			continue
		}
		b.frames.Add(1)
		snap := *ev.Snapshot

		var intent *Intent
		switch {
		case !snap.Started():
			intent = &Intent{Type: "start"}

		case snap.Status.Terminal() || (b.config.MaxTurns > 0 && snap.Turn >= b.config.MaxTurns):
			if ev.Game == lastResult {
				continue
			}
			lastResult = ev.Game
			results = append(results, Result{
				Session: ev.Session,
				GameID:  ev.Game,
				Status:  snap.Status,
				Points:  snap.Points,
				Turns:   snap.Turn,
			})
			b.logger.Info("game finished", "game", ev.Game, "status", snap.Status.String(), "points", snap.Points, "turns", snap.Turn)
			if len(results) >= b.config.Games {
				b.close(conn)
				return results, nil
			}
			intent = &Intent{Type: "restart"}

		default:
			if ev.Game == plannedGame && snap.Turn == plannedTurn {
				continue
			}
			plannedGame, plannedTurn = ev.Game, snap.Turn
			w, err := game.FromSnapshot(snap)
			if err != nil {
				return results, fmt.Errorf("mirror snapshot: %w", err)
			}
			// Always sent so a stale buffered heading is overwritten.
			intent = &Intent{Type: "direction", Direction: b.steer(w).String()}
		}

		if intent == nil {
			continue
		}
		if err := conn.WriteJSON(intent); err != nil {
			return results, fmt.Errorf("write error: %w", err)
		}
		b.intents.Add(1)
	}
}

func (b *Bot) close(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		b.logger.Debug("close", "err", err)
	}
}
