package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/scores"
	"github.com/brensch/snekworld/store"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is an intent sent by the browser.
type clientMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

type serverMessage struct {
	Type     string         `json:"type"`
	Session  string         `json:"session,omitempty"`
	Game     string         `json:"game,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

var errUnknownMessage = errors.New("unknown message type")

// session owns one World for one browser. Access to the world goes
// through mu because the reader and the ticker run on different
// goroutines.
type session struct {
	id  string
	srv *Server

	mu       sync.Mutex
	world    *game.World
	gameID   string
	games    int
	recorder *store.Recorder
	finished bool
}

func (s *Server) newSession() (*session, error) {
	ss := &session{id: uuid.NewString(), srv: s}
	if err := ss.reset(); err != nil {
		return nil, err
	}
	return ss, nil
}

// reset replaces the world with a fresh, unstarted one. Callers hold mu
// or own the session exclusively.
func (ss *session) reset() error {
	opts := ss.srv.opts
	var worldOpts []game.Option
	if opts.NewSource != nil {
		worldOpts = append(worldOpts, game.WithRand(opts.NewSource()))
	}
	w, err := game.New(opts.Width, opts.Spawn(opts.Width), worldOpts...)
	if err != nil {
		return err
	}
	ss.world = w
	ss.gameID = uuid.NewString()
	ss.games++
	ss.recorder = store.NewRecorder(ss.gameID)
	ss.finished = false
	return nil
}

func (ss *session) snapshot() game.Snapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.world.Snapshot()
}

// apply handles one client message and reports whether the world changed.
// Unparseable directions are ignored like any other unmapped key.
func (ss *session) apply(msg clientMessage) (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	switch msg.Type {
	case "start":
		status, ok := ss.world.GameStatus()
		if ok && status.Terminal() {
			if err := ss.reset(); err != nil {
				return false, err
			}
		} else if ok {
			return false, nil
		}
		return true, ss.start()
	case "restart":
		if err := ss.reset(); err != nil {
			return false, err
		}
		return true, ss.start()
	case "direction":
		d, err := game.ParseDirection(msg.Direction)
		if err != nil {
			return false, nil
		}
		return ss.world.ChangeSnakeDirection(d), nil
	default:
		return false, fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}
}

func (ss *session) start() error {
	ss.recorder.Record(ss.world)
	if err := ss.world.StartGame(); err != nil {
		return err
	}
	ss.recorder.Record(ss.world)
	ss.finishIfTerminal()
	return nil
}

// tick advances a playing world by one turn and reports whether it moved.
func (ss *session) tick() (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if status, ok := ss.world.GameStatus(); !ok || status != game.Played {
		return false, nil
	}
	if err := ss.world.Step(); err != nil {
		return false, err
	}
	ss.recorder.Record(ss.world)
	ss.finishIfTerminal()
	return true, nil
}

// finishIfTerminal stores the result and recording of a game the first
// time it is seen in a terminal status. Storage failures are logged; the
// session keeps running.
func (ss *session) finishIfTerminal() {
	status, ok := ss.world.GameStatus()
	if !ok || !status.Terminal() || ss.finished {
		return
	}
	ss.finished = true

	opts := ss.srv.opts
	logger := ss.srv.logger.With("session", ss.id, "game", ss.gameID)
	logger.Info("game finished",
		"status", status.String(),
		"points", ss.world.Points(),
		"length", ss.world.SnakeLength(),
		"turns", ss.world.Turn(),
	)

	if opts.Scores != nil {
		result, err := scores.ResultFromWorld(ss.gameID, ss.world, time.Now())
		if err == nil {
			err = opts.Scores.Record(context.Background(), result)
		}
		if err != nil {
			logger.Error("record score", "err", err)
		}
	}

	if opts.RecordDir == "" {
		return
	}
	path, err := ss.recorder.Flush(opts.RecordDir)
	if err != nil {
		logger.Error("write recording", "err", err)
		return
	}
	if opts.Index != nil {
		if err := opts.Index.Add(ss.gameID, path); err != nil {
			logger.Error("index recording", "err", err)
		}
	}
}

func (ss *session) message() serverMessage {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	snap := ss.world.Snapshot()
	return serverMessage{Type: "snapshot", Session: ss.id, Game: ss.gameID, Snapshot: &snap}
}

func (s *Server) handleSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ss, err := s.newSession()
	if err != nil {
		s.logger.Error("create session", "err", err)
		_ = writeMessage(conn, serverMessage{Type: "error", Error: "failed to create world"})
		return
	}
	s.register(ss)
	defer s.unregister(ss.id)

	logger := s.logger.With("session", ss.id)
	logger.Info("session opened", "remote", c.Request.RemoteAddr)
	defer logger.Info("session closed")

	s.serveSession(c.Request.Context(), conn, ss)
}

// serveSession pumps client intents into the session and pushes a snapshot
// after every change until the client goes away or ctx ends.
func (s *Server) serveSession(ctx context.Context, conn *websocket.Conn, ss *session) {
	incoming := make(chan clientMessage)
	readDone := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readDone <- err
				return
			}
			select {
			case incoming <- msg:
			case <-done:
				return
			}
		}
	}()

	if err := writeMessage(conn, ss.message()); err != nil {
		return
	}

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		var (
			changed bool
			err     error
		)
		select {
		case <-ctx.Done():
			return
		case err := <-readDone:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", "session", ss.id, "err", err)
			}
			return
		case msg := <-incoming:
			changed, err = ss.apply(msg)
		case <-ticker.C:
			changed, err = ss.tick()
		}

		if err != nil {
			if errors.Is(err, errUnknownMessage) {
				if werr := writeMessage(conn, serverMessage{Type: "error", Error: err.Error()}); werr != nil {
					return
				}
				continue
			}
			s.logger.Error("session", "session", ss.id, "err", err)
			_ = writeMessage(conn, serverMessage{Type: "error", Error: "internal error"})
			return
		}
		if !changed {
			continue
		}
		if err := writeMessage(conn, ss.message()); err != nil {
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg serverMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// requireUpgrade rejects plain HTTP requests to the websocket route with a
// useful status instead of the upgrader's bare 400.
func requireUpgrade(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.AbortWithStatusJSON(http.StatusUpgradeRequired, gin.H{"error": "websocket upgrade required"})
		return
	}
	c.Next()
}
