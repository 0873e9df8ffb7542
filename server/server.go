// Package server is the browser front end: it serves the page and static
// assets, and runs one engine World per websocket connection, pushing a
// snapshot after every change and applying the player's intents.
package server

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/render"
	"github.com/brensch/snekworld/scores"
	"github.com/brensch/snekworld/store"
)

// Options configures a Server. Scores, Index and RecordDir are optional.
type Options struct {
	Width     int
	FPS       int
	CellSize  int
	AssetsDir string // empty serves the embedded assets
	RecordDir string
	Scores    *scores.DB
	Index     *store.Index
	Games     *store.Query // DuckDB reader for /api/games; falls back to Index
	Logger    *slog.Logger

	// NewSource and Spawn override randomness, mostly for tests.
	NewSource func() game.IndexSource
	Spawn     func(width int) int
}

type Server struct {
	opts   Options
	logger *slog.Logger
	assets fs.FS
	page   atomic.Pointer[[]byte]

	mu       sync.RWMutex
	sessions map[string]*session
}

func New(opts Options) (*Server, error) {
	if opts.Width < game.MinWidth {
		return nil, errors.New("server: width must be at least " + strconv.Itoa(game.MinWidth))
	}
	if opts.FPS <= 0 {
		opts.FPS = 10
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Spawn == nil {
		opts.Spawn = func(width int) int { return game.RandomSpawn(width, nil) }
	}

	assets, err := assetsFS(opts.AssetsDir)
	if err != nil {
		return nil, err
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		assets:   assets,
		sessions: make(map[string]*session),
	}
	if err := s.reloadPage(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) reloadPage() error {
	page, err := templatePage(s.assets, s.opts.Width, s.opts.CellSize)
	if err != nil {
		return err
	}
	s.page.Store(&page)
	return nil
}

func (s *Server) interval() time.Duration {
	return time.Second / time.Duration(s.opts.FPS)
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	// The websocket route stays uncompressed; everything else is gzipped
	// for clients that ask.
	compress := gzip.Gzip(gzip.DefaultCompression)
	router.GET("/", compress, s.handleIndex)
	router.Group("/static", compress).StaticFS("/", http.FS(s.assets))
	router.GET("/ws", requireUpgrade, s.handleSocket)

	api := router.Group("/api", compress)
	api.GET("/scores", s.handleScores)
	api.GET("/sessions/:id/board.png", s.handleBoard)
	api.GET("/games/:id", s.handleGame)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", *s.page.Load())
}

func (s *Server) handleScores(c *gin.Context) {
	if s.opts.Scores == nil {
		c.JSON(http.StatusOK, gin.H{"scores": []scores.Result{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	top, err := s.opts.Scores.Top(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("load scores", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scores"})
		return
	}
	if top == nil {
		top = []scores.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"scores": top})
}

func (s *Server) handleBoard(c *gin.Context) {
	ss, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	cellSize := s.opts.CellSize
	if v := c.Query("cell"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cell must be between 1 and 64"})
			return
		}
		cellSize = n
	}
	thumb := 0
	if v := c.Query("thumb"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "thumb must be between 1 and 1024"})
			return
		}
		thumb = n
	}

	var buf bytes.Buffer
	err := s.renderBoard(&buf, ss.snapshot(), cellSize, thumb)
	if err != nil {
		s.logger.Error("render board", "session", ss.id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render board"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// renderBoard writes the board as PNG, scaled to fit thumb pixels when
// thumb is positive.
func (s *Server) renderBoard(buf *bytes.Buffer, snap game.Snapshot, cellSize, thumb int) error {
	if thumb <= 0 {
		return render.PNG(buf, snap, cellSize)
	}
	img, err := render.Board(snap, cellSize, render.DefaultPalette)
	if err != nil {
		return err
	}
	return png.Encode(buf, render.Thumbnail(img, thumb))
}

func (s *Server) handleGame(c *gin.Context) {
	rows, err := s.loadGame(c.Request.Context(), c.Param("id"))
	if errors.Is(err, errRecordingDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording is disabled"})
		return
	}
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}
	if err != nil {
		s.logger.Error("load game", "game", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_id": c.Param("id"), "turns": rows})
}

var errRecordingDisabled = errors.New("recording is disabled")

// loadGame prefers the DuckDB reader, narrowed to the indexed file when the
// index knows it, and falls back to reading the file through the index.
func (s *Server) loadGame(ctx context.Context, gameID string) ([]store.TurnRow, error) {
	switch {
	case s.opts.Games != nil:
		var files []string
		if s.opts.Index != nil {
			if path, ok := s.opts.Index.Lookup(gameID); ok {
				files = append(files, path)
			}
		}
		return s.opts.Games.Turns(ctx, gameID, files...)
	case s.opts.Index != nil:
		return s.opts.Index.Load(gameID)
	default:
		return nil, errRecordingDisabled
	}
}

func (s *Server) register(ss *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ss.id] = ss
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ss, ok := s.sessions[id]
	return ss, ok
}

// Sessions reports how many browsers are connected.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
