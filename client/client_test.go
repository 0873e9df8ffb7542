package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/server"
)

type lowestFree struct{}

func (lowestFree) Intn(int) int { return 0 }

func startServer(t *testing.T, width int) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := server.New(server.Options{
		Width:     width,
		FPS:       200,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewSource: func() game.IndexSource { return lowestFree{} },
		Spawn:     func(int) int { return 0 },
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Games = 2
	cfg.MaxTurns = 30
	cfg.ReadTimeout = 5 * time.Second
	return cfg
}

func TestBot_PlaysGames(t *testing.T) {
	bot := NewBot(testConfig(startServer(t, 5)), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	results, err := bot.Play(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, results[0].Session, results[1].Session, "one connection")
	assert.NotEqual(t, results[0].GameID, results[1].GameID, "restart starts a new game")
	for _, r := range results {
		t.Logf("%+v", r)
		assert.True(t, r.Status.Terminal() || r.Turns >= 30, "result %+v", r)
		assert.LessOrEqual(t, r.Points, r.Turns)
	}
	stats := bot.Stats()
	assert.Greater(t, stats.Frames, int64(0))
	assert.Greater(t, stats.Intents, int64(2))
}

func TestBot_DialFailure(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1/ws")
	cfg.ConnectTimeout = time.Second
	_, err := NewBot(cfg, nil).Play(context.Background())
	assert.Error(t, err)

	cfg.Games = 0
	_, err = NewBot(cfg, nil).Play(context.Background())
	assert.Error(t, err)
}
