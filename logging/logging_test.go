package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil)).With("session", "abc").WithGroup("game")
	logger.Info("step", "turn", 3, "err", errors.New("boom"), slog.Group("snake", "len", 2))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "step", got["msg"])
	assert.Equal(t, "INFO", got["level"])

	game, ok := got["game"].(map[string]any)
	require.True(t, ok, "missing game group: %s", buf.String())
	assert.Equal(t, float64(3), game["turn"])
	assert.Equal(t, "boom", game["err"])
	assert.Equal(t, map[string]any{"len": float64(2)}, game["snake"])
	// Attrs added before the group stay at the top level.
	assert.Equal(t, "abc", got["session"])
	assert.NotContains(t, game, "session")
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""), "output is indented: %s", buf.String())
}

func TestPrettyHandler_SharedOutput(t *testing.T) {
	var buf bytes.Buffer
	root := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	a := root.With("session", "a")
	b := root.WithGroup("sim").With("worker", 1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.Info("tick") }()
		go func() { defer wg.Done(); b.Warn("slow") }()
	}
	wg.Wait()

	dec := json.NewDecoder(&buf)
	var ticks, slows int
	for dec.More() {
		var got map[string]any
		require.NoError(t, dec.Decode(&got))
		assert.Regexp(t, `^logging_test\.go:\d+$`, got["source"])
		switch got["msg"] {
		case "tick":
			ticks++
			assert.Equal(t, "a", got["session"])
		case "slow":
			slows++
			assert.Equal(t, map[string]any{"worker": float64(1)}, got["sim"])
		}
	}
	assert.Equal(t, 20, ticks)
	assert.Equal(t, 20, slows)
}

func TestPrettyHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "debug")
	require.NoError(t, err)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = New(&buf, "yaml", "info")
	assert.Error(t, err)
	_, err = New(&buf, "text", "loud")
	assert.Error(t, err)
}
