package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_EnvThenFlags(t *testing.T) {
	t.Setenv("SNEK_WIDTH", "12")
	t.Setenv("SNEK_FPS", "not-a-number")
	t.Setenv("SNEK_TIMEOUT", "3s")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := Register(fs, Default())
	require.NoError(t, fs.Parse([]string{"-addr", ":9999"}))

	assert.Equal(t, 12, cfg.Width)
	assert.Equal(t, 10, cfg.FPS, "bad env values fall back to the default")
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Width = 2
	cfg.FPS = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width")
	assert.Contains(t, err.Error(), "fps")
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SNEK_CELL_SIZE=32\n"), 0o644))
	// Register cleanup, then clear it so godotenv is allowed to set it.
	t.Setenv("SNEK_CELL_SIZE", "1")
	require.NoError(t, os.Unsetenv("SNEK_CELL_SIZE"))
	require.NoError(t, LoadDotEnv(path))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := Register(fs, Default())
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, 32, cfg.CellSize)
}
