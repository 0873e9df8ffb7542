// Package config loads settings for the snekworld commands from flags,
// environment variables and an optional .env file, in that order of
// precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting a command may use.
type Config struct {
	Width     int           // Board width in cells
	FPS       int           // Steps per second driven by the front end
	CellSize  int           // Pixels per cell for image and browser rendering
	Addr      string        // HTTP listen address
	AssetsDir string        // Directory holding index.html and static files; empty serves the built-in page
	RecordDir string        // Where finished games are written as parquet; empty disables
	ScoresDB  string        // sqlite path for the score table; empty disables
	MaxTurns  int           // Upper bound on autopilot games
	Timeout   time.Duration // Overall deadline for headless runs
	LogFormat string        // pretty, json or text
	LogLevel  string        // debug, info, warn, error
}

// Default is an 8x8 board stepped at 10 fps.
func Default() Config {
	return Config{
		Width:     8,
		FPS:       10,
		CellSize:  20,
		Addr:      ":3000",
		AssetsDir: "",
		RecordDir: "",
		ScoresDB:  "",
		MaxTurns:  2000,
		Timeout:   5 * time.Minute,
		LogFormat: "pretty",
		LogLevel:  "info",
	}
}

// LoadDotEnv reads .env (or the given files) into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Register defines flags on fs whose defaults come from the environment,
// falling back to base. Parse fs afterwards to get the final values.
func Register(fs *flag.FlagSet, base Config) *Config {
	c := &Config{}
	fs.IntVar(&c.Width, "width", getEnvIntOrDefault("SNEK_WIDTH", base.Width), "Board width in cells")
	fs.IntVar(&c.FPS, "fps", getEnvIntOrDefault("SNEK_FPS", base.FPS), "Steps per second")
	fs.IntVar(&c.CellSize, "cell-size", getEnvIntOrDefault("SNEK_CELL_SIZE", base.CellSize), "Pixels per cell")
	fs.StringVar(&c.Addr, "addr", getEnvOrDefault("SNEK_ADDR", base.Addr), "HTTP listen address")
	fs.StringVar(&c.AssetsDir, "assets", getEnvOrDefault("SNEK_ASSETS", base.AssetsDir), "Directory with index.html and static assets (empty uses the built-in page)")
	fs.StringVar(&c.RecordDir, "record-dir", getEnvOrDefault("SNEK_RECORD_DIR", base.RecordDir), "Write finished games as parquet into this directory")
	fs.StringVar(&c.ScoresDB, "scores-db", getEnvOrDefault("SNEK_SCORES_DB", base.ScoresDB), "sqlite file for the score table")
	fs.IntVar(&c.MaxTurns, "max-turns", getEnvIntOrDefault("SNEK_MAX_TURNS", base.MaxTurns), "Stop autopilot games after this many turns")
	fs.DurationVar(&c.Timeout, "timeout", getEnvDurationOrDefault("SNEK_TIMEOUT", base.Timeout), "Deadline for headless runs")
	fs.StringVar(&c.LogFormat, "log-format", getEnvOrDefault("SNEK_LOG_FORMAT", base.LogFormat), "Log format: pretty, json or text")
	fs.StringVar(&c.LogLevel, "log-level", getEnvOrDefault("SNEK_LOG_LEVEL", base.LogLevel), "Log level")
	return c
}

// Validate rejects settings the engine or the front ends cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Width < 3 {
		errs = append(errs, fmt.Errorf("width must be at least 3, got %d", c.Width))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("cell size must be positive, got %d", c.CellSize))
	}
	return errors.Join(errs...)
}

// TickInterval is the delay between steps for the configured FPS.
func (c Config) TickInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.FPS)
}

func getEnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
