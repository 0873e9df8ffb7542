// Package scores keeps a table of finished games in sqlite.
package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brensch/snekworld/game"
)

const createScoresTableSQL = `
CREATE TABLE IF NOT EXISTS Scores (
    GameID TEXT PRIMARY KEY,
    Width INTEGER NOT NULL,
    Points INTEGER NOT NULL,
    Length INTEGER NOT NULL,
    Status TEXT NOT NULL,
    Turns INTEGER NOT NULL,
    FinishedAt TIMESTAMP NOT NULL
);
`

const createScoresIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_scores_points ON Scores (Points DESC, FinishedAt ASC);
`

// Result is one finished game.
type Result struct {
	GameID     string    `json:"game_id"`
	Width      int       `json:"width"`
	Points     int       `json:"points"`
	Length     int       `json:"length"`
	Status     string    `json:"status"`
	Turns      int       `json:"turns"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultFromWorld summarises a world that has reached a terminal status.
func ResultFromWorld(gameID string, w *game.World, finishedAt time.Time) (Result, error) {
	status, ok := w.GameStatus()
	if !ok || !status.Terminal() {
		return Result{}, fmt.Errorf("game %s has not finished (status %s)", gameID, status)
	}
	return Result{
		GameID:     gameID,
		Width:      w.Width(),
		Points:     w.Points(),
		Length:     w.SnakeLength(),
		Status:     status.String(),
		Turns:      w.Turn(),
		FinishedAt: finishedAt.UTC(),
	}, nil
}

type DB struct {
	db *sql.DB
}

// Open creates or opens the sqlite file at path and ensures the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite allows one writer; serialise through a single connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{createScoresTableSQL, createScoresIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Record stores r, replacing any earlier result with the same game ID.
func (d *DB) Record(ctx context.Context, r Result) error {
	if r.GameID == "" {
		return errors.New("game id is required")
	}
	_, err := d.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO Scores (GameID, Width, Points, Length, Status, Turns, FinishedAt) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.GameID, r.Width, r.Points, r.Length, r.Status, r.Turns, r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("record score %s: %w", r.GameID, err)
	}
	return nil
}

// Top returns the best results, highest points first and earliest first on
// ties.
func (d *DB) Top(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT GameID, Width, Points, Length, Status, Turns, FinishedAt FROM Scores ORDER BY Points DESC, FinishedAt ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.GameID, &r.Width, &r.Points, &r.Length, &r.Status, &r.Turns, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
