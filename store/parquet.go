// Package store writes finished games to Parquet, one row per turn, and
// keeps an append-only index of which file holds which game.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekworld/game"
)

const schemaName = "snekworld_turn_v1"

// TurnRow is the world as it stood after one turn of a game.
//
// Body is head first. Reward is -1 when none was placed (before start and
// after a win). Status uses game.Status text: none, played, won, lost.
type TurnRow struct {
	GameID    string  `parquet:"game_id,dict" json:"game_id"`
	Turn      int32   `parquet:"turn" json:"turn"`
	Width     int32   `parquet:"width" json:"width"`
	Direction string  `parquet:"direction,dict" json:"direction"`
	Body      []int32 `parquet:"body" json:"body"`
	Reward    int32   `parquet:"reward" json:"reward"`
	Points    int32   `parquet:"points" json:"points"`
	Status    string  `parquet:"status,dict" json:"status"`
}

// RowFromSnapshot converts an engine snapshot into a row.
func RowFromSnapshot(gameID string, s game.Snapshot) TurnRow {
	body := make([]int32, len(s.Snake))
	for i, c := range s.Snake {
		body[i] = int32(c)
	}
	return TurnRow{
		GameID:    gameID,
		Turn:      int32(s.Turn),
		Width:     int32(s.Width),
		Direction: s.Direction.String(),
		Body:      body,
		Reward:    int32(s.Reward),
		Points:    int32(s.Points),
		Status:    s.Status.String(),
	}
}

// Snapshot converts the row back for renderers.
func (r TurnRow) Snapshot() (game.Snapshot, error) {
	var s game.Snapshot
	if err := s.Direction.UnmarshalText([]byte(r.Direction)); err != nil {
		return s, fmt.Errorf("turn %d: %w", r.Turn, err)
	}
	if err := s.Status.UnmarshalText([]byte(r.Status)); err != nil {
		return s, fmt.Errorf("turn %d: %w", r.Turn, err)
	}
	s.Width = int(r.Width)
	s.Turn = int(r.Turn)
	s.Points = int(r.Points)
	s.Reward = int(r.Reward)
	s.StatusText = s.Status.Text()
	s.Snake = make([]int, len(r.Body))
	for i, c := range r.Body {
		s.Snake[i] = int(c)
	}
	return s, nil
}

// WriteGameParquet writes a single game to outDir/<gameID>.parquet.
func WriteGameParquet(outDir, gameID string, rows []TurnRow) (string, error) {
	if gameID == "" {
		return "", errors.New("game id is required")
	}
	return writeAtomic(outDir, gameID+".parquet", rows)
}

// WriteBatchParquet writes rows from many games into one file named after
// the current time.
func WriteBatchParquet(outDir string, rows []TurnRow) (string, error) {
	return writeAtomic(outDir, fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano()), rows)
}

// writeAtomic writes into outDir/tmp and renames into outDir so readers
// never observe a partial file.
func writeAtomic(outDir, name string, rows []TurnRow) (string, error) {
	if len(rows) == 0 {
		return "", errors.New("no rows to write")
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadParquet loads every row of a file written by this package.
func ReadParquet(path string) ([]TurnRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, ok := pf.Lookup("schema"); ok && schema != schemaName {
		return nil, fmt.Errorf("unexpected schema %q", schema)
	}

	reader := parquet.NewGenericReader[TurnRow](pf)
	defer reader.Close()

	out := make([]TurnRow, 0, reader.NumRows())
	buf := make([]TurnRow, 256)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// GameRows filters rows down to one game, keeping turn order.
func GameRows(rows []TurnRow, gameID string) []TurnRow {
	var out []TurnRow
	for _, r := range rows {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	return out
}
