package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Index maps game IDs to the Parquet file holding them.
// It is backed by an append-only file with one "<game_id>\t<path>" line
// per game. Malformed lines (e.g. a partial write before a crash) are
// skipped on load.
type Index struct {
	mu    sync.RWMutex
	path  string
	file  *os.File
	games map[string]string
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("index path is required")
	}
	games := make(map[string]string)

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			id, file, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "\t")
			if !ok || id == "" || file == "" {
				continue
			}
			games[id] = file
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{path: path, file: file, games: games}, nil
}

func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.file == nil {
		return nil
	}
	err := x.file.Close()
	x.file = nil
	return err
}

func (x *Index) Lookup(gameID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.games[gameID]
	return p, ok
}

func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.games)
}

// AddMany records every game ID against path and syncs once.
func (x *Index) AddMany(gameIDs []string, path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.file == nil {
		return errors.New("index is closed")
	}

	added := 0
	for _, id := range gameIDs {
		if id == "" || strings.ContainsAny(id, "\t\n") {
			continue
		}
		if _, err := x.file.WriteString(id + "\t" + path + "\n"); err != nil {
			return fmt.Errorf("append index: %w", err)
		}
		x.games[id] = path
		added++
	}
	if added == 0 {
		return nil
	}
	if err := x.file.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	return nil
}

func (x *Index) Add(gameID, path string) error {
	return x.AddMany([]string{gameID}, path)
}

// Load reads one game's rows through the index.
func (x *Index) Load(gameID string) ([]TurnRow, error) {
	path, ok := x.Lookup(gameID)
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameID, os.ErrNotExist)
	}
	rows, err := ReadParquet(path)
	if err != nil {
		return nil, err
	}
	return GameRows(rows, gameID), nil
}
