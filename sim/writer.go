package sim

import (
	"log/slog"

	"github.com/brensch/snekworld/store"
)

// BatchWriter buffers recorded games and writes them to parquet once
// gamesPerFlush games are pending. Every flushed game id is added to the
// index when one is set.
type BatchWriter struct {
	outDir        string
	gamesPerFlush int
	index         *store.Index
	logger        *slog.Logger

	rows []store.TurnRow
	ids  []string
}

func NewBatchWriter(outDir string, gamesPerFlush int, index *store.Index, logger *slog.Logger) *BatchWriter {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		outDir:        outDir,
		gamesPerFlush: gamesPerFlush,
		index:         index,
		logger:        logger,
	}
}

// Add buffers r's rows. Results without rows are skipped.
func (b *BatchWriter) Add(r GameResult) error {
	if len(r.Rows) == 0 {
		return nil
	}
	b.rows = append(b.rows, r.Rows...)
	b.ids = append(b.ids, r.GameID)
	if len(b.ids) < b.gamesPerFlush {
		return nil
	}
	return b.Flush()
}

// Flush writes whatever is pending.
func (b *BatchWriter) Flush() error {
	if len(b.ids) == 0 {
		return nil
	}
	path, err := store.WriteBatchParquet(b.outDir, b.rows)
	if err != nil {
		b.logger.Error("parquet flush failed", "games", len(b.ids), "rows", len(b.rows), "err", err)
		return err
	}
	b.logger.Info("parquet flush ok", "path", path, "games", len(b.ids), "rows", len(b.rows))
	if b.index != nil {
		if err := b.index.AddMany(b.ids, path); err != nil {
			return err
		}
	}
	b.rows = b.rows[:0]
	b.ids = b.ids[:0]
	return nil
}
