package store

import (
	"github.com/brensch/snekworld/game"
)

// Recorder buffers the turns of one game in memory until it is flushed.
type Recorder struct {
	gameID string
	rows   []TurnRow
}

func NewRecorder(gameID string) *Recorder {
	return &Recorder{gameID: gameID, rows: make([]TurnRow, 0, 64)}
}

func (r *Recorder) GameID() string { return r.gameID }
func (r *Recorder) Len() int       { return len(r.rows) }

// Record appends the world's current state. Repeated calls for the same
// turn and status are ignored so callers can record after every event.
func (r *Recorder) Record(w *game.World) {
	row := RowFromSnapshot(r.gameID, w.Snapshot())
	if n := len(r.rows); n > 0 {
		last := r.rows[n-1]
		if last.Turn == row.Turn && last.Status == row.Status && last.Direction == row.Direction {
			return
		}
	}
	r.rows = append(r.rows, row)
}

// Rows returns the buffered rows; the slice is owned by the recorder.
func (r *Recorder) Rows() []TurnRow { return r.rows }

// Flush writes the game to outDir and clears the buffer.
func (r *Recorder) Flush(outDir string) (string, error) {
	path, err := WriteGameParquet(outDir, r.gameID, r.rows)
	if err != nil {
		return "", err
	}
	r.rows = r.rows[:0]
	return path, nil
}
