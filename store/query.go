package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Query reads recorded games straight out of the parquet files under a
// root directory with DuckDB, without loading whole files into memory.
type Query struct {
	db   *sql.DB
	root string
}

func OpenQuery(root string) (*Query, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=2")
	return &Query{db: db, root: root}, nil
}

func (q *Query) Close() error { return q.db.Close() }

// Turns returns one game's rows in the order they were recorded. files
// narrows the scan to known files; with none, every parquet file under the
// root is read. A game with no rows is reported as os.ErrNotExist.
func (q *Query) Turns(ctx context.Context, gameID string, files ...string) ([]TurnRow, error) {
	if len(files) == 0 {
		var err error
		files, err = q.parquetFiles()
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("game %s: %w", gameID, os.ErrNotExist)
	}

	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + escapeSQLString(f) + "'"
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT game_id, turn::INTEGER, width::INTEGER, direction, body, reward::INTEGER, points::INTEGER, status
		 FROM read_parquet([`+strings.Join(quoted, ",")+`], filename=true, file_row_number=true, union_by_name=true)
		 WHERE game_id = ?
		 ORDER BY filename, file_row_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game %s: %w", gameID, err)
	}
	defer rows.Close()

	out := make([]TurnRow, 0, 64)
	for rows.Next() {
		var r TurnRow
		var bodyAny any
		if err := rows.Scan(&r.GameID, &r.Turn, &r.Width, &r.Direction, &bodyAny, &r.Reward, &r.Points, &r.Status); err != nil {
			return nil, err
		}
		r.Body = asInt32Slice(bodyAny)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("game %s: %w", gameID, os.ErrNotExist)
	}
	return out, nil
}

// parquetFiles lists finished parquet files under the root, skipping the
// tmp directories writes go through.
func (q *Query) parquetFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(q.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == q.root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() && d.Name() == "tmp" {
			return fs.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.root, err)
	}
	return files, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func asInt32Slice(v any) []int32 {
	switch vv := v.(type) {
	case nil:
		return nil
	case []int32:
		return vv
	case []int64:
		out := make([]int32, len(vv))
		for i, x := range vv {
			out[i] = int32(x)
		}
		return out
	case []any:
		out := make([]int32, 0, len(vv))
		for _, x := range vv {
			switch n := x.(type) {
			case int32:
				out = append(out, n)
			case int64:
				out = append(out, int32(n))
			case int:
				out = append(out, int32(n))
			}
		}
		return out
	default:
		return nil
	}
}
