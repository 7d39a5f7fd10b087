package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists tables as ordered rows of JSON-encoded cells.
// Headers live in their own table so self-healing a header never
// rewrites data rows.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	header, err := s.Header(ctx, table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE tab=$1 ORDER BY id ASC`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	if header != nil {
		out = append(out, header)
	}
	for rows.Next() {
		var buf string
		if err := rows.Scan(&buf); err != nil {
			return nil, err
		}
		cells, err := decodeCells(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (s *SQLStore) Append(ctx context.Context, table string, row []string) error {
	buf, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (tab, cells, created_at) VALUES ($1,$2,$3)`,
		table, string(buf), time.Now().Unix())
	return err
}

func (s *SQLStore) Tail(ctx context.Context, table string, n int) ([][]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE tab=$1 ORDER BY id DESC LIMIT $2`, table, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var buf string
		if err := rows.Scan(&buf); err != nil {
			return nil, err
		}
		cells, err := decodeCells(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (s *SQLStore) Header(ctx context.Context, table string) ([]string, error) {
	var buf string
	err := s.db.QueryRowContext(ctx,
		`SELECT cells FROM sheet_headers WHERE tab=$1`, table).Scan(&buf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCells(buf)
}

func (s *SQLStore) WriteHeader(ctx context.Context, table string, header []string) error {
	buf, err := json.Marshal(header)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_headers (tab, cells) VALUES ($1,$2)
		 ON CONFLICT (tab) DO UPDATE SET cells=EXCLUDED.cells`,
		table, string(buf))
	return err
}

func (s *SQLStore) Reset(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sheet_rows WHERE tab=$1`, table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sheet_headers WHERE tab=$1`, table)
	return err
}

func decodeCells(buf string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(buf), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}
