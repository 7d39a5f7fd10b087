package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:drill.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			return nil, fmt.Errorf("DB_DSN is required for driver %s", driver)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS sheet_headers (
  tab TEXT PRIMARY KEY,
  cells TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sheet_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  tab TEXT NOT NULL,
  cells TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_tab ON sheet_rows(tab, id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS sheet_headers (
  tab TEXT PRIMARY KEY,
  cells TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sheet_rows (
  id BIGSERIAL PRIMARY KEY,
  tab TEXT NOT NULL,
  cells TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_tab ON sheet_rows(tab, id);
`
