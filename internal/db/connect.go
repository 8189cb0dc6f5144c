package db

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	// DriverMemory keeps records in process memory; nothing is opened here.
	DriverMemory Driver = "memory"
	// DriverNone runs without a record store; reads come back empty.
	DriverNone Driver = "none"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sqlx.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:practice.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/practice?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sqlx.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY under concurrent submits
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB, driver Driver) error {
	stmts := schemaSQLite
	if driver == DriverPostgres {
		stmts = schemaPostgres
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS answer_records (
  id TEXT PRIMARY KEY,
  teacher TEXT NOT NULL,
  student_name TEXT NOT NULL,
  question_id INTEGER NOT NULL,
  sbg REAL NOT NULL,
  answer TEXT NOT NULL DEFAULT 'null',
  attempts INTEGER NOT NULL DEFAULT 0,
  correct BOOLEAN NOT NULL DEFAULT 0,
  attempt_id BIGINT,           -- epoch ms; NULL means derive from created_at
  created_at BIGINT NOT NULL   -- epoch ms
)`,
	`CREATE INDEX IF NOT EXISTS answer_records_owner ON answer_records (teacher, student_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,   -- e.g., StudentReset
  key TEXT NOT NULL,   -- natural key: teacher/student
  data TEXT NOT NULL,  -- JSON payload
  created_at BIGINT NOT NULL
)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS answer_records (
  id TEXT PRIMARY KEY,
  teacher TEXT NOT NULL,
  student_name TEXT NOT NULL,
  question_id INTEGER NOT NULL,
  sbg DOUBLE PRECISION NOT NULL,
  answer TEXT NOT NULL DEFAULT 'null',
  attempts INTEGER NOT NULL DEFAULT 0,
  correct BOOLEAN NOT NULL DEFAULT FALSE,
  attempt_id BIGINT,
  created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS answer_records_owner ON answer_records (teacher, student_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
}
