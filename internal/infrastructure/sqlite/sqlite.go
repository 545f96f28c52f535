package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockquote-service/internal/infrastructure/logx"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DB is a single-file store for deployments without Postgres.
type DB struct{ SQL *sql.DB }

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	d := &DB{SQL: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logx.L().Info("sqlite.opened", zap.String("path", path))
	return d, nil
}

func (d *DB) Close() error                   { return d.SQL.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			code            TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			price           REAL NOT NULL,
			change          REAL NOT NULL DEFAULT 0,
			change_pct      REAL NOT NULL DEFAULT 0,
			open            REAL NOT NULL DEFAULT 0,
			high            REAL NOT NULL DEFAULT 0,
			low             REAL NOT NULL DEFAULT 0,
			pre_close       REAL NOT NULL DEFAULT 0,
			volume          INTEGER NOT NULL DEFAULT 0,
			amount          REAL NOT NULL DEFAULT 0,
			market_cap      REAL NOT NULL DEFAULT 0,
			circulation_cap REAL NOT NULL DEFAULT 0,
			amplitude       REAL NOT NULL DEFAULT 0,
			source          TEXT NOT NULL,
			fetched_at      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quotes_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			code        TEXT NOT NULL,
			price       REAL NOT NULL,
			change_pct  REAL NOT NULL DEFAULT 0,
			volume      INTEGER NOT NULL DEFAULT 0,
			amount      REAL NOT NULL DEFAULT 0,
			source      TEXT NOT NULL,
			quoted_at   INTEGER NOT NULL,
			inserted_at INTEGER NOT NULL,
			UNIQUE (code, quoted_at, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_code_ts ON quotes_history(code, quoted_at)`,
		`CREATE TABLE IF NOT EXISTS refresh_batches (
			id          TEXT PRIMARY KEY,
			total       INTEGER NOT NULL,
			completed   INTEGER NOT NULL DEFAULT 0,
			failed      INTEGER NOT NULL DEFAULT 0,
			canceled    INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER
		)`,
	}
	for _, s := range stmts {
		if _, err := d.SQL.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Timestamps are stored as unix milliseconds.
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
