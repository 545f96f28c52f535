package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"stockquote-service/internal/infrastructure/logx"

	"github.com/golang-migrate/migrate/v4"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var fs embed.FS

// RunMigrations applies every pending migration and logs the resulting schema version.
func RunMigrations(ctx context.Context, db *DB) error {
	src, err := iofs.New(fs, "migrations")
	if err != nil {
		return fmt.Errorf("migrate src: %w", err)
	}
	dsn := db.Pool.Config().ConnString()
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqldb.Close()
	if err := waitReady(ctx, sqldb); err != nil {
		return err
	}
	driver, err := pgdriver.WithInstance(sqldb, &pgdriver.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}
	logx.L().Info("pg.migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// waitReady pings until the server accepts connections; a fresh container
// needs a few seconds.
func waitReady(ctx context.Context, sqldb *sql.DB) error {
	var pingErr error
	for i := 0; i < 30; i++ {
		if pingErr = sqldb.PingContext(ctx); pingErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping db: %w", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("ping db: %w", pingErr)
}
