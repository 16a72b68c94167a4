package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Clark-Hu/flavorhub/db"
)

const migrationsDir = "migrations"

// MigrationState describes the schema after a migration run.
type MigrationState struct {
	Version uint
	Dirty   bool
	Changed bool
}

// MigrateUp applies every pending embedded migration.
func MigrateUp(ctx context.Context, pool *pgxpool.Pool) (MigrationState, error) {
	return runMigrations(ctx, pool, (*migrate.Migrate).Up)
}

// MigrateDown reverts every applied migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) (MigrationState, error) {
	return runMigrations(ctx, pool, (*migrate.Migrate).Down)
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, step func(*migrate.Migrate) error) (MigrationState, error) {
	m, err := newMigrator(pool)
	if err != nil {
		return MigrationState{}, err
	}
	defer m.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	state := MigrationState{Changed: true}
	if err := step(m); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationState{}, fmt.Errorf("run migrations: %w", err)
		}
		state.Changed = false
	}

	state.Version, state.Dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return state, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("read migration version: %w", err)
	}
	return state, nil
}

func newMigrator(pool *pgxpool.Pool) (*migrate.Migrate, error) {
	src, err := iofs.New(db.Migrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		_ = src.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
