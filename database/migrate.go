package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus is the schema version recorded in the database
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

// MigrateUp applies every pending migration
func MigrateUp(databaseURL string) error {
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("Schema already up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logVersion(m, "Schema migrated")
		return nil
	})
}

// MigrateDown rolls back steps migrations
func MigrateDown(databaseURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		err := m.Steps(-steps)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Nothing to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to roll back %d migrations: %w", steps, err)
		}
		logVersion(m, "Schema rolled back")
		return nil
	})
}

// MigrateStatus reports the current schema version
func MigrateStatus(databaseURL string) (MigrationStatus, error) {
	var status MigrationStatus
	err := withMigrator(databaseURL, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		status = MigrationStatus{Version: version, Dirty: dirty, Applied: true}
		return nil
	})
	return status, err
}

func logVersion(m *migrate.Migrate, msg string) {
	version, dirty, _ := m.Version()
	log.WithFields(log.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info(msg)
}

// withMigrator runs fn against the embedded migrations over a dedicated
// database/sql handle that is closed afterwards
func withMigrator(databaseURL string, fn func(*migrate.Migrate) error) error {
	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to open migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}
