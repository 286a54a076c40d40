// Package migrations applies the SQL schema under db/migrations.
package migrations

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// Up applies all pending migrations from source to the database at dsn.
func Up(source, dsn string) error {
	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logVersion(m)
	return nil
}

// Down rolls back the given number of migrations.
func Down(source, dsn string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	defer closeMigrate(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database rollback failed: %w", err)
	}
	logVersion(m)
	return nil
}

func logVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Msg("database has no migrations applied")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("could not read migration version")
		return
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrations applied")
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Warn().Err(srcErr).Msg("closing migration source")
	}
	if dbErr != nil {
		log.Warn().Err(dbErr).Msg("closing migration database")
	}
}
