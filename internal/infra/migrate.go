// README: Schema migrations via golang-migrate from the migrations/ directory.
package infra

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator wraps golang-migrate for the up/down/version commands.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(path, dsn string) (*Migrator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+abs, dsn)
	if err != nil {
		return nil, fmt.Errorf("migration init: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// Down rolls back n migrations.
func (m *Migrator) Down(n int) error {
	if err := m.m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
