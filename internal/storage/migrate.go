package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var kvSchema embed.FS

// ErrDirtySchema means an earlier kv schema upgrade stopped halfway.
var ErrDirtySchema = errors.New("kv schema left dirty by an interrupted upgrade")

// migrateKV brings the kv table at dbPath up to the newest embedded
// version and returns that version. The migrate driver owns and closes
// its own handle.
func migrateKV(dbPath string) (uint, error) {
	handle, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s for upgrade: %w", dbPath, err)
	}
	defer handle.Close()

	target, err := sqlite.WithInstance(handle, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("kv schema target: %w", err)
	}
	source, err := iofs.New(kvSchema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("kv schema source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("kv schema upgrade: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return uint(dirty.Version), fmt.Errorf("%w (version %d)", ErrDirtySchema, dirty.Version)
		}
		return 0, fmt.Errorf("upgrade kv schema: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("kv schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w (version %d)", ErrDirtySchema, version)
	}
	return version, nil
}
