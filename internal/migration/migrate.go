package migration

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/elskow/gatekeep/internal/config"
)

// Migrator applies the goose migrations for the postgres account store.
type Migrator struct {
	db     *sql.DB
	config *config.DatabaseConfig
}

func NewMigrator(cfg *config.DatabaseConfig) (*Migrator, error) {
	if cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations only apply to the %q driver, got %q", config.DriverPostgres, cfg.Driver)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{
		db:     db,
		config: cfg,
	}, nil
}

// prepare selects the postgres dialect and resolves the migrations directory.
func (m *Migrator) prepare() (string, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("failed to set dialect: %w", err)
	}
	dir, err := getMigrationsDir()
	if err != nil {
		return "", fmt.Errorf("failed to get migrations directory: %w", err)
	}
	return dir, nil
}

func (m *Migrator) Up() error {
	dir, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.Up(m.db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	dir, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.Down(m.db, dir); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

// DownTo rolls back one migration at a time until version is reached.
func (m *Migrator) DownTo(version int64) error {
	dir, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.DownTo(m.db, dir, version); err != nil {
		return fmt.Errorf("failed to migrate down to version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Status() error {
	dir, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.Status(m.db, dir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// GetCurrentVersion returns the version recorded in the database.
func (m *Migrator) GetCurrentVersion() (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(m.db)
}

// Version is GetCurrentVersion, named for the CLI.
func (m *Migrator) Version() (int64, error) {
	return m.GetCurrentVersion()
}

// GetLatestVersion returns the newest migration shipped in the directory.
func (m *Migrator) GetLatestVersion() (int64, error) {
	dir, err := getMigrationsDir()
	if err != nil {
		return 0, err
	}

	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Version, nil
}

// Reset rolls every migration back and applies them again.
func (m *Migrator) Reset() error {
	dir, err := m.prepare()
	if err != nil {
		return err
	}
	if err := goose.Reset(m.db, dir); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return goose.Up(m.db, dir)
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
