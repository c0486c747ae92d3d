package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db     *sqlx.DB
	files  fs.FS
	logger *slog.Logger
}

// NewMigrationManager creates a migration manager over the embedded migrations
func NewMigrationManager(db *sqlx.DB, logger *slog.Logger) *MigrationManager {
	sub, _ := fs.Sub(migrationFiles, "migrations")
	return newMigrationManager(db, sub, logger)
}

func newMigrationManager(db *sqlx.DB, files fs.FS, logger *slog.Logger) *MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrationManager{
		db:     db,
		files:  files,
		logger: logger.With("component", "migrations"),
	}
}

// InitMigrationsTable creates the migrations tracking table
func (m *MigrationManager) InitMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the set of applied migration versions
func (m *MigrationManager) GetAppliedMigrations() (map[int]bool, error) {
	var versions []int
	if err := m.db.Select(&versions, "SELECT version FROM migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// LoadMigrations reads migration files named like "001_init.sql"
func (m *MigrationManager) LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			m.logger.Warn("skipping migration file with invalid name", "file", entry.Name())
			continue
		}

		content, err := fs.ReadFile(m.files, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(entry.Name(), ".sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// ApplyMigration applies a single migration and records it
func (m *MigrationManager) ApplyMigration(migration Migration) error {
	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, stmt := range splitStatements(migration.SQL) {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
	}

	if _, err := tx.Exec(tx.Rebind("INSERT INTO migrations (version, name) VALUES (?, ?)"), migration.Version, migration.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}

	m.logger.Info("applied migration", "version", migration.Version, "name", migration.Name)
	return nil
}

// RunMigrations runs all pending migrations
func (m *MigrationManager) RunMigrations() error {
	if err := m.InitMigrationsTable(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	migrations, err := m.LoadMigrations()
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			m.logger.Debug("skipping applied migration", "version", migration.Version)
			continue
		}
		if err := m.ApplyMigration(migration); err != nil {
			return err
		}
	}

	return nil
}

// splitStatements splits a migration script on semicolons. Migrations
// must not contain semicolons inside string literals.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
