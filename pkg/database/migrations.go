package database

import (
	"fmt"

	"go.uber.org/zap"
)

// Migration is a schema change applied exactly once, in version order
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations holds the full schema history. Append only; never edit an
// applied migration.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_transcriptions",
		SQL: `
			CREATE TABLE IF NOT EXISTS transcriptions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				audio_url TEXT NOT NULL,
				transcription TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_transcriptions_audio_url ON transcriptions(audio_url);
			CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions(created_at);
		`,
	},
	{
		Version: 2,
		Name:    "create_workflows",
		SQL: `
			CREATE TABLE IF NOT EXISTS workflows (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				transcription_id TEXT NOT NULL,
				current_state TEXT NOT NULL,
				steps TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_workflows_transcription_id ON workflows(transcription_id);
			CREATE INDEX IF NOT EXISTS idx_workflows_current_state ON workflows(current_state);
			CREATE INDEX IF NOT EXISTS idx_workflows_created_at ON workflows(created_at);
		`,
	},
}

// Migrator applies pending schema migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Run applies all migrations that have not been applied yet
func (m *Migrator) Run() error {
	if err := m.ensureVersionTable(); err != nil {
		return err
	}

	current, err := m.currentVersion()
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))

		tx, err := m.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if _, err := tx.Exec(mig.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Name, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, mig.Version, mig.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
		}
	}

	return nil
}

func (m *Migrator) ensureVersionTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) currentVersion() (int, error) {
	var version int
	err := m.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
