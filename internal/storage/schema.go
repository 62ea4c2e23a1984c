package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createSymbolTables(tx); err != nil {
			return err
		}
		if err := createProjectMetaTable(tx); err != nil {
			return err
		}
		if err := createFingerprintTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Run migrations sequentially
	// Add migration functions here as schema evolves

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createSymbolTables creates the symbol, short-name, and implementor tables.
// Payloads are zstd-compressed JSON; keys stay plain text so prefix queries
// can filter by project path.
func createSymbolTables(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbols (
			project TEXT NOT NULL,
			fqn TEXT NOT NULL,
			payload BLOB NOT NULL,

			PRIMARY KEY (project, fqn)
		)
	`); err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS short_names (
			project TEXT NOT NULL,
			short_name TEXT NOT NULL,
			fqns BLOB NOT NULL,

			PRIMARY KEY (project, short_name)
		)
	`); err != nil {
		return fmt.Errorf("failed to create short_names table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS implementors (
			project TEXT NOT NULL,
			super_name TEXT NOT NULL,
			impl_fqns BLOB NOT NULL,

			PRIMARY KEY (project, super_name)
		)
	`); err != nil {
		return fmt.Errorf("failed to create implementors table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(fqn)",
		"CREATE INDEX IF NOT EXISTS idx_short_names_name ON short_names(short_name)",
		"CREATE INDEX IF NOT EXISTS idx_implementors_super ON implementors(super_name)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// createProjectMetaTable creates the per-project metadata table.
func createProjectMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS project_meta (
			project TEXT PRIMARY KEY,
			meta_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create project_meta table: %w", err)
	}
	return nil
}

// createFingerprintTable creates the single-row repository fingerprint table.
func createFingerprintTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS fingerprint (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			head_commit TEXT NOT NULL,
			branch TEXT NOT NULL,
			manifest_hash TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fingerprint table: %w", err)
	}
	return nil
}
