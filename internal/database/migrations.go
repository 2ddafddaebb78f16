package database

import (
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_reports_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS reports (
				id TEXT PRIMARY KEY,
				content TEXT NOT NULL,
				keyword TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				meta_description TEXT NOT NULL DEFAULT '',
				result TEXT NOT NULL,
				grade TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
			CREATE INDEX IF NOT EXISTS idx_reports_keyword ON reports(keyword);
			CREATE INDEX IF NOT EXISTS idx_reports_grade ON reports(grade);
		`,
	},
	{
		Version: 2,
		Name:    "create_schema_version_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 3,
		Name:    "create_recommendations_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS recommendations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				report_id TEXT NOT NULL,
				category TEXT NOT NULL,
				recommendation TEXT NOT NULL,
				FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_recommendations_report_id ON recommendations(report_id);
		`,
	},
	{
		Version: 4,
		Name:    "add_enrichment_tracking_columns",
		SQL: `
			ALTER TABLE reports ADD COLUMN processing_stage TEXT DEFAULT 'offline';
			ALTER TABLE reports ADD COLUMN enriched_at TIMESTAMP;
			ALTER TABLE reports ADD COLUMN last_error TEXT;
		`,
	},
}

// Migrate runs all pending migrations
func (db *DB) Migrate() error {
	// Ensure schema_version table exists
	if _, err := db.conn.Exec(migrations[1].SQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log.Printf("Applying migration %d: %s", migration.Version, migration.Name)
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
