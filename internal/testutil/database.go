package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the goose migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Provider credentials (single row)
		CREATE TABLE IF NOT EXISTS flex_config (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			flex_token_encrypted TEXT NOT NULL,
			flex_query_id VARCHAR(10) NOT NULL,
			token_expires_at DATE,
			last_import_date DATE,
			auto_import_enabled BOOLEAN DEFAULT FALSE NOT NULL,
			created_at DATETIME DEFAULT (CURRENT_TIMESTAMP),
			updated_at DATETIME DEFAULT (CURRENT_TIMESTAMP)
		);

		-- Import run bookkeeping
		CREATE TABLE IF NOT EXISTS import_run (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			source VARCHAR(10) NOT NULL,
			imported INTEGER NOT NULL,
			duplicates INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			failed_accounts TEXT,
			created_at DATETIME DEFAULT (CURRENT_TIMESTAMP)
		);
	`

	_, err := db.Exec(schema)
	return err
}
