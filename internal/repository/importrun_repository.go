package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/flexledger/flexledger/internal/model"
)

// ImportRunRepository provides data access methods for the import_run table.
// It records one row per pipeline invocation so operators can audit what
// each upload or scheduled fetch produced.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new ImportRunRepository with the provided database connection.
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// CreateRun persists the outcome of one import.
func (r *ImportRunRepository) CreateRun(run *model.ImportRun) error {
	var failedAccounts any
	if len(run.FailedAccounts) > 0 {
		data, err := json.Marshal(run.FailedAccounts)
		if err != nil {
			return fmt.Errorf("failed to marshal failed accounts: %w", err)
		}
		failedAccounts = string(data)
	}

	_, err := r.db.Exec(`
        INSERT INTO import_run (id, source, imported, duplicates, skipped, warnings, failed_accounts)
        VALUES (?, ?, ?, ?, ?, ?, ?)
      `,
		run.ID,
		run.Source,
		run.Imported,
		run.Duplicates,
		run.Skipped,
		run.Warnings,
		failedAccounts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}
	return nil
}

// GetRuns retrieves the most recent import runs, newest first.
func (r *ImportRunRepository) GetRuns(limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
        SELECT id, source, imported, duplicates, skipped, warnings, failed_accounts, created_at
        FROM import_run
        ORDER BY created_at DESC, id DESC
        LIMIT ?
      `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import_run table: %w", err)
	}
	defer rows.Close()

	runs := []model.ImportRun{}

	for rows.Next() {
		var run model.ImportRun
		var failedAccountsStr sql.NullString

		err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.Imported,
			&run.Duplicates,
			&run.Skipped,
			&run.Warnings,
			&failedAccountsStr,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import_run table results: %w", err)
		}

		if failedAccountsStr.Valid {
			if err := json.Unmarshal([]byte(failedAccountsStr.String), &run.FailedAccounts); err != nil {
				return nil, fmt.Errorf("failed to parse failed accounts: %w", err)
			}
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import_run table: %w", err)
	}

	return runs, nil
}

// GetRun retrieves one import run by ID.
func (r *ImportRunRepository) GetRun(id string) (*model.ImportRun, error) {
	var run model.ImportRun
	var failedAccountsStr sql.NullString

	err := r.db.QueryRow(`
        SELECT id, source, imported, duplicates, skipped, warnings, failed_accounts, created_at
        FROM import_run
        WHERE id = ?
      `, id).Scan(
		&run.ID,
		&run.Source,
		&run.Imported,
		&run.Duplicates,
		&run.Skipped,
		&run.Warnings,
		&failedAccountsStr,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if failedAccountsStr.Valid {
		if err := json.Unmarshal([]byte(failedAccountsStr.String), &run.FailedAccounts); err != nil {
			return nil, fmt.Errorf("failed to parse failed accounts: %w", err)
		}
	}

	return &run, nil
}
