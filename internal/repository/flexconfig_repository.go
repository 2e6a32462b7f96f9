package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/flexledger/flexledger/internal/model"
)

// FlexConfigRepository provides data access methods for the flex_config table.
// The table holds at most one row: the provider credential set used by the
// automated report fetch. The token column stores ciphertext only; callers
// that need the plaintext go through the secret service.
type FlexConfigRepository struct {
	db *sql.DB
}

// NewFlexConfigRepository creates a new FlexConfigRepository with the provided database connection.
func NewFlexConfigRepository(db *sql.DB) *FlexConfigRepository {
	return &FlexConfigRepository{db: db}
}

// GetConfig retrieves the flex configuration without the token ciphertext.
// Returns Configured=false when no row exists.
func (r *FlexConfigRepository) GetConfig() (*model.FlexConfig, error) {
	query := `
        SELECT flex_query_id, token_expires_at, last_import_date, auto_import_enabled, created_at, updated_at
        FROM flex_config
      `

	var fc model.FlexConfig
	var tokenExpiresStr, lastImportStr sql.NullString
	err := r.db.QueryRow(query).Scan(
		&fc.QueryID,
		&tokenExpiresStr,
		&lastImportStr,
		&fc.AutoImportEnabled,
		&fc.CreatedAt,
		&fc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return &model.FlexConfig{Configured: false}, nil
	}
	if err != nil {
		return nil, err
	}

	fc.Configured = true

	if tokenExpiresStr.Valid {
		t, err := ParseTime(tokenExpiresStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		fc.TokenExpiresAt = &t
	}

	if lastImportStr.Valid {
		t, err := ParseTime(lastImportStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		fc.LastImportDate = &t
	}

	return &fc, nil
}

// GetEncryptedToken returns the stored token ciphertext.
// Returns sql.ErrNoRows when no configuration exists.
func (r *FlexConfigRepository) GetEncryptedToken() (string, error) {
	var token string
	err := r.db.QueryRow(`SELECT flex_token_encrypted FROM flex_config`).Scan(&token)
	if err != nil {
		return "", err
	}
	return token, nil
}

// SaveConfig replaces the single flex_config row with the given values.
// encryptedToken is stored as-is; encryption happens in the secret service.
func (r *FlexConfigRepository) SaveConfig(fc *model.FlexConfig, encryptedToken string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM flex_config`); err != nil {
		return fmt.Errorf("failed to clear flex config: %w", err)
	}

	var tokenExpires any
	if fc.TokenExpiresAt != nil {
		tokenExpires = fc.TokenExpiresAt.UTC().Format("2006-01-02")
	}
	var lastImport any
	if fc.LastImportDate != nil {
		lastImport = fc.LastImportDate.UTC().Format("2006-01-02")
	}

	_, err = tx.Exec(`
        INSERT INTO flex_config (id, flex_token_encrypted, flex_query_id, token_expires_at, last_import_date, auto_import_enabled)
        VALUES (?, ?, ?, ?, ?, ?)
      `,
		uuid.New().String(),
		encryptedToken,
		fc.QueryID,
		tokenExpires,
		lastImport,
		fc.AutoImportEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flex config: %w", err)
	}

	return tx.Commit()
}

// UpdateLastImportDate records the date of the most recent successful
// automated import. dateStr is a canonical YYYY-MM-DD date.
func (r *FlexConfigRepository) UpdateLastImportDate(dateStr string) error {
	_, err := r.db.Exec(`
        UPDATE flex_config
        SET last_import_date = ?, updated_at = CURRENT_TIMESTAMP
      `, dateStr)
	if err != nil {
		return fmt.Errorf("failed to update last import date: %w", err)
	}
	return nil
}

// DeleteConfig removes the stored configuration and token ciphertext.
func (r *FlexConfigRepository) DeleteConfig() error {
	_, err := r.db.Exec(`DELETE FROM flex_config`)
	if err != nil {
		return fmt.Errorf("failed to delete flex config: %w", err)
	}
	return nil
}
