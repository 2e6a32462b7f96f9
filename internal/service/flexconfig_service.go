package service

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/repository"
)

// FlexConfigService manages the provider credential set: the flex token
// (stored encrypted), the query ID, and the auto-import flag. Reads and
// read-modify-write updates are serialized with a mutex so a scheduled
// import and a config update cannot interleave on the single config row.
type FlexConfigService struct {
	repo    *repository.FlexConfigRepository
	secrets *SecretService
	mu      sync.Mutex
}

// NewFlexConfigService creates a new FlexConfigService with the provided dependencies.
func NewFlexConfigService(repo *repository.FlexConfigRepository, secrets *SecretService) *FlexConfigService {
	return &FlexConfigService{repo: repo, secrets: secrets}
}

// GetConfig retrieves the flex configuration.
// Adds a token expiration warning if the token expires within 30 days.
func (s *FlexConfigService) GetConfig() (*model.FlexConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.repo.GetConfig()
	if err != nil {
		return nil, err
	}

	if config.TokenExpiresAt != nil {
		diff := time.Until(*config.TokenExpiresAt)
		if diff.Hours() <= 720.0 {
			config.TokenWarning = fmt.Sprintf("Token expires in %d days",
				int64(diff.Hours()/24))
		}
	}

	return config, nil
}

// UpdateConfig stores new configuration values. When token is non-nil the
// plaintext is encrypted and replaces the stored ciphertext; when nil the
// existing ciphertext is preserved.
func (s *FlexConfigService) UpdateConfig(cfg *model.FlexConfig, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted := ""
	if token != nil {
		var err error
		encrypted, err = s.secrets.Encrypt(*token)
		if err != nil {
			return err
		}
	} else {
		existing, err := s.repo.GetEncryptedToken()
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.ErrMissingFlexToken
			}
			return err
		}
		encrypted = existing
	}

	return s.repo.SaveConfig(cfg, encrypted)
}

// Token decrypts and returns the stored provider token.
func (s *FlexConfigService) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := s.repo.GetEncryptedToken()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.ErrMissingFlexToken
		}
		return "", err
	}
	return s.secrets.Decrypt(encrypted)
}

// DeleteConfig removes the stored credentials entirely.
func (s *FlexConfigService) DeleteConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteConfig()
}

// MarkImported records the date of the latest successful automated import.
func (s *FlexConfigService) MarkImported(date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.UpdateLastImportDate(date.UTC().Format("2006-01-02"))
}
