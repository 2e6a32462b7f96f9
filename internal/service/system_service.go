package service

import (
	"database/sql"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/flexledger/flexledger/internal/database"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version and applied schema version.
func (s *SystemService) CheckVersion() (*model.VersionInfo, error) {
	info := &model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  "unknown",
		Features: map[string]bool{
			"csv_import":  true,
			"flex_sync":   true,
			"auto_import": true,
		},
	}

	dbVersion, err := goose.GetDBVersion(s.db)
	if err != nil {
		// Version endpoint stays usable with a cold or missing schema.
		return info, nil
	}
	info.DbVersion = strconv.FormatInt(dbVersion, 10)
	return info, nil
}
