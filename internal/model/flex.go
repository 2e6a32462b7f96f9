package model

import "time"

// FlexConfig is the provider-credential configuration for the polling
// report fetch. The token itself is stored encrypted and never leaves the
// secret service; API responses only expose whether it is configured.
type FlexConfig struct {
	Configured        bool       `json:"configured"`
	QueryID           string     `json:"queryId,omitempty"`
	TokenExpiresAt    *time.Time `json:"tokenExpiresAt,omitempty"`
	TokenWarning      string     `json:"tokenWarning,omitempty"`
	AutoImportEnabled bool       `json:"autoImportEnabled"`
	LastImportDate    *time.Time `json:"lastImportDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt,omitempty"`
}
