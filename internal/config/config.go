package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/flexledger/flexledger/internal/validation"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Import   ImportConfig
	Flex     FlexConfig
	Ledger   LedgerConfig
	Resolver ResolverConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Host           string
	Addr           string // Combined host:port for convenience
	APIKeyRequired bool   // Guard mutating config endpoints with INTERNAL_API_KEY
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// ImportConfig holds pipeline configuration: the account base currency,
// the currencies sub-ledgers exist for, and an optional exchange-table
// override file.
type ImportConfig struct {
	BaseCurrency     string
	Currencies       []string
	ExchangeFilePath string
	SecretKey        string // fernet key for token encryption
	CronSpec         string // schedule for auto-import when enabled
}

// FlexConfig holds the provider endpoint configuration. Credentials live
// in the database, not the environment.
type FlexConfig struct {
	BaseURL string
}

// LedgerConfig holds the host ledger client configuration
type LedgerConfig struct {
	BaseURL string
	APIKey  string
}

// ResolverConfig holds the symbol resolution service configuration.
// An empty BaseURL disables resolution.
type ResolverConfig struct {
	BaseURL string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "5001"),
			Host:           getEnv("SERVER_HOST", "localhost"),
			APIKeyRequired: getEnv("INTERNAL_API_KEY", "") != "",
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/flexledger.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Import: ImportConfig{
			BaseCurrency:     getEnv("BASE_CURRENCY", "EUR"),
			Currencies:       splitList(getEnv("CURRENCIES", "EUR,USD,GBP")),
			ExchangeFilePath: getEnv("EXCHANGE_TABLE_PATH", ""),
			SecretKey:        getEnv("SECRET_KEY", ""),
			CronSpec:         getEnv("AUTO_IMPORT_CRON", "0 7 * * *"),
		},
		Flex: FlexConfig{
			BaseURL: getEnv("FLEX_BASE_URL",
				"https://ndcdyn.interactivebrokers.com/AccountManagement/FlexWebService"),
		},
		Ledger: LedgerConfig{
			BaseURL: getEnv("LEDGER_BASE_URL", "http://localhost:8888"),
			APIKey:  getEnv("LEDGER_API_KEY", ""),
		},
		Resolver: ResolverConfig{
			BaseURL: getEnv("RESOLVER_BASE_URL", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := validation.ValidateCurrency(config.Import.BaseCurrency); err != nil {
		return nil, fmt.Errorf("BASE_CURRENCY: %w", err)
	}
	if err := validation.ValidateCurrencies(config.Import.Currencies); err != nil {
		return nil, fmt.Errorf("CURRENCIES: %w", err)
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value, trimming whitespace and
// dropping empty items.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
