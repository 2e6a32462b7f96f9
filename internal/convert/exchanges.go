package convert

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed exchanges.yaml
var embeddedExchanges []byte

type exchangeFile struct {
	Exchanges map[string]string `yaml:"exchanges"`
}

// ExchangeTable maps listing exchange codes to their home currency. It is
// injected into the Converter at construction so tests can substitute
// alternate tables.
type ExchangeTable map[string]string

// Currency returns the home currency for an exchange code, or "" when the
// exchange is unknown.
func (t ExchangeTable) Currency(exchange string) string {
	return t[strings.ToUpper(strings.TrimSpace(exchange))]
}

// LoadExchangeTable parses an exchange table from YAML.
func LoadExchangeTable(data []byte) (ExchangeTable, error) {
	var f exchangeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse exchange table: %w", err)
	}
	t := make(ExchangeTable, len(f.Exchanges))
	for exchange, currency := range f.Exchanges {
		t[strings.ToUpper(exchange)] = strings.ToUpper(currency)
	}
	return t, nil
}

// DefaultExchangeTable returns the embedded exchange table.
func DefaultExchangeTable() ExchangeTable {
	t, err := LoadExchangeTable(embeddedExchanges)
	if err != nil {
		// The embedded table is validated by tests; reaching this means a
		// build-time defect.
		panic(err)
	}
	return t
}

// LoadExchangeTableFile loads an exchange table from path, falling back to
// the embedded default when path is empty.
func LoadExchangeTableFile(path string) (ExchangeTable, error) {
	if path == "" {
		return DefaultExchangeTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange table %s: %w", path, err)
	}
	return LoadExchangeTable(data)
}
