package validation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidCurrency  = fmt.Errorf("invalid currency code")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
	ErrEmptySlice       = fmt.Errorf("slice cannot be empty")
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateCurrency checks that a string is a three-letter uppercase currency code.
func ValidateCurrency(code string) error {
	if !currencyPattern.MatchString(code) {
		return fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}
	return nil
}

// ValidateCurrencies validates a slice of currency codes.
func ValidateCurrencies(codes []string) error {
	if len(codes) == 0 {
		return ErrEmptySlice
	}
	for _, code := range codes {
		if err := ValidateCurrency(code); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUUIDs validates a slice of UUIDs
func ValidateUUIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptySlice
	}
	for _, id := range ids {
		if err := ValidateUUID(id); err != nil {
			return err
		}
	}
	return nil
}
