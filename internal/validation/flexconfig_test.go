package validation_test

import (
	"strings"
	"testing"

	"github.com/flexledger/flexledger/internal/api/request"
	"github.com/flexledger/flexledger/internal/validation"
)

func strPtr(s string) *string { return &s }

// TestValidateUpdateFlexConfig tests credential update validation.
//
// WHY: Provider tokens are 25-digit numbers, longer than an int64 holds, so
// the numeric check must be a digits check. The token stays optional on
// update while the query ID never is.
func TestValidateUpdateFlexConfig(t *testing.T) {
	valid := request.UpdateFlexConfigRequest{
		FlexToken:   strPtr("1234567890123456789012345"),
		FlexQueryID: strPtr("987654"),
	}

	t.Run("accepts a full credential set", func(t *testing.T) {
		if err := validation.ValidateUpdateFlexConfig(valid); err != nil {
			t.Errorf("Expected valid request, got %v", err)
		}
	})

	t.Run("accepts omitted token", func(t *testing.T) {
		req := valid
		req.FlexToken = nil
		if err := validation.ValidateUpdateFlexConfig(req); err != nil {
			t.Errorf("Expected tokenless update to validate, got %v", err)
		}
	})

	t.Run("accepts expiry date", func(t *testing.T) {
		req := valid
		req.TokenExpiresAt = strPtr("2027-06-30")
		if err := validation.ValidateUpdateFlexConfig(req); err != nil {
			t.Errorf("Expected parseable expiry to validate, got %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*request.UpdateFlexConfigRequest)
		field  string
	}{
		{"blank token", func(r *request.UpdateFlexConfigRequest) { r.FlexToken = strPtr("  ") }, "flexToken"},
		{"short token", func(r *request.UpdateFlexConfigRequest) { r.FlexToken = strPtr("12345") }, "flexToken"},
		{"non-numeric token", func(r *request.UpdateFlexConfigRequest) {
			r.FlexToken = strPtr("12345678901234567890123XY")
		}, "flexToken"},
		{"missing query id", func(r *request.UpdateFlexConfigRequest) { r.FlexQueryID = nil }, "flexQueryId"},
		{"oversized query id", func(r *request.UpdateFlexConfigRequest) {
			r.FlexQueryID = strPtr("12345678901")
		}, "flexQueryId"},
		{"non-numeric query id", func(r *request.UpdateFlexConfigRequest) { r.FlexQueryID = strPtr("abc") }, "flexQueryId"},
		{"garbage expiry", func(r *request.UpdateFlexConfigRequest) { r.TokenExpiresAt = strPtr("soon") }, "tokenExpiresAt"},
	}
	for _, tc := range cases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			err := validation.ValidateUpdateFlexConfig(req)
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("Expected error naming %s, got %v", tc.field, err)
			}
		})
	}
}

// TestValidateCurrencies tests currency code validation.
//
// WHY: Currency codes configure which sub-ledgers exist; a lowercase or
// misspelled code would silently create an empty group for every import.
func TestValidateCurrencies(t *testing.T) {
	if err := validation.ValidateCurrencies([]string{"EUR", "USD", "GBP"}); err != nil {
		t.Errorf("Expected valid codes, got %v", err)
	}

	for _, bad := range []string{"", "eur", "EURO", "E1R"} {
		if err := validation.ValidateCurrency(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}
