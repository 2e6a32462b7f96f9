package normalize_test

import (
	"testing"
	"time"

	"github.com/flexledger/flexledger/internal/normalize"
)

// TestNumber tests provider-formatted numeric parsing.
//
// WHY: Every amount in the pipeline flows through this parser. The source
// data mixes currency symbols, thousands separators, parenthesized values,
// and placeholder strings, and a single misparse corrupts an activity
// amount downstream.
func TestNumber(t *testing.T) {
	t.Run("parses formatted values", func(t *testing.T) {
		cases := []struct {
			in   string
			want float64
		}{
			{"$1,234.56", 1234.56},
			{"(123.45)", 123.45},
			{"-42.5", -42.5},
			{"+10", 10},
			{"1.5e-3", 0.0015},
			{"€ 999", 999},
			{"0", 0},
		}
		for _, tc := range cases {
			got, ok := normalize.Number(tc.in)
			if !ok {
				t.Errorf("Number(%q) unexpectedly invalid", tc.in)
				continue
			}
			if got != tc.want {
				t.Errorf("Number(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	})

	t.Run("parentheses do not flip the sign", func(t *testing.T) {
		got, ok := normalize.Number("(123.45)")
		if !ok || got != 123.45 {
			t.Errorf("Number(\"(123.45)\") = %v, %v; want 123.45, true", got, ok)
		}
	})

	t.Run("rejects placeholders and garbage", func(t *testing.T) {
		for _, in := range []string{"", "-", "N/A", "null", "NULL", "abc", "NaN", "Inf", "$", "()"} {
			if _, ok := normalize.Number(in); ok {
				t.Errorf("Number(%q) unexpectedly valid", in)
			}
		}
	})
}

// TestNumberOr tests the fallback variant.
//
// WHY: Conversion code uses NumberOr heavily for optional columns; the
// fallback must apply only when the value is invalid, never for zero.
func TestNumberOr(t *testing.T) {
	if got := normalize.NumberOr("", 7); got != 7 {
		t.Errorf("NumberOr(\"\", 7) = %v, want 7", got)
	}
	if got := normalize.NumberOr("0", 7); got != 0 {
		t.Errorf("NumberOr(\"0\", 7) = %v, want 0", got)
	}
}

// TestDateOnly tests date canonicalization.
//
// WHY: Fingerprints compare dates textually. A stored RFC3339 timestamp and
// a provider date must reduce to the same YYYY-MM-DD string or re-imports
// duplicate every activity.
func TestDateOnly(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"2024-03-01T15:04:05Z", "2024-03-01"},
		{"2024-03-01 15:04:05", "2024-03-01"},
		{"20240301;150405", "20240301;150405"}, // non-ISO passes through
		{"  2024-03-01  ", "2024-03-01"},
	}
	for _, tc := range cases {
		if got := normalize.DateOnly(tc.in); got != tc.want {
			t.Errorf("DateOnly(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestCanonicalDate tests full date canonicalization.
//
// WHY: Position and FX-rate lookups compare dates lexicographically, so
// the provider's native "20060102;150405" rendering must reduce to the
// same YYYY-MM-DD string as a plain cash-section date.
func TestCanonicalDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"20240110;093000", "2024-01-10"},
		{"20240110", "2024-01-10"},
		{"2024-03-01T15:04:05Z", "2024-03-01"},
		{"not a date", "not a date"},
	}
	for _, tc := range cases {
		if got := normalize.CanonicalDate(tc.in); got != tc.want {
			t.Errorf("CanonicalDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestParseDate tests the layered date layouts.
//
// WHY: The provider writes "20060102;150405" in trade sections and plain
// dates elsewhere; stored activities come back as RFC3339. All must parse
// to the same UTC day.
func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-01", "20240301"} {
		got, ok := normalize.ParseDate(in)
		if !ok {
			t.Fatalf("ParseDate(%q) unexpectedly invalid", in)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	tsGot, ok := normalize.ParseDate("20240301;150405")
	if !ok {
		t.Fatal("ParseDate with compact timestamp unexpectedly invalid")
	}
	if normalize.FormatDate(tsGot) != "2024-03-01" {
		t.Errorf("ParseDate compact timestamp day = %s, want 2024-03-01", normalize.FormatDate(tsGot))
	}

	if _, ok := normalize.ParseDate(""); ok {
		t.Error("ParseDate(\"\") unexpectedly valid")
	}
	if _, ok := normalize.ParseDate("not a date"); ok {
		t.Error("ParseDate garbage unexpectedly valid")
	}
}
