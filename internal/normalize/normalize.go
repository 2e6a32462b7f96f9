// Package normalize coerces arbitrarily-formatted provider strings into
// numeric and date primitives, and canonicalizes those primitives for
// fingerprint comparison and position lookups.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencySymbols = strings.NewReplacer(
	"$", "", "£", "", "€", "", "¥", "", "₹", "", "₽", "", "¢", "",
	",", "", " ", "", "\t", "",
)

var isoDatePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// Number parses a provider-formatted numeric string. Currency symbols,
// thousands separators, internal whitespace, and enclosing parentheses are
// stripped before parsing.
//
// Parentheses are stripped but do NOT flip the sign: "(123.45)" parses to
// 123.45, not -123.45. The source data uses this notation inconsistently and
// consumers depend on the unflipped value, so the behavior is pinned by
// tests rather than corrected.
//
// The boolean result is false for the empty string, a lone dash, the
// literals "N/A"/"null"/"NULL", and anything that does not parse as a finite
// float. Scientific notation and a leading "+" are accepted.
func Number(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "-", "N/A", "null", "NULL":
		return 0, false
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(currencySymbols.Replace(s))
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NumberOr parses like Number but returns fallback when the value is
// invalid.
func NumberOr(raw string, fallback float64) float64 {
	if v, ok := Number(raw); ok {
		return v
	}
	return fallback
}

// DateOnly reduces a date string to its YYYY-MM-DD prefix when the input
// looks like an ISO date or date-time. Anything else passes through
// unchanged: two differently-formatted renderings of the same day compare
// equal only when their strings do.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if m := isoDatePrefix.FindString(s); m != "" {
		return m
	}
	return s
}

// FormatDate renders a structured time as the canonical YYYY-MM-DD form
// used by fingerprints and position lookups.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CanonicalDate parses s with ParseDate and reformats it as the canonical
// YYYY-MM-DD form, so provider-native renderings like "20240110;093000" and
// plain dates of the same day compare equal. Input that does not parse falls
// back to DateOnly.
func CanonicalDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return FormatDate(t)
	}
	return DateOnly(s)
}

// dateLayouts are tried in order by ParseDate. The provider writes
// "20060102;150405" in trade sections and plain dates elsewhere; stored
// activities come back as RFC3339 timestamps.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"20060102;150405",
	"20060102",
}

// ParseDate parses a provider or ledger date string into a UTC time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
