package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flexledger/flexledger/internal/api/request"
)

// digitsPattern matches provider tokens and query IDs, which are numeric
// but too long for integer parsing.
var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// ValidateUpdateFlexConfig validates a provider credential update.
// The token stays optional so the query ID or auto-import flag can be
// changed without re-entering it.
func ValidateUpdateFlexConfig(req request.UpdateFlexConfigRequest) error {
	errors := make(map[string]string)

	if req.FlexToken != nil {
		token := strings.TrimSpace(*req.FlexToken)
		if token == "" {
			errors["flexToken"] = "flexToken must not be blank"
		} else if len(token) != 25 {
			errors["flexToken"] = "flexToken must be 25 characters"
		} else if !digitsPattern.MatchString(token) {
			errors["flexToken"] = "flexToken must be a number"
		}
	}

	if req.FlexQueryID == nil || *req.FlexQueryID == "" {
		errors["flexQueryId"] = "flexQueryId must be set"
	} else if len(*req.FlexQueryID) > 10 {
		errors["flexQueryId"] = "flexQueryId must be 10 characters or less"
	} else if !digitsPattern.MatchString(strings.TrimSpace(*req.FlexQueryID)) {
		errors["flexQueryId"] = "flexQueryId must be a number"
	}

	if req.TokenExpiresAt != nil {
		if _, err := ParseTime(*req.TokenExpiresAt); err != nil {
			errors["tokenExpiresAt"] = fmt.Sprintf("tokenExpiresAt cannot be parsed: %v", err)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}
