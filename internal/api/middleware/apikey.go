package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flexledger/flexledger/internal/api/response"
)

// timeTokenWindow bounds how long a generated time token stays valid.
const timeTokenWindow = 5 * time.Minute

// GenerateTimeToken returns a short-lived request proof tied to the API
// key: "<unix>.<hex hmac-sha256(unix, key)>".
func GenerateTimeToken(apiKey string) string {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	return now + "." + signTimestamp(now, apiKey)
}

func signTimestamp(timestamp, apiKey string) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func validTimeToken(token, apiKey string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}
	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(timestamp, 0))
	if age > timeTokenWindow || age < -timeTokenWindow {
		return false
	}
	expected := signTimestamp(parts[0], apiKey)
	return hmac.Equal([]byte(parts[1]), []byte(expected))
}

// APIKeyMiddleware guards mutating endpoints with the INTERNAL_API_KEY
// shared secret plus a short-lived time token derived from it, so a
// captured request cannot be replayed indefinitely.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := os.Getenv("INTERNAL_API_KEY")
		if expected == "" {
			response.RespondError(w, http.StatusInternalServerError, "authentication failed", "Authentication not loaded")
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing API key")
			return
		}
		if !hmac.Equal([]byte(apiKey), []byte(expected)) {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Invalid API key")
			return
		}

		timeToken := r.Header.Get("X-Time-Token")
		if timeToken == "" {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing Time token")
			return
		}
		if !validTimeToken(timeToken, expected) {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Time token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}
