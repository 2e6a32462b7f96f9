package flex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flexledger/flexledger/internal/apperrors"
)

const sampleCSV = "ClientAccountID,CurrencyPrimary,Symbol\nU1,USD,AAPL\n"

const successEnvelope = `<FlexStatementResponse timestamp="2024-03-01">
  <Status>Success</Status>
  <ReferenceCode>REF123</ReferenceCode>
</FlexStatementResponse>`

func errorEnvelope(code string) string {
	return `<FlexStatementResponse timestamp="2024-03-01">
  <Status>Warn</Status>
  <ErrorCode>` + code + `</ErrorCode>
  <ErrorMessage>provider message</ErrorMessage>
</FlexStatementResponse>`
}

// newTestClient shrinks the polling bounds so retry paths run in
// milliseconds. Internal test: the bounds are unexported on purpose.
func newTestClient(baseURL string) *ReportClient {
	c := NewReportClient(baseURL)
	c.initialBackoff = time.Millisecond
	c.maxBackoff = 2 * time.Millisecond
	c.deadline = time.Second
	return c
}

// TestFetchReport tests the request/poll/download cycle.
//
// WHY: The poll endpoint answers with either the CSV payload or an XML
// status envelope; the client must tell them apart, poll through retryable
// codes, and stop dead on terminal ones.
func TestFetchReport(t *testing.T) {
	t.Run("polls through in-progress codes to the payload", func(t *testing.T) {
		polls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("t") != "token-1" || r.URL.Query().Get("q") != "987654" {
				t.Errorf("Unexpected credentials: %s", r.URL.RawQuery)
			}
			w.Write([]byte(successEnvelope))
		})
		mux.HandleFunc("/GetStatement", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") != "REF123" {
				t.Errorf("Expected poll with reference code, got %s", r.URL.RawQuery)
			}
			polls++
			if polls < 3 {
				w.Write([]byte(errorEnvelope("1019")))
				return
			}
			w.Write([]byte(sampleCSV))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		got, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654")
		if err != nil {
			t.Fatalf("FetchReport() returned unexpected error: %v", err)
		}
		if got != sampleCSV {
			t.Errorf("Expected the CSV payload, got %q", got)
		}
		if polls != 3 {
			t.Errorf("Expected 3 polls, got %d", polls)
		}
	})

	t.Run("rate limiting is polled through", func(t *testing.T) {
		polls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(successEnvelope))
		})
		mux.HandleFunc("/GetStatement", func(w http.ResponseWriter, _ *http.Request) {
			polls++
			if polls == 1 {
				w.Write([]byte(errorEnvelope("1021")))
				return
			}
			w.Write([]byte(sampleCSV))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		if _, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654"); err != nil {
			t.Fatalf("FetchReport() returned unexpected error: %v", err)
		}
	})

	t.Run("terminal code stops polling", func(t *testing.T) {
		polls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(successEnvelope))
		})
		mux.HandleFunc("/GetStatement", func(w http.ResponseWriter, _ *http.Request) {
			polls++
			w.Write([]byte(errorEnvelope("1012")))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654")
		if err == nil {
			t.Fatal("Expected a terminal error")
		}
		if polls != 1 {
			t.Errorf("Expected exactly 1 poll, got %d", polls)
		}
	})

	t.Run("generation failure is terminal", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(errorEnvelope("1015")))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		if _, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654"); err == nil {
			t.Fatal("Expected an error for invalid token")
		}
	})

	t.Run("exhausted retries time out", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(successEnvelope))
		})
		mux.HandleFunc("/GetStatement", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(errorEnvelope("1019")))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654")
		if !errors.Is(err, apperrors.ErrReportFetchTimeout) {
			t.Errorf("Expected ErrReportFetchTimeout, got %v", err)
		}
	})

	t.Run("server error page is never served as the report", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/SendRequest", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(successEnvelope))
		})
		mux.HandleFunc("/GetStatement", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("<html><body>Service Unavailable</body></html>"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		got, err := newTestClient(srv.URL).FetchReport(context.Background(), "token-1", "987654")
		if err == nil {
			t.Fatalf("Expected an error for HTTP 503, got payload %q", got)
		}
		if !strings.Contains(err.Error(), "503") {
			t.Errorf("Expected the status code in the error, got %v", err)
		}
	})

	t.Run("missing credentials fail before any request", func(t *testing.T) {
		_, err := newTestClient("http://unused").FetchReport(context.Background(), "", "987654")
		if !errors.Is(err, apperrors.ErrMissingFlexToken) {
			t.Errorf("Expected ErrMissingFlexToken, got %v", err)
		}
	})
}

// TestLooksLikeEnvelope tests payload detection.
//
// WHY: Distinguishing the CSV from the status envelope is what ends the
// poll loop; a CSV misread as an envelope would fail a completed report.
func TestLooksLikeEnvelope(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{successEnvelope, true},
		{"<?xml version=\"1.0\"?><FlexStatementResponse/>", true},
		{"  \n" + successEnvelope, true},
		{sampleCSV, false},
		{"\"Quoted\",Header\n1,2\n", false},
	}
	for _, tc := range cases {
		if got := looksLikeEnvelope([]byte(tc.body)); got != tc.want {
			t.Errorf("looksLikeEnvelope(%.30q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}
