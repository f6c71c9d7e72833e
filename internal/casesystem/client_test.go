package casesystem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(url string) Config {
	return Config{BaseURL: url, Timeout: time.Second, Attempts: 3, Backoff: time.Millisecond}
}

func TestModernClient_QueryModernCaseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/cases/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req identRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ident != "12345678901" {
			t.Errorf("unexpected body: %+v, %v", req, err)
		}
		json.NewEncoder(w).Encode(ModernStatus{
			Cases:          []ModernCase{{ID: 7, Status: ModernOpen}},
			RelatedParties: []string{"10987654321"},
		})
	}))
	defer srv.Close()

	status, err := NewModernClient(testConfig(srv.URL), testLogger()).QueryModernCaseStatus(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(status.Cases) != 1 || status.Cases[0].Status != ModernOpen {
		t.Errorf("unexpected cases: %+v", status.Cases)
	}
	if len(status.RelatedParties) != 1 {
		t.Errorf("unexpected related parties: %v", status.RelatedParties)
	}
}

func TestClient_NotFoundMeansNoCase(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	status, err := NewLegacyClient(testConfig(srv.URL), testLogger()).QueryLegacyCaseStatus(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if len(status.Cases) != 0 {
		t.Errorf("expected no cases, got %+v", status.Cases)
	}
}

func TestClient_RetriesThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewModernClient(testConfig(srv.URL), testLogger()).QueryModernCaseStatus(context.Background(), "12345678901")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_RecoversWithinAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(LegacyStatus{Cases: []LegacyCase{{ID: "A1", Status: "UB"}}})
	}))
	defer srv.Close()

	status, err := NewLegacyClient(testConfig(srv.URL), testLogger()).QueryLegacyCaseStatus(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(status.Cases) != 1 {
		t.Errorf("expected one case, got %+v", status.Cases)
	}
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewModernClient(testConfig(srv.URL), testLogger()).QueryModernCaseStatus(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("400 should not be reported as unavailable: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestDocumentClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewDocumentClient(testConfig(srv.URL), testLogger()).FetchDocument(context.Background(), "453")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDocument_PersonSubject(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"no subject", Document{}, false},
		{"organisation", Document{Subject: &DocumentSubject{ID: "889640782", Type: SubjectOrgNumber}}, false},
		{"person", Document{Subject: &DocumentSubject{ID: "12345678901", Type: SubjectPersonIdent}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := tt.doc.PersonSubject(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClient_RejectedRequestErrorHidesIdent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"ugyldig ident 12345678901"` + strings.Repeat(" ", 400) + `}`))
	}))
	defer srv.Close()

	_, err := NewModernClient(testConfig(srv.URL), testLogger()).QueryModernCaseStatus(context.Background(), "12345678901")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("rejected request should not be retried as unavailable: %v", err)
	}
	if strings.Contains(err.Error(), "12345678901") {
		t.Errorf("error leaks ident: %v", err)
	}
	if len(err.Error()) > 256 {
		t.Errorf("error body not truncated: %d bytes", len(err.Error()))
	}
}
