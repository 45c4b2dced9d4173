package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/timesheet/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// =============================================================================
// APIKeyAuth
// =============================================================================

func TestAPIKeyAuth(t *testing.T) {
	required := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a", "b"}}

	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		header     string
		value      string
		wantStatus int
		wantCode   string
	}{
		{"disabled", config.SecurityConfig{}, "", "", http.StatusOK, ""},
		{"valid key", required, "X-API-Key", "b", http.StatusOK, ""},
		{"valid bearer", required, "Authorization", "Bearer a", http.StatusOK, ""},
		{"lowercase bearer", required, "Authorization", "bearer b", http.StatusOK, ""},
		{"missing key", required, "", "", http.StatusUnauthorized, "AUTH001"},
		{"basic auth is not a key", required, "Authorization", "Basic YTpi", http.StatusUnauthorized, "AUTH001"},
		{"wrong key", required, "X-API-Key", "z", http.StatusForbidden, "AUTH002"},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "X-API-Key", "a", http.StatusForbidden, "AUTH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(tt.cfg, discardLogger())(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
			if body["message"] == "" || body["action"] == "" {
				t.Errorf("body = %v, want message and action", body)
			}
		})
	}
}

// =============================================================================
// TrustedRealIP
// =============================================================================

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"no proxies configured", nil, "10.0.0.1:5000", "1.2.3.4", "", "10.0.0.1:5000"},
		{"trusted X-Real-IP", []string{"10.0.0.0/8"}, "10.0.0.1:5000", "1.2.3.4", "", "1.2.3.4"},
		{"trusted X-Forwarded-For", []string{"10.0.0.1"}, "10.0.0.1:5000", "", "5.6.7.8, 10.0.0.1", "5.6.7.8"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.168.1.1:5000", "1.2.3.4", "", "192.168.1.1:5000"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.0.0.1:5000", "not-an-ip", "", "10.0.0.1:5000"},
		{"bad cidr skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.1:5000", "1.2.3.4", "", "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// RateLimit
// =============================================================================

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Date(2024, 10, 9, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst of 2 rejected")
	}
	if rl.Allow("a") {
		t.Error("third request inside the burst allowed")
	}
	if !rl.Allow("b") {
		t.Error("other client throttled")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Error("token not refilled after one second at 60/min")
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2024, 10, 9, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("a")
	rl.Allow("b")
	now = now.Add(visitorTTL + time.Minute)
	rl.Allow("c")

	if got := rl.Len(); got != 1 {
		t.Errorf("tracked clients = %d, want 1", got)
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, 1), "test", discardLogger())(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/time-entries/upload", nil)
		req.RemoteAddr = "1.2.3.4:999"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), "RATE001") {
		t.Errorf("body = %s", rec.Body)
	}
}

// =============================================================================
// Logger and Metrics
// =============================================================================

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(logger))
	r.Use(Metrics)
	r.Get("/api/customers/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("{}"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/customers/Acme", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "request_id=", "path=/api/customers/Acme", "bytes=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestRoutePattern(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/api/time-entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = routePattern(r)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/time-entries/42", nil))
	if got != "/api/time-entries/{id}" {
		t.Errorf("routePattern = %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Errorf("routePattern without chi = %q, want unmatched", got)
	}
}
