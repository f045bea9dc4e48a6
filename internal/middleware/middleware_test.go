package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"osld-portal/internal/auth"
	"osld-portal/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	authSvc := auth.NewService(&config.JWTConfig{Secret: "middleware-test", Expiration: time.Hour})
	token, err := authSvc.GenerateToken(7, "CSC")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var gotOrg string
	var gotAccount uint
	handler := NewAuthMiddleware(authSvc).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg, _ = GetOrganizationCode(r)
		gotAccount, _ = GetAccountID(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/deadlines", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if gotOrg != "CSC" || gotAccount != 7 {
		t.Errorf("expected CSC/7 in context, got %q/%d", gotOrg, gotAccount)
	}
}

func TestRequireOrganization(t *testing.T) {
	authSvc := auth.NewService(&config.JWTConfig{Secret: "middleware-test", Expiration: time.Hour})
	handler := NewAuthMiddleware(authSvc).Authenticate(RequireOrganization("OSLD")(okHandler()))

	tests := []struct {
		org  string
		want int
	}{
		{"OSLD", http.StatusOK},
		{"USG", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.org, func(t *testing.T) {
			token, err := authSvc.GenerateToken(1, tt.org)
			if err != nil {
				t.Fatalf("GenerateToken failed: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/appeals/1/approve", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	RequireOrganization("OSLD")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without authentication, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	cors := NewCORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"http://portal.test"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         300,
	})
	handler := cors.Handler(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/deadlines", nil)
	req.Header.Set("Origin", "http://portal.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("unexpected allowed methods %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/deadlines", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unknown origins must not be allowed")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Minute})
	defer rl.Close()
	now := time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	handler := rl.Limit(okHandler())

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		if got := call("10.0.0.1"); got != want {
			t.Errorf("request %d: expected %d, got %d", i+1, want, got)
		}
	}
	if got := call("10.0.0.2"); got != http.StatusOK {
		t.Errorf("other clients must not be limited, got %d", got)
	}

	now = now.Add(time.Minute)
	if got := call("10.0.0.1"); got != http.StatusOK {
		t.Errorf("expected a new window after the duration, got %d", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:80", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:41234", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSecurityHeadersAndChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(okHandler(), SecurityHeaders, mark("first"), mark("second"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/deadlines", nil))

	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("expected security headers to be set")
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected middleware order %v", order)
	}
}
