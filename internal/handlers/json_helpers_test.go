package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Fields: []service.FieldError{{Field: "title", Message: "title is required"}}}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", &service.ValidationError{}), http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive", service.ErrAccountInactive, http.StatusUnauthorized},
		{"permission", service.ErrPermissionDenied, http.StatusForbidden},
		{"not found", fmt.Errorf("lookup: %w", service.ErrNotFound), http.StatusNotFound},
		{"duplicate appeal", service.ErrAppealExists, http.StatusConflict},
		{"no storage", service.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"database", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Errorf("internal error details leaked: %s", rec.Body.String())
	}
}

func TestJSONResponseNormalizesNilSlices(t *testing.T) {
	type payload struct {
		Items  []string           `json:"items"`
		Nested *models.Submission `json:"nested"`
		When   time.Time          `json:"when"`
	}

	rec := httptest.NewRecorder()
	if err := JSONResponse(rec, payload{When: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("JSONResponse failed: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if string(got["items"]) != "[]" {
		t.Errorf("expected items to be [], got %s", got["items"])
	}
	if string(got["nested"]) != "null" {
		t.Errorf("expected nil pointer to stay null, got %s", got["nested"])
	}
	if string(got["when"]) != `"2024-06-12T00:00:00Z"` {
		t.Errorf("time must be encoded unchanged, got %s", got["when"])
	}

	rec = httptest.NewRecorder()
	var list []models.Event
	_ = JSONResponse(rec, list)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected a nil slice to encode as [], got %s", rec.Body.String())
	}
}

func TestParseHelpers(t *testing.T) {
	if id, ok := parseID("42"); !ok || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, ok)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, ok := parseID(bad); ok {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}

	if d, ok := parseDate(""); !ok || d != nil {
		t.Errorf("an empty date should be accepted as absent")
	}
	if d, ok := parseDate("2024-06-12"); !ok || d.Day() != 12 {
		t.Errorf("parseDate failed for a valid date")
	}
	if _, ok := parseDate("12/06/2024"); ok {
		t.Errorf("parseDate should reject other layouts")
	}
}
