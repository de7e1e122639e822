package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"goldtrader/internal/models"
)

type stubUserLookup struct {
	getByIDFn func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserLookup) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.getByIDFn(ctx, userID)
}

func contextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func serveStaff(t *testing.T, lookup stubUserLookup, userID string) int {
	t.Helper()
	return serveStaffRecorder(t, lookup, userID).Code
}

func serveStaffRecorder(t *testing.T, lookup stubUserLookup, userID string) *httptest.ResponseRecorder {
	t.Helper()
	handler := RequireStaff(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != "" {
		req = req.WithContext(contextWithUser(req.Context(), userID))
	}
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireStaffMissingUser(t *testing.T) {
	lookup := stubUserLookup{getByIDFn: func(context.Context, string) (models.User, error) {
		t.Fatalf("unexpected call")
		return models.User{}, nil
	}}
	if code := serveStaff(t, lookup, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireStaffNotStaff(t *testing.T) {
	lookup := stubUserLookup{getByIDFn: func(context.Context, string) (models.User, error) {
		return models.User{ID: "user-1"}, nil
	}}
	rr := serveStaffRecorder(t, lookup, "user-1")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body %q: %v", rr.Body.String(), err)
	}
	if body["error"] != "staff privileges required" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
}

func TestRequireStaffAllowsStaff(t *testing.T) {
	lookup := stubUserLookup{getByIDFn: func(context.Context, string) (models.User, error) {
		return models.User{ID: "user-1", IsStaff: true}, nil
	}}
	if code := serveStaff(t, lookup, "user-1"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireStaffLookupErrors(t *testing.T) {
	gone := stubUserLookup{getByIDFn: func(context.Context, string) (models.User, error) {
		return models.User{}, sql.ErrNoRows
	}}
	if code := serveStaff(t, gone, "user-1"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	broken := stubUserLookup{getByIDFn: func(context.Context, string) (models.User, error) {
		return models.User{}, errors.New("db down")
	}}
	if code := serveStaff(t, broken, "user-1"); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
}
