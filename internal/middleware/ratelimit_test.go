package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterPerUser(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	call := func(userID string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/trade", nil)
		req = req.WithContext(contextWithUser(req.Context(), userID))
		handler.ServeHTTP(rr, req)
		return rr
	}

	if call("user-1").Code != http.StatusOK || call("user-1").Code != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	rr := call("user-1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if call("user-2").Code != http.StatusOK {
		t.Fatal("other users must have their own bucket")
	}
}

func TestRateLimiterAnonymousByAddress(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	call := func(addr string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rr, req)
		return rr.Code
	}
	if call("10.0.0.1:1111") != http.StatusOK {
		t.Fatal("first call should pass")
	}
	if call("10.0.0.1:2222") != http.StatusTooManyRequests {
		t.Fatal("same host should share a bucket")
	}
	if call("10.0.0.2:1111") != http.StatusOK {
		t.Fatal("different host should pass")
	}
}
