package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	adapter "github.com/neomorfeo/frontdesk/internal/adapter/http"
)

func TestIPRateLimiter_Middleware(t *testing.T) {
	limiter := adapter.NewIPRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/r-1", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 2 {
		if got := call("10.0.0.1:5000"); got != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want %d", i, got, http.StatusNoContent)
		}
	}
	if got := call("10.0.0.1:5001"); got != http.StatusTooManyRequests {
		t.Errorf("over budget: status = %d, want %d", got, http.StatusTooManyRequests)
	}
	if got := call("10.0.0.2:5000"); got != http.StatusNoContent {
		t.Errorf("other client: status = %d, want %d", got, http.StatusNoContent)
	}
}

func TestIPRateLimiter_SharesBucketPerIP(t *testing.T) {
	limiter := adapter.NewIPRateLimiter(1, 1)
	if limiter.Limiter("10.0.0.1") != limiter.Limiter("10.0.0.1") {
		t.Error("same IP should reuse its limiter")
	}
	if limiter.Limiter("10.0.0.1") == limiter.Limiter("10.0.0.2") {
		t.Error("different IPs should get separate limiters")
	}
}
