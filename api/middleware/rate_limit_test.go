package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis/redistest"
)

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	client := redis.NewWithStore(redistest.NewMemory())
	handler := RateLimit(client, 2, time.Minute, nil)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	other.Header.Set("X-Forwarded-For", "10.0.0.2, 172.16.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, other)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected separate window per ip, got %d", resp.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(nil, 0, 0, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:443"
	if got := clientIP(req); got != "192.168.1.5" {
		t.Fatalf("expected remote host got %q", got)
	}
	req.Header.Set("X-Real-IP", "8.8.8.8")
	if got := clientIP(req); got != "8.8.8.8" {
		t.Fatalf("expected real ip header got %q", got)
	}
}
