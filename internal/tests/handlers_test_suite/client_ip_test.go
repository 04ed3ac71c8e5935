package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	handler "github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	rl "github.com/rogerio-castellano/restock-analytics/internal/http/rate_limiter"
)

func loginFrom(r http.Handler, remoteAddr, forwardedFor string) int {
	body, _ := json.Marshal(handler.UserLogin{Username: "nobody", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func throttleToOneRequest(t *testing.T) {
	rl.Configure(0.0001, 1)
	rl.CleanupAllVisitors()
	t.Cleanup(func() {
		rl.Configure(100, 100)
		rl.CleanupAllVisitors()
	})
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	throttleToOneRequest(t)
	r := api.NewRouter()

	if code := loginFrom(r, "203.0.113.7:4000", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on the first attempt, got %d", code)
	}

	throttled := 0
	for i := range 50 {
		if loginFrom(r, "203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i+1)) == http.StatusTooManyRequests {
			throttled++
		}
	}
	if throttled != 50 {
		t.Errorf("expected every request with a rotated X-Forwarded-For to be throttled, got %d of 50", throttled)
	}
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	throttleToOneRequest(t)
	r := api.NewRouter(api.WithTrustedProxies("10.0.0.0/8"))

	// Two clients behind the same proxy each get their own bucket.
	if code := loginFrom(r, "10.1.2.3:5000", "198.51.100.1"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the first client, got %d", code)
	}
	if code := loginFrom(r, "10.1.2.3:5000", "198.51.100.2"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the second client, got %d", code)
	}
	if code := loginFrom(r, "10.1.2.3:5000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for the first client's second attempt, got %d", code)
	}

	// A peer outside the trusted range is limited by its own address.
	if code := loginFrom(r, "203.0.113.9:4000", "198.51.100.3"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an untrusted peer, got %d", code)
	}
	if code := loginFrom(r, "203.0.113.9:4000", "198.51.100.4"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for an untrusted peer rotating headers, got %d", code)
	}
}
