//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"
)

// storageOutageTimeout covers three failed readiness polls at the 10s
// probe interval plus recovery.
const storageOutageTimeout = 90 * time.Second

func TestLivez(t *testing.T) {
	body := expect[healthResponse](t, doGet(t, "/livez"), http.StatusOK)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
}

func TestReadyz_StorageOutage(t *testing.T) {
	body := expect[healthResponse](t, doGet(t, "/readyz"), http.StatusOK)
	if body.Status != "ok" || len(body.Checks) != 0 {
		t.Fatalf("expected a healthy service, got %+v", body)
	}

	// Load the session before the outage so it is served from memory.
	token := newSession(t)
	expect[cartResponse](t, do(t, http.MethodGet, "/api/session/cart", token, nil), http.StatusOK)

	ctx, cancel := context.WithTimeout(context.Background(), 2*storageOutageTimeout)
	defer cancel()

	redis, err := stack.ServiceContainer(ctx, "redis")
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	stopTimeout := 5 * time.Second
	if err := redis.Stop(ctx, &stopTimeout); err != nil {
		t.Fatalf("stop redis: %v", err)
	}
	restarted := false
	t.Cleanup(func() {
		if !restarted {
			_ = redis.Start(context.Background())
		}
	})

	waitReadyz(t, http.StatusServiceUnavailable, func(h healthResponse) bool {
		_, failing := h.Checks["storage"]
		return h.Status == "unhealthy" && failing
	})

	// Liveness does not depend on storage.
	expect[healthResponse](t, doGet(t, "/livez"), http.StatusOK)

	// Mutations of a loaded session do not wait for storage.
	cart := expect[cartResponse](t, do(t, http.MethodPost, "/api/session/cart/items", token,
		map[string]any{"product_id": 1}), http.StatusOK)
	if cart.TotalCount != 1 {
		t.Fatalf("expected 1 item during outage, got %d", cart.TotalCount)
	}

	if err := redis.Start(ctx); err != nil {
		t.Fatalf("start redis: %v", err)
	}
	restarted = true

	waitReadyz(t, http.StatusOK, func(h healthResponse) bool { return h.Status == "ok" })
}

func waitReadyz(t *testing.T, status int, cond func(healthResponse) bool) {
	t.Helper()

	deadline := time.Now().Add(storageOutageTimeout)
	var last healthResponse
	var lastStatus int
	for time.Now().Before(deadline) {
		resp := doGet(t, "/readyz")
		lastStatus = resp.StatusCode
		last = decodeJSON[healthResponse](t, resp)
		resp.Body.Close()
		if lastStatus == status && cond(last) {
			return
		}
		time.Sleep(time.Second)
	}
	t.Fatalf("readyz: want %d, last %d %+v", status, lastStatus, last)
}
