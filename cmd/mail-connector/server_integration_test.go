//go:build integration

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sternrassler/mail-connector/internal/config"
	"github.com/Sternrassler/mail-connector/internal/testutil"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}
	return host + ":" + port.Port()
}

func TestReadyEndpoint_Redis(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetResponses("/domains", testutil.NewListResponse("domains", testutil.Entries("d1"), nil))

	cfg := &config.Config{
		API:   config.APIConfig{BaseURL: mock.URL(), APIKey: testAPIKey, Timeout: 5 * time.Second},
		Redis: config.RedisConfig{Addr: startRedis(t)},
		Cache: config.CacheConfig{TTL: time.Minute, Paths: []string{"/domains"}},
	}
	deps, err := newDependencies(cfg)
	if err != nil {
		t.Fatalf("Failed to create dependencies: %v", err)
	}
	handler := newServer(deps).routes()

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("cached_listing", func(t *testing.T) {
		mock.Reset()
		for i := 0; i < 2; i++ {
			if status, _ := postAction(t, handler, "/v1/actions/domain/getAll", `{"items":[{}]}`); status != http.StatusOK {
				t.Fatalf("request %d: status %d", i, status)
			}
		}
		if mock.RequestCount() != 1 {
			t.Errorf("provider requests = %d, want 1 with the cache on", mock.RequestCount())
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		deps.Close()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}
