package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/player-scout/internal/config"
	"github.com/riskibarqy/player-scout/internal/platform/logging"
)

func TestNewHTTPServer_MemoryStore(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:       ":0",
		StoreBackend:   config.StoreMemory,
		CacheEnabled:   true,
		CacheTTL:       time.Minute,
		MetricsEnabled: true,
		SwaggerEnabled: true,
		SourceTimeout:  time.Second,
	}

	srv, cleanup, err := NewHTTPServer(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}()

	for _, path := range []string{"/healthz", "/metrics", "/openapi.yaml", "/v1/countries"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status 200, got %d body=%s", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "player_scout_cache_entries") {
		t.Fatalf("expected cache gauges in metrics output")
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	_, _, err := NewHTTPServer(context.Background(), config.Config{StoreBackend: config.StoreMemory}, logging.NewNop())
	if err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
