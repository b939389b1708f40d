package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"relist-engine/internal/config"
)

func testConfig(routes ...config.Route) config.Config {
	cfg, _ := config.NormalizeAndValidate(config.Config{})
	cfg.Fetch.Routes = routes
	cfg.Fetch.MaxAttempts = 3
	cfg.Fetch.HostReqPerSec = 1000
	cfg.Fetch.HostBurst = 1000
	return cfg
}

func newTestFetcher(t *testing.T, cfg config.Config, reg *CircuitRegistry) *Fetcher {
	t.Helper()
	f, err := New(cfg, reg, NewHostLimiter(cfg.Fetch.HostReqPerSec, cfg.Fetch.HostBurst))
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html><body>product page body that is long enough to not look like a challenge shell</body></html>"))
	}))
	defer srv.Close()

	reg := NewCircuitRegistry(5, time.Minute)
	f := newTestFetcher(t, testConfig(config.Route{Name: "direct"}), reg)

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if body == "" {
		t.Fatalf("expected non-empty body")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := NewCircuitRegistry(10, time.Minute)
	f := newTestFetcher(t, testConfig(config.Route{Name: "direct"}), reg)

	_, err := f.Fetch(context.Background(), srv.URL)
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if ex.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", ex.Attempts)
	}
	if ex.Last == nil {
		t.Fatalf("exhausted error should carry the last attempt error")
	}
}

func TestFetchFailsFastWhenAllCircuitsOpen(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	reg := NewCircuitRegistry(1, time.Hour)
	reg.RecordFailure("direct") // trips the only route open

	f := newTestFetcher(t, testConfig(config.Route{Name: "direct"}), reg)

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrAllRoutesUnavailable) {
		t.Fatalf("expected ErrAllRoutesUnavailable, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("no network activity expected, saw %d requests", calls.Load())
	}
}

func TestFetchRecordsFailuresAgainstRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	reg := NewCircuitRegistry(3, time.Hour)
	f := newTestFetcher(t, testConfig(config.Route{Name: "direct"}), reg)

	_, _ = f.Fetch(context.Background(), srv.URL)

	if got := reg.State("direct"); got != CircuitOpen {
		t.Fatalf("route state = %s, want open after 3 failed attempts", got)
	}
}

func TestFetchRejectsBotBlockPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Robot Check</title></head><body>Enter the characters you see below</body></html>`))
	}))
	defer srv.Close()

	reg := NewCircuitRegistry(10, time.Minute)
	f := newTestFetcher(t, testConfig(config.Route{Name: "direct"}), reg)

	_, err := f.Fetch(context.Background(), srv.URL)
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError for bot-block page, got %v", err)
	}
}
