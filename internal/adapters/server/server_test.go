package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/fbagate/internal/adapters/server/common"
	"github.com/evanschultz/fbagate/internal/adapters/storage/sqlite"
	"github.com/evanschultz/fbagate/internal/app"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestService(t *testing.T) (*common.AppServiceAdapter, *sqlite.Repository) {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := app.NewService(repo, repo, func() string { return "p1" }, func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{})
	return common.NewAppServiceAdapter(svc), repo
}

// TestNormalizeConfigDefaults verifies default bind, endpoints and name.
func TestNormalizeConfigDefaults(t *testing.T) {
	cfg, err := normalizeConfig(Config{APIEndpoint: "api/v2/", MCPEndpoint: " "})
	if err != nil {
		t.Fatalf("normalizeConfig() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress {
		t.Fatalf("HTTPBind = %q, want %q", cfg.HTTPBind, defaultBindAddress)
	}
	if cfg.APIEndpoint != "/api/v2" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("endpoints = %q, %q", cfg.APIEndpoint, cfg.MCPEndpoint)
	}
	if cfg.ServerName != "fbagate" || cfg.ServerVersion != "dev" {
		t.Fatalf("name/version = %q/%q", cfg.ServerName, cfg.ServerVersion)
	}
	if _, err := normalizeConfig(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}); err == nil {
		t.Fatal("expected endpoint collision error")
	}
}

// TestNewHandlerRequiresService verifies composition fails without a service.
func TestNewHandlerRequiresService(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("NewHandler() error = nil, want error")
	}
}

// TestHandlerHealthAndReadiness verifies health probes and readiness failures.
func TestHandlerHealthAndReadiness(t *testing.T) {
	svc, repo := newTestService(t)
	handler, _, err := NewHandler(Config{}, Dependencies{Service: svc, Ready: repo})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}

	handler, _, err = NewHandler(Config{}, Dependencies{Service: svc, Ready: stubPinger{err: errors.New("db gone")}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestHandlerMountsAPI verifies REST routes are reachable under the API prefix.
func TestHandlerMountsAPI(t *testing.T) {
	svc, _ := newTestService(t)
	handler, _, err := NewHandler(Config{}, Dependencies{Service: svc})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"name":"Lids"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects/p1/phase_check?to=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("phase_check status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Fatalf("phase_check body = %s, want blocked result", rec.Body.String())
	}
}

// TestRunStopsOnContextCancel verifies graceful shutdown.
func TestRunStopsOnContextCancel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Service: svc})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
