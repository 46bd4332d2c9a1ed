package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/api/admin/middleware"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/indexstats"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.New()
	if _, err := reg.Declare2D("places"); err != nil {
		t.Fatalf("Declare2D: %v", err)
	}
	stats := indexstats.New()
	stats.SetPoints("places", 3)
	return NewServer(Config{Host: "127.0.0.1", Port: 0}, reg, stats)
}

func TestHandleHealthBeforeFreeze(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"loading"`) {
		t.Fatalf("expected loading status before freeze, got %s", body)
	}
}

func TestHandleStatsReportsIndexes(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "places") {
		t.Fatalf("expected places index in stats: %s", body)
	}
}

func TestHandleHealthRejectsNonGet(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/health", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestWithMiddlewareEnforcesAuth(t *testing.T) {
	reg := registry.New()
	stats := indexstats.New()
	s := NewServer(Config{
		Host: "127.0.0.1",
		Auth: middleware.AuthConfig{Enabled: true, JWTSecret: "s"},
	}, reg, stats)

	rr := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}
