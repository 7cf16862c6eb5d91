package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/taskory/admin-access/internal/infra/config"
	"github.com/taskory/admin-access/internal/transport/http/middleware"
)

func TestRegisterServesHealthEndpoints(t *testing.T) {
	engine := Register(Dependencies{
		Config: &config.AppConfig{},
		Logger: zap.NewNop(),
	})

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/permissions", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor headers, got %d", recorder.Code)
	}
}

func TestRegisterInstrumentsRequests(t *testing.T) {
	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		t.Fatalf("NewHTTPMetrics: %v", err)
	}

	engine := Register(Dependencies{
		Config:  &config.AppConfig{},
		Logger:  zap.NewNop(),
		Metrics: metrics,
	})

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "rbac_http_requests_total") {
		t.Fatal("expected the request counter series on /metrics")
	}
}
