package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestLiveness(t *testing.T) {
	rec, _ := serve(t, NewHandler(time.Second).Liveness)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHandler(time.Second)
	h.Register("database", func(context.Context) error { return nil })
	h.Register("objectstore", func(context.Context) error { return nil })

	rec, body := serve(t, h.Readiness)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.Status != "ok" || len(body.Dependencies) != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestReadiness_Degraded(t *testing.T) {
	h := NewHandler(time.Second)
	h.Register("database", func(context.Context) error { return nil })
	h.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	rec, body := serve(t, h.Readiness)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body.Status != "degraded" {
		t.Errorf("expected degraded, got %s", body.Status)
	}
	if body.Dependencies["redis"].Error != "connection refused" {
		t.Errorf("expected redis error, got %+v", body.Dependencies["redis"])
	}
	if body.Dependencies["database"].Status != "ok" {
		t.Errorf("expected database ok, got %+v", body.Dependencies["database"])
	}
}

func TestNames_Sorted(t *testing.T) {
	h := NewHandler(0)
	h.Register("redis", nil)
	h.Register("database", nil)
	names := h.Names()
	if len(names) != 2 || names[0] != "database" || names[1] != "redis" {
		t.Errorf("expected sorted names, got %v", names)
	}
}
