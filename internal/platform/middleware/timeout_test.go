package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/test/1", "/api/test/:id")
	if err := RequestTimeout(time.Second, time.Minute)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_ReturnsGatewayTimeout(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/test/1", "/api/test/:id")

	err := RequestTimeout(10*time.Millisecond, time.Minute)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}
}

func TestRequestTimeout_UploadGetsLongerDeadline(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/test/upload", UploadRoute)

	var remaining time.Duration
	err := RequestTimeout(time.Millisecond, time.Hour)(func(c echo.Context) error {
		deadline, _ := c.Request().Context().Deadline()
		remaining = time.Until(deadline)
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining < time.Minute {
		t.Errorf("expected upload deadline near one hour, got %s", remaining)
	}
}

func TestRequestTimeout_ZeroMeansNoDeadline(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/test/upload", UploadRoute)
	err := RequestTimeout(time.Second, 0)(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline on uploads")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
