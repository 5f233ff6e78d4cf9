package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/advait5300/jivana-health-platform/internal/platform/auth"
)

// Audit logs every access to blood test records: who touched which record,
// how, and with what outcome. Share tokens are never logged since they
// grant access on their own.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !isAuditableRoute(route) {
				return next(c)
			}

			err := next(c)

			req := c.Request()
			ctx := req.Context()
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			evt := logger.Info()
			if status == http.StatusForbidden || status == http.StatusUnauthorized {
				evt = logger.Warn()
			}
			evt.
				Str("type", "record_access").
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("subject", auth.SubjectFromContext(ctx)).
				Strs("roles", auth.RolesFromContext(ctx)).
				Str("action", httpMethodToAction(req.Method, route)).
				Str("route", route).
				Str("record_id", recordID(c)).
				Str("remote_ip", c.RealIP()).
				Int("status", status).
				Msg("health_record_access")

			return err
		}
	}
}

func isAuditableRoute(route string) bool {
	return strings.HasPrefix(route, "/api/test") ||
		strings.HasPrefix(route, "/api/shared/") ||
		route == "/api/latest-test"
}

func httpMethodToAction(method, route string) string {
	switch {
	case route == UploadRoute:
		return "create"
	case strings.HasSuffix(route, "/share"):
		return "share"
	case strings.HasSuffix(route, "/deactivate"):
		return "revoke"
	case method == http.MethodGet || method == http.MethodHead:
		return "read"
	default:
		return "update"
	}
}

// recordID returns the test or user identifier addressed by the route.
func recordID(c echo.Context) string {
	for _, name := range []string{"id", "userId"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}
