package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// publicRoutes lists route patterns reachable without a bearer token:
// infrastructure checks and share-link resolution, which recipients open
// without an account.
var publicRoutes = map[string]bool{
	http.MethodGet + " /health":             true,
	http.MethodGet + " /health/db":          true,
	http.MethodGet + " /health/ready":       true,
	http.MethodGet + " /metrics":            true,
	http.MethodGet + " /api/shared/:token":  true,
	http.MethodHead + " /api/shared/:token": true,
}

// AuthSkipper reports whether the matched route skips authentication.
func AuthSkipper(c echo.Context) bool {
	return publicRoutes[c.Request().Method+" "+c.Path()]
}
