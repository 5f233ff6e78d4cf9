package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/verify", h.Verify)
	api.GET("/auth/me", h.Me)
}

type verifyRequest struct {
	CognitoID string `json:"cognitoId"`
}

func (h *Handler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.Verify(c.Request().Context(), req.CognitoID)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, u)
}

// Me returns the user behind the caller's bearer token.
func (h *Handler) Me(c echo.Context) error {
	subject := auth.SubjectFromContext(c.Request().Context())
	if subject == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	u, err := h.svc.Verify(c.Request().Context(), subject)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func userError(err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, apperr.Detail(err))
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	default:
		return err
	}
}
