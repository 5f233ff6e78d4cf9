package sharing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the sharing endpoints. adminMW guards deactivation.
func (h *Handler) RegisterRoutes(api *echo.Group, adminMW ...echo.MiddlewareFunc) {
	api.POST("/test/share", h.Share)
	api.GET("/test/:id/shares", h.ListByTest)
	api.GET("/shared/:token", h.Resolve)
	api.POST("/shared/:token/deactivate", h.Deactivate, adminMW...)
}

func (h *Handler) Share(c echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return shareError(err, "Test not found")
	}
	// Validated above.
	testID, _ := uuid.Parse(req.BloodTestID)
	byID, _ := uuid.Parse(req.SharedByID)

	grant, err := h.svc.Share(c.Request().Context(), testID, byID, req.SharedWithEmail)
	if err != nil {
		return shareError(err, "Test not found")
	}
	return c.JSON(http.StatusOK, grant)
}

func (h *Handler) ListByTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid test ID")
	}
	items, err := h.svc.ListByTest(c.Request().Context(), id)
	if err != nil {
		return shareError(err, "Test not found")
	}
	return c.JSON(http.StatusOK, items)
}

// Resolve is public: the token is the credential.
func (h *Handler) Resolve(c echo.Context) error {
	t, err := h.svc.Resolve(c.Request().Context(), c.Param("token"))
	if err != nil {
		return shareError(err, "Shared test not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("token")); err != nil {
		return shareError(err, "Shared test not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func shareError(err error, notFound string) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, apperr.Detail(err))
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, apperr.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "share could not be created, please retry")
	default:
		return err
	}
}
