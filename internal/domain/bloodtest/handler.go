package bloodtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/auth"
	"github.com/advait5300/jivana-health-platform/pkg/pagination"
)

// UserLookup resolves the caller's token subject to a user id.
type UserLookup interface {
	UserIDForSubject(ctx context.Context, subject string) (uuid.UUID, error)
}

type Handler struct {
	svc   *Service
	users UserLookup
}

func NewHandler(svc *Service, users UserLookup) *Handler {
	return &Handler{svc: svc, users: users}
}

func (h *Handler) RegisterRoutes(api *echo.Group, uploadMW ...echo.MiddlewareFunc) {
	api.GET("/tests/:userId", h.ListByUser)
	api.GET("/tests/:userId/series", h.Series)
	api.GET("/test/:id", h.Get)
	api.GET("/test/:id/file", h.File)
	api.GET("/latest-test", h.Latest)
	api.POST("/test/upload", h.Upload, uploadMW...)
}

func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByUser(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	pg.SetHeaders(c, total)
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Series(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	var names []string
	for _, m := range strings.Split(c.QueryParam("metrics"), ",") {
		if m = strings.TrimSpace(m); m != "" {
			names = append(names, m)
		}
	}
	series, err := h.svc.Series(c.Request().Context(), userID, names)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, series)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid test ID")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return testError(err, "Test not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) File(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid test ID")
	}
	u, err := h.svc.SignedFileURL(c.Request().Context(), id)
	if err != nil {
		return testError(err, "Test not found")
	}
	return c.JSON(http.StatusOK, u)
}

// Latest serves ?userId= when given, otherwise the caller's own latest test.
func (h *Handler) Latest(c echo.Context) error {
	ctx := c.Request().Context()
	var userID uuid.UUID
	if raw := c.QueryParam("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
		}
		userID = id
	} else {
		id, err := h.users.UserIDForSubject(ctx, auth.SubjectFromContext(ctx))
		if err != nil {
			return testError(err, "No tests found")
		}
		userID = id
	}

	t, err := h.svc.Latest(ctx, userID)
	if err != nil {
		return testError(err, "No tests found")
	}
	return c.JSON(http.StatusOK, t)
}

// Upload accepts multipart/form-data with fields file, userId,
// datePerformed and results (a JSON object of numbers).
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		// The body limit surfaces as a read error while the form is parsed.
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	userID, err := uuid.Parse(c.FormValue("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	date, err := ParseDate(c.FormValue("datePerformed"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid datePerformed")
	}
	results, err := ParseResults(c.FormValue("results"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	defer f.Close()
	// One byte past the limit is enough for the service to reject it.
	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return err
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	t, err := h.svc.Upload(c.Request().Context(), UploadInput{
		UserID:        userID,
		DatePerformed: date,
		FileName:      fh.Filename,
		ContentType:   contentType,
		Content:       content,
		Results:       results,
	})
	if err != nil {
		return testError(err, "User not found")
	}
	return c.JSON(http.StatusOK, t)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// ParseResults decodes the results form field. Every value must be a number.
func ParseResults(s string) (map[string]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("results are required")
	}
	var raw map[string]*float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil || raw == nil {
		return nil, errors.New("results must be a JSON object of numeric values")
	}
	results := make(map[string]float64, len(raw))
	for name, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("result %q must be a number", name)
		}
		results[name] = *v
	}
	return results, nil
}

func testError(err error, notFound string) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, apperr.Detail(err))
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, ErrUploadFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "upload failed").SetInternal(err)
	default:
		return err
	}
}
