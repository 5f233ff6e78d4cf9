package bloodtest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/advait5300/jivana-health-platform/internal/platform/analysis"
	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/metrics"
	"github.com/advait5300/jivana-health-platform/internal/platform/objectstore"
	"github.com/advait5300/jivana-health-platform/internal/platform/token"
)

// MaxUploadSize is the largest report file accepted.
const MaxUploadSize = 5 << 20

var (
	ErrNotFound = fmt.Errorf("blood test: %w", apperr.ErrNotFound)
	// ErrUploadFailed wraps object store failures during upload.
	ErrUploadFailed = fmt.Errorf("upload failed: %w", apperr.ErrUpstream)
)

type Service struct {
	repo     Repository
	store    objectstore.Store
	analyzer analysis.Analyzer
	logger   zerolog.Logger
	newToken func() (string, error)
	now      func() time.Time
}

func NewService(repo Repository, store objectstore.Store, analyzer analysis.Analyzer, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		analyzer: analyzer,
		logger:   logger,
		newToken: token.New,
		now:      time.Now,
	}
}

// Upload stores the report file, records the test, analyzes the results and
// attaches the analysis. The steps run once each, in order. A record failure
// after the file is stored leaves the file orphaned; an analysis failure
// never fails the upload.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*BloodTest, error) {
	if err := validateUpload(in); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	tok, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate file key: %w", err)
	}
	key := FileKey(in.UserID, tok, in.FileName)

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, key, in.Content, contentType); err != nil {
		metrics.UploadsTotal.WithLabelValues("store_failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	metrics.UploadBytes.Observe(float64(len(in.Content)))

	t := &BloodTest{
		UserID:        in.UserID,
		DatePerformed: in.DatePerformed.UTC(),
		FileKey:       key,
		Results:       in.Results,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		metrics.UploadsTotal.WithLabelValues("record_failed").Inc()
		s.logger.Warn().Err(err).Str("file_key", key).Msg("blood test record not created; stored file is orphaned")
		return nil, fmt.Errorf("create blood test: %w", err)
	}

	a := s.analyzer.Analyze(ctx, in.Results)

	updated, err := s.repo.UpdateAnalysis(ctx, t.ID, a)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("update_failed").Inc()
		s.logger.Warn().Err(err).Str("blood_test_id", t.ID.String()).Msg("blood test recorded without analysis")
		return nil, fmt.Errorf("attach analysis: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().
		Str("blood_test_id", updated.ID.String()).
		Str("user_id", updated.UserID.String()).
		Int("metrics", len(updated.Results)).
		Msg("blood test uploaded")
	return updated, nil
}

func validateUpload(in UploadInput) error {
	switch {
	case len(in.Content) == 0:
		return apperr.Invalid("No file uploaded")
	case len(in.Content) > MaxUploadSize:
		return apperr.Invalid("file exceeds maximum size of %d bytes", MaxUploadSize)
	case strings.TrimSpace(in.FileName) == "":
		return apperr.Invalid("file name is required")
	case in.UserID == uuid.Nil:
		return apperr.Invalid("userId is required")
	case in.DatePerformed.IsZero():
		return apperr.Invalid("datePerformed is required")
	case in.Results == nil:
		return apperr.Invalid("results are required")
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const maxNameLen = 100

// FileKey builds the storage key <userId>/<token>-<name>. The name is
// reduced to its base and to characters safe in a URL path.
func FileKey(userID uuid.UUID, tok, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxNameLen {
		name = name[len(name)-maxNameLen:]
	}
	if name == "" {
		name = "report"
	}
	return userID.String() + "/" + tok + "-" + name
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BloodTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*BloodTest, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*BloodTest{}
	}
	return items, total, nil
}

// Latest returns the user's most recent test by date performed. Asking
// twice without an upload in between gives the same test.
func (s *Service) Latest(ctx context.Context, userID uuid.UUID) (*BloodTest, error) {
	return s.repo.Latest(ctx, userID)
}

// Series builds chart series for the user's tests. With no metrics named,
// every metric seen in any test is charted.
func (s *Service) Series(ctx context.Context, userID uuid.UUID, metricNames []string) ([]Series, error) {
	tests, _, err := s.repo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(metricNames) == 0 {
		metricNames = MetricNames(tests)
	}
	return BuildSeries(tests, metricNames), nil
}

// SignedFileURL returns a time-limited link to a test's report file.
func (s *Service) SignedFileURL(ctx context.Context, id uuid.UUID) (*FileURL, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	issued := s.now()
	url, err := s.store.SignedURL(ctx, t.FileKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return nil, fmt.Errorf("report file: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("sign file url: %w", err)
	}
	return &FileURL{URL: url, ExpiresAt: issued.Add(objectstore.SignedURLExpiry).UTC()}, nil
}
