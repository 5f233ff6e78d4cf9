package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/advait5300/jivana-health-platform/internal/domain/bloodtest"
	"github.com/advait5300/jivana-health-platform/internal/platform/apperr"
	"github.com/advait5300/jivana-health-platform/internal/platform/metrics"
	"github.com/advait5300/jivana-health-platform/internal/platform/token"
	"github.com/advait5300/jivana-health-platform/internal/platform/validate"
)

// ErrNotFound covers unknown tokens and deactivated grants alike.
var ErrNotFound = fmt.Errorf("shared test: %w", apperr.ErrNotFound)

// TestReader loads the blood test behind a grant.
type TestReader interface {
	Get(ctx context.Context, id uuid.UUID) (*bloodtest.BloodTest, error)
}

type Service struct {
	repo     Repository
	tests    TestReader
	logger   zerolog.Logger
	newToken func() (string, error)
}

func NewService(repo Repository, tests TestReader, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tests: tests, logger: logger, newToken: token.New}
}

// Share grants email access to a blood test through a fresh token.
func (s *Service) Share(ctx context.Context, bloodTestID, sharedByID uuid.UUID, email string) (*SharedTest, error) {
	email = strings.TrimSpace(email)
	if !validate.Email(email) {
		return nil, apperr.Invalid("sharedWithEmail must be a valid email address")
	}
	if bloodTestID == uuid.Nil || sharedByID == uuid.Nil {
		return nil, apperr.Invalid("bloodTestId and sharedById are required")
	}
	if _, err := s.tests.Get(ctx, bloodTestID); err != nil {
		return nil, err
	}

	tok, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	grant := &SharedTest{
		BloodTestID:     bloodTestID,
		SharedByID:      sharedByID,
		SharedWithEmail: email,
		AccessToken:     tok,
		Active:          true,
	}
	if err := s.repo.Create(ctx, grant); err != nil {
		return nil, err
	}

	metrics.SharesTotal.WithLabelValues("share").Inc()
	s.logger.Info().
		Str("shared_test_id", grant.ID.String()).
		Str("blood_test_id", bloodTestID.String()).
		Msg("blood test shared")
	return grant, nil
}

// Resolve returns the blood test behind an active grant.
func (s *Service) Resolve(ctx context.Context, tok string) (*bloodtest.BloodTest, error) {
	grant, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.SharesTotal.WithLabelValues("resolve_miss").Inc()
		}
		return nil, err
	}
	if !grant.Active {
		metrics.SharesTotal.WithLabelValues("resolve_miss").Inc()
		return nil, ErrNotFound
	}

	t, err := s.tests.Get(ctx, grant.BloodTestID)
	if err != nil {
		return nil, err
	}
	metrics.SharesTotal.WithLabelValues("resolve").Inc()
	return t, nil
}

// Deactivate revokes a grant. Revoking an inactive grant is a no-op.
func (s *Service) Deactivate(ctx context.Context, tok string) error {
	grant, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		return err
	}
	if !grant.Active {
		return nil
	}
	if err := s.repo.SetActive(ctx, tok, false); err != nil {
		return err
	}
	metrics.SharesTotal.WithLabelValues("deactivate").Inc()
	s.logger.Info().Str("shared_test_id", grant.ID.String()).Msg("share deactivated")
	return nil
}

// ListByTest returns every grant issued for a blood test.
func (s *Service) ListByTest(ctx context.Context, bloodTestID uuid.UUID) ([]*SharedTest, error) {
	if _, err := s.tests.Get(ctx, bloodTestID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByBloodTest(ctx, bloodTestID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*SharedTest{}
	}
	return items, nil
}
