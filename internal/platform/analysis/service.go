package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"

	"github.com/advait5300/jivana-health-platform/internal/platform/metrics"
)

// Source labels where an Analysis came from.
type Source string

const (
	SourceModel       Source = "model"
	SourceCache       Source = "cache"
	SourceDev         Source = "dev_placeholder"
	SourceUnavailable Source = "unavailable_placeholder"
)

// Service is the Analyzer used by the upload pipeline. It owns the whole
// fallback policy so callers never see an analysis error.
type Service struct {
	completer  Completer
	cache      Cache
	production bool
	logger     zerolog.Logger
}

type Option func(*Service)

// WithCache stores successful model answers keyed by the result set.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithProduction disables the development placeholder.
func WithProduction(production bool) Option {
	return func(s *Service) { s.production = production }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds the analyzer. completer may be nil when no model
// credentials are configured.
func NewService(completer Completer, opts ...Option) *Service {
	s := &Service{completer: completer, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Analyze(ctx context.Context, results map[string]float64) Analysis {
	a, src := s.analyze(ctx, results)
	metrics.AnalysesTotal.WithLabelValues(string(src)).Inc()
	return a
}

func (s *Service) analyze(ctx context.Context, results map[string]float64) (Analysis, Source) {
	if s.completer == nil {
		if s.production {
			s.logger.Error().Msg("analysis requested in production without a model client")
			return UnavailablePlaceholder(), SourceUnavailable
		}
		return DevPlaceholder(), SourceDev
	}

	prompt, err := UserPrompt(results)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode analysis prompt")
		return UnavailablePlaceholder(), SourceUnavailable
	}

	key := cacheKey(prompt)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("analysis cache lookup failed")
		} else if ok {
			return cached, SourceCache
		}
	}

	raw, err := s.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("analysis request failed")
		return UnavailablePlaceholder(), SourceUnavailable
	}

	a, err := Parse(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("analysis response rejected")
		return UnavailablePlaceholder(), SourceUnavailable
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, a); err != nil {
			s.logger.Warn().Err(err).Msg("analysis cache store failed")
		}
	}
	return a, SourceModel
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
