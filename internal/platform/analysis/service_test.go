package analysis

import (
	"context"
	"errors"
	"testing"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.answer, f.err
}

type mapCache struct {
	data   map[string]Analysis
	getErr error
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string]Analysis)} }

func (m *mapCache) Get(_ context.Context, key string) (Analysis, bool, error) {
	if m.getErr != nil {
		return Analysis{}, false, m.getErr
	}
	a, ok := m.data[key]
	return a, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, a Analysis) error {
	m.data[key] = a
	return nil
}

const goodAnswer = `{"summary":"All good","insights":["Glucose normal"],"recommendations":["Keep it up"],"riskFactors":["None noted"]}`

var sampleResults = map[string]float64{"hemoglobin": 14.5, "glucose": 95}

func TestService_ModelAnswer(t *testing.T) {
	c := &fakeCompleter{answer: goodAnswer}
	svc := NewService(c)

	a := svc.Analyze(context.Background(), sampleResults)
	if a.Summary != "All good" {
		t.Errorf("unexpected summary %q", a.Summary)
	}
	if c.system != SystemPrompt {
		t.Error("expected the fixed system prompt")
	}
	if c.user != `{"glucose":95,"hemoglobin":14.5}` {
		t.Errorf("unexpected user prompt %s", c.user)
	}
}

func TestService_NoCompleterDevelopment(t *testing.T) {
	a := NewService(nil).Analyze(context.Background(), sampleResults)
	if a.Summary != DevPlaceholder().Summary {
		t.Errorf("expected dev placeholder, got %q", a.Summary)
	}
}

func TestService_NoCompleterProduction(t *testing.T) {
	a := NewService(nil, WithProduction(true)).Analyze(context.Background(), sampleResults)
	if a.Summary != UnavailablePlaceholder().Summary {
		t.Errorf("expected unavailable placeholder in production, got %q", a.Summary)
	}
}

func TestService_CompleterErrorFallsBack(t *testing.T) {
	c := &fakeCompleter{err: errors.New("connection reset")}
	a := NewService(c).Analyze(context.Background(), sampleResults)
	if a.Summary != "Analysis unavailable at the moment" {
		t.Errorf("expected unavailable placeholder, got %q", a.Summary)
	}
	if c.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", c.calls)
	}
}

func TestService_MalformedAnswerFallsBack(t *testing.T) {
	c := &fakeCompleter{answer: `{"summary":"only a summary"}`}
	a := NewService(c).Analyze(context.Background(), sampleResults)
	if a.Summary != UnavailablePlaceholder().Summary {
		t.Errorf("expected unavailable placeholder, got %q", a.Summary)
	}
}

func TestService_CachesModelAnswers(t *testing.T) {
	c := &fakeCompleter{answer: goodAnswer}
	cache := newMapCache()
	svc := NewService(c, WithCache(cache))

	first := svc.Analyze(context.Background(), sampleResults)
	second := svc.Analyze(context.Background(), map[string]float64{"glucose": 95, "hemoglobin": 14.5})

	if c.calls != 1 {
		t.Errorf("expected one model call for identical results, got %d", c.calls)
	}
	if first.Summary != second.Summary {
		t.Errorf("expected cached answer, got %q vs %q", first.Summary, second.Summary)
	}
}

func TestService_DoesNotCachePlaceholders(t *testing.T) {
	c := &fakeCompleter{err: errors.New("timeout")}
	cache := newMapCache()
	NewService(c, WithCache(cache)).Analyze(context.Background(), sampleResults)
	if len(cache.data) != 0 {
		t.Errorf("placeholders must not be cached, got %d entries", len(cache.data))
	}
}

func TestService_CacheErrorIgnored(t *testing.T) {
	c := &fakeCompleter{answer: goodAnswer}
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	a := NewService(c, WithCache(cache)).Analyze(context.Background(), sampleResults)
	if a.Summary != "All good" {
		t.Errorf("expected model answer despite cache error, got %q", a.Summary)
	}
}
