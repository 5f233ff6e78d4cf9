// Package analysis turns a blood-test result set into a narrative Analysis
// using an external language model. Analyze never fails: when the model is
// not configured or misbehaves the caller gets a placeholder instead.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Analysis is the four-field interpretation attached to a blood test.
type Analysis struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"riskFactors"`
}

// SystemPrompt is sent with every completion request.
const SystemPrompt = "You are a medical expert analyzing blood test results. " +
	"Provide insights and recommendations based on the test values. " +
	"Return JSON in the format: { summary: string, insights: string[], recommendations: string[], riskFactors: string[] }"

var ErrMalformedResponse = errors.New("malformed analysis response")

// Completer sends one system+user prompt pair to a model that has been asked
// to answer with a JSON object, and returns the raw text of the answer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Analyzer produces an Analysis for a result set.
type Analyzer interface {
	Analyze(ctx context.Context, results map[string]float64) Analysis
}

// DevPlaceholder is returned in non-production deployments that have no
// model credentials.
func DevPlaceholder() Analysis {
	return Analysis{
		Summary: "Development mode: Mock analysis",
		Insights: []string{
			"Development: Normal hemoglobin levels",
			"Development: Glucose within range",
		},
		Recommendations: []string{
			"Development: Continue regular check-ups",
			"Development: Maintain healthy diet",
		},
		RiskFactors: []string{},
	}
}

// UnavailablePlaceholder is returned when the model call or its parsing fails.
func UnavailablePlaceholder() Analysis {
	return Analysis{
		Summary:         "Analysis unavailable at the moment",
		Insights:        []string{"Test results recorded successfully"},
		Recommendations: []string{"Please consult with your healthcare provider to interpret results"},
		RiskFactors:     []string{},
	}
}

// Parse decodes a model answer into an Analysis. All four fields must be
// present with the right JSON type; null counts as missing. Extra fields are
// ignored.
func Parse(raw string) (Analysis, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return Analysis{}, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}

	var (
		a   Analysis
		err error
	)
	if err = decodeField(fields, "summary", &a.Summary); err != nil {
		return Analysis{}, err
	}
	if a.Insights, err = decodeStrings(fields, "insights"); err != nil {
		return Analysis{}, err
	}
	if a.Recommendations, err = decodeStrings(fields, "recommendations"); err != nil {
		return Analysis{}, err
	}
	if a.RiskFactors, err = decodeStrings(fields, "riskFactors"); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

var jsonNull = []byte("null")

func decodeField(fields map[string]json.RawMessage, name string, dst interface{}) error {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return fmt.Errorf("%w: %s is missing", ErrMalformedResponse, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s has the wrong type", ErrMalformedResponse, name)
	}
	return nil
}

// decodeStrings decodes a string array field. A null element is a type
// error, not an empty string.
func decodeStrings(fields map[string]json.RawMessage, name string) ([]string, error) {
	var items []*string
	if err := decodeField(fields, name, &items); err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: %s[%d] is not a string", ErrMalformedResponse, name, i)
		}
		out[i] = *item
	}
	return out, nil
}

// UserPrompt encodes the result set as the whole user message. Map keys are
// emitted in sorted order so equal result sets produce equal prompts.
func UserPrompt(results map[string]float64) (string, error) {
	if results == nil {
		results = map[string]float64{}
	}
	b, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(b), nil
}
