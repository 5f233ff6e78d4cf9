package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalid(t *testing.T) {
	err := Invalid("%s is required", "file")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if got := Detail(err); got != "file is required" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestDetail_OtherErrors(t *testing.T) {
	err := fmt.Errorf("get test: %w", ErrNotFound)
	if got := Detail(err); got != "get test: not found" {
		t.Errorf("unexpected detail %q", got)
	}
}
