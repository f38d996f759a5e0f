package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDimensionMismatch_IsInvalidInput(t *testing.T) {
	err := NewDimensionMismatch(1536, 512)

	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput match, got %v", err)
	}

	var dme *DimensionMismatchError
	if !errors.As(err, &dme) {
		t.Fatal("expected DimensionMismatchError")
	}
	if dme.Want != 1536 || dme.Got != 512 {
		t.Errorf("expected want=1536 got=512, have %d/%d", dme.Want, dme.Got)
	}
}

func TestDimensionMismatch_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("insert: %w", NewDimensionMismatch(1024, 768))

	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput through wrap, got %v", err)
	}
}

func TestModelNotFound_IsInvalidInput(t *testing.T) {
	err := fmt.Errorf("embed: %w", ErrModelNotFound)

	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound match, got %v", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput match, got %v", err)
	}
}

func TestBatchError_Unwrap(t *testing.T) {
	err := &BatchError{Batch: 2, Offset: 192, Err: ErrRateLimited}

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited through BatchError, got %v", err)
	}
	if !strings.Contains(err.Error(), "batch 2") {
		t.Errorf("expected batch index in message, got %q", err.Error())
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	err := &PipelineError{Stage: StageStore, Err: ErrNotConnected}

	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected through PipelineError, got %v", err)
	}

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatal("expected PipelineError")
	}
	if pe.Stage != StageStore {
		t.Errorf("expected store stage, got %q", pe.Stage)
	}
}

func TestFilter_Matches(t *testing.T) {
	meta := map[string]string{"lang": "en", "source": "wiki"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches", Filter{}, true},
		{"nil filter matches", nil, true},
		{"single pair", Filter{"lang": "en"}, true},
		{"all pairs", Filter{"lang": "en", "source": "wiki"}, true},
		{"wrong value", Filter{"lang": "de"}, false},
		{"missing key", Filter{"topic": "go"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(meta); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
