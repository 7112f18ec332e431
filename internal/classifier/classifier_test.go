package classifier

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/dukecorse1972/LSE-traductorv1/internal/feature"
)

func TestProbabilities_ArgMax(t *testing.T) {
	tests := []struct {
		name      string
		probs     Probabilities
		wantIndex int
		wantValue float64
	}{
		{"single max", Probabilities{0.1, 0.1, 0.1, 0.7}, 3, 0.7},
		{"first of ties wins", Probabilities{0.2, 0.4, 0.4}, 1, 0.4},
		{"all equal", Probabilities{0.25, 0.25, 0.25, 0.25}, 0, 0.25},
		{"empty", nil, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, v := tt.probs.ArgMax()
			if i != tt.wantIndex || v != tt.wantValue {
				t.Errorf("ArgMax() = (%d, %f), want (%d, %f)", i, v, tt.wantIndex, tt.wantValue)
			}
		})
	}
}

func TestProbabilities_Validate(t *testing.T) {
	if err := (Probabilities{0.5, 0.5}).Validate(2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Probabilities{0.5, 0.5}).Validate(4); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := (Probabilities{0.5, math.NaN()}).Validate(2); err == nil {
		t.Error("expected error for NaN score")
	}
}

func TestFixed(t *testing.T) {
	c := Fixed(0.1, 0.9)

	first, err := c.Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	first[0] = 5

	second, _ := c.Predict(context.Background(), nil)
	if second[0] != 0.1 {
		t.Errorf("Fixed classifier leaked a shared slice: %v", second)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable().Predict(context.Background(), make([]feature.Frame, 60))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestWarmup(t *testing.T) {
	t.Run("passes zero sequence of the right length", func(t *testing.T) {
		var gotLen int
		c := Func(func(_ context.Context, seq []feature.Frame) (Probabilities, error) {
			gotLen = len(seq)
			for _, f := range seq {
				if !f.IsZero() {
					t.Error("warmup sequence should be all zero")
				}
			}
			return Probabilities{0.25, 0.25, 0.25, 0.25}, nil
		})

		if err := Warmup(context.Background(), c, 60, 4); err != nil {
			t.Fatalf("Warmup() error = %v", err)
		}
		if gotLen != 60 {
			t.Errorf("expected 60 frames, got %d", gotLen)
		}
	})

	t.Run("reports wrong class count", func(t *testing.T) {
		if err := Warmup(context.Background(), Fixed(1, 0), 60, 4); err == nil {
			t.Error("expected error for mismatched class count")
		}
	})

	t.Run("wraps predict errors", func(t *testing.T) {
		err := Warmup(context.Background(), Unavailable(), 60, 4)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected wrapped ErrUnavailable, got %v", err)
		}
	})
}

func TestLoadONNX_MissingModel(t *testing.T) {
	_, err := LoadONNX(filepath.Join(t.TempDir(), "missing.onnx"), 60, 4, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for missing model, got %v", err)
	}
}
