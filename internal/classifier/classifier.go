// Package classifier defines the sequence classifier boundary and its
// backends.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dukecorse1972/LSE-traductorv1/internal/feature"
)

// ErrUnavailable is returned when no model is loaded.
var ErrUnavailable = errors.New("classifier unavailable")

// Probabilities holds one score per gesture channel.
type Probabilities []float64

// ArgMax returns the index and value of the first maximum. It returns -1 for
// an empty vector.
func (p Probabilities) ArgMax() (int, float64) {
	if len(p) == 0 {
		return -1, 0
	}
	i := floats.MaxIdx(p)
	return i, p[i]
}

// Validate checks that p has the expected number of finite entries.
func (p Probabilities) Validate(classes int) error {
	if len(p) != classes {
		return fmt.Errorf("classifier returned %d scores, expected %d", len(p), classes)
	}
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("score %d is not finite", i)
		}
	}
	return nil
}

// Classifier maps a sequence of frames, oldest first, to per-gesture scores.
type Classifier interface {
	Predict(ctx context.Context, seq []feature.Frame) (Probabilities, error)
	Close() error
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, seq []feature.Frame) (Probabilities, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, seq []feature.Frame) (Probabilities, error) {
	return f(ctx, seq)
}

// Close is a no-op.
func (f Func) Close() error {
	return nil
}

// Fixed returns a classifier that always reports probs.
func Fixed(probs ...float64) Classifier {
	return Func(func(context.Context, []feature.Frame) (Probabilities, error) {
		out := make(Probabilities, len(probs))
		copy(out, probs)
		return out, nil
	})
}

// Unavailable returns a classifier that always fails with ErrUnavailable.
// It stands in when the model could not be loaded so the pipeline keeps
// running without classifications.
func Unavailable() Classifier {
	return Func(func(context.Context, []feature.Frame) (Probabilities, error) {
		return nil, ErrUnavailable
	})
}

// Warmup runs one all-zero sequence through c and checks the output size.
func Warmup(ctx context.Context, c Classifier, seqLen, classes int) error {
	seq := make([]feature.Frame, seqLen)
	probs, err := c.Predict(ctx, seq)
	if err != nil {
		return fmt.Errorf("warmup inference: %w", err)
	}
	if err := probs.Validate(classes); err != nil {
		return fmt.Errorf("warmup inference: %w", err)
	}
	return nil
}
