package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/dukecorse1972/LSE-traductorv1/internal/feature"
)

// ONNX runs an exported sequence model through the OpenCV DNN module.
// The model takes a [1, seqLen, 126] float32 tensor and returns [1, classes].
type ONNX struct {
	mu      sync.Mutex
	net     gocv.Net
	path    string
	seqLen  int
	classes int
	closed  bool
	log     *zap.Logger
}

// LoadONNX reads the model at path. The returned classifier has already run
// a warm-up inference.
func LoadONNX(path string, seqLen, classes int, log *zap.Logger) (*ONNX, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: failed to read model %s", ErrUnavailable, path)
	}

	c := &ONNX{
		net:     net,
		path:    path,
		seqLen:  seqLen,
		classes: classes,
		log:     log.Named("onnx"),
	}

	if err := Warmup(context.Background(), c, seqLen, classes); err != nil {
		c.Close()
		return nil, err
	}

	c.log.Info("model loaded",
		zap.String("path", path),
		zap.Int("sequence_length", seqLen),
		zap.Int("classes", classes))

	return c, nil
}

// Predict implements Classifier.
func (c *ONNX) Predict(ctx context.Context, seq []feature.Frame) (Probabilities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(seq) != c.seqLen {
		return nil, fmt.Errorf("sequence has %d frames, model expects %d", len(seq), c.seqLen)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrUnavailable
	}

	blob := gocv.NewMatWithSizes([]int{1, c.seqLen, feature.FrameSize}, gocv.MatTypeCV32F)
	defer blob.Close()

	for t, frame := range seq {
		for j, v := range frame {
			blob.SetFloatAt3(0, t, j, v)
		}
	}

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	if out.Empty() {
		return nil, fmt.Errorf("model %s produced no output", c.path)
	}
	if n := out.Total(); n != c.classes {
		return nil, fmt.Errorf("model %s produced %d scores, expected %d", c.path, n, c.classes)
	}

	probs := make(Probabilities, c.classes)
	for i := range probs {
		probs[i] = float64(out.GetFloatAt(0, i))
	}
	return probs, nil
}

// Close releases the network. Further Predict calls fail with ErrUnavailable.
func (c *ONNX) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}
