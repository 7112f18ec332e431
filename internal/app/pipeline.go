package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// runPipeline is the per-frame worker of a session. It always works on the
// newest camera frame; frames that arrive while it is busy are replaced in
// the mailbox rather than queued.
//
// Pipeline logic:
// 1. Take the newest frame
// 2. Run hand detection and feed the preview
// 3. Normalize, window and classify (recognizer.Session)
// 4. Hand completed classifications to the dispatcher
func (a *App) runPipeline(ctx context.Context, r *run) {
	var failures uint64

	for {
		frame, err := r.frames.Take(ctx)
		if err != nil {
			return
		}

		hands, err := a.config.Detector.Detect(frame.Mat)
		if a.config.Preview != nil {
			if perr := a.config.Preview.Publish(frame.Mat); perr != nil {
				a.log.Debug("preview encode failed", zap.Error(perr))
			}
		}
		frameTime := frame.Time
		frame.Close()

		if err != nil {
			failures++
			if failures == 1 || failures%100 == 0 {
				a.log.Warn("hand detection failed", zap.Error(err), zap.Uint64("failures", failures))
			}
			a.setDetectorErr(err)
			continue
		}
		if failures > 0 {
			failures = 0
			a.setDetectorErr(a.config.DetectorErr)
		}

		ev, ok := r.session.Process(ctx, recognizer.Observation{Hands: hands, Time: frameTime})
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		a.dispatcher.Publish(ev)
	}
}
