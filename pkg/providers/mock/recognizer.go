package mock

import (
	"context"
	"image"
	"sync"

	"github.com/satriadamar/lensa/pkg/vision"
)

type RecognizerConfig struct {
	// Detections are emitted per Classify call, in order. A nil entry
	// means "nothing detected this frame". After the script runs out the
	// recognizer keeps returning empty results.
	Detections [][]vision.Detection
	// Err, when set, is returned by every Classify call.
	Err error
}

type Recognizer struct {
	mu   sync.Mutex
	cfg  RecognizerConfig
	next int
}

func NewRecognizer(cfg RecognizerConfig) *Recognizer {
	return &Recognizer{cfg: cfg}
}

func (r *Recognizer) Name() string { return "mock_recognizer" }

func (r *Recognizer) Classify(ctx context.Context, frame image.Image) ([]vision.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.cfg.Err != nil {
		return nil, r.cfg.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.cfg.Detections) {
		return nil, nil
	}
	dets := r.cfg.Detections[r.next]
	r.next++
	return dets, nil
}

func (r *Recognizer) Close() error { return nil }

// StableDetections builds a script of n identical single-detection frames,
// a convenience for accumulator-style tests.
func StableDetections(label string, confidence float64, n int) [][]vision.Detection {
	out := make([][]vision.Detection, n)
	for i := range out {
		out[i] = []vision.Detection{{Label: label, Confidence: confidence}}
	}
	return out
}
