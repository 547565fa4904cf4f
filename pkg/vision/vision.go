// Package vision defines the frame classifier contract: an external,
// pretrained capability that maps a camera frame to letter detections.
package vision

import (
	"context"
	"image"
)

// Detection is one classifier hit on a single frame. Detections are
// ephemeral: they are consumed by the accumulator and never persisted.
type Detection struct {
	Label      string
	Confidence float64
	Region     image.Rectangle
}

// Recognizer classifies a frame into zero or more letter detections.
// Implementations must not block indefinitely and must return an empty
// slice (not an error) when nothing is detected.
type Recognizer interface {
	Name() string
	Classify(ctx context.Context, frame image.Image) ([]Detection, error)
	Close() error
}

// Best returns the highest-confidence detection at or above minConf,
// or nil when no detection qualifies this frame.
func Best(dets []Detection, minConf float64) *Detection {
	var best *Detection
	for i := range dets {
		d := &dets[i]
		if d.Confidence < minConf {
			continue
		}
		if best == nil || d.Confidence > best.Confidence {
			best = d
		}
	}
	return best
}
