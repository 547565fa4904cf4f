// Package camera defines the frame acquisition contract. Acquisition is
// the single blocking suspension point of the session loop, so NextFrame
// takes a context and must honor cancellation.
package camera

import (
	"context"
	"image"
)

// Camera produces frames for one session. A failed read is fatal for the
// process; absence of anything interesting in a frame is not an error.
type Camera interface {
	Name() string
	NextFrame(ctx context.Context) (image.Image, error)
	Close() error
}
