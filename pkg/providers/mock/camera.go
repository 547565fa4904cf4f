// Package mock provides scripted camera, recognizer and renderer doubles
// for tests and camera-less demos.
package mock

import (
	"context"
	"errors"
	"image"
	"sync"
)

// ErrNoMoreFrames is returned once a non-looping scripted camera runs out.
var ErrNoMoreFrames = errors.New("mock camera: no more frames")

type CameraConfig struct {
	// Frames are returned in order, one per NextFrame call.
	Frames []image.Image
	// Loop restarts from the first frame after the last.
	Loop bool
	// HoldLast keeps returning the final frame instead of failing.
	HoldLast bool
}

type Camera struct {
	mu   sync.Mutex
	cfg  CameraConfig
	next int
}

func NewCamera(cfg CameraConfig) *Camera {
	return &Camera{cfg: cfg}
}

func (c *Camera) Name() string { return "mock_camera" }

func (c *Camera) NextFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cfg.Frames) == 0 {
		return nil, ErrNoMoreFrames
	}
	if c.next >= len(c.cfg.Frames) {
		switch {
		case c.cfg.Loop:
			c.next = 0
		case c.cfg.HoldLast:
			return c.cfg.Frames[len(c.cfg.Frames)-1], nil
		default:
			return nil, ErrNoMoreFrames
		}
	}
	frame := c.cfg.Frames[c.next]
	c.next++
	return frame, nil
}

func (c *Camera) Close() error { return nil }

// FuncCamera adapts a function to the camera contract, for frames that
// are produced on demand (e.g. an in-memory optical bench).
type FuncCamera struct {
	NameTag string
	Fn      func(ctx context.Context) (image.Image, error)
}

func (c *FuncCamera) Name() string {
	if c.NameTag == "" {
		return "func_camera"
	}
	return c.NameTag
}

func (c *FuncCamera) NextFrame(ctx context.Context) (image.Image, error) {
	return c.Fn(ctx)
}

func (c *FuncCamera) Close() error { return nil }
