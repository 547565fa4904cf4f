package mock

import (
	"image"
	"sync"
)

// Renderer records what the display asked it to paint.
type Renderer struct {
	mu     sync.Mutex
	last   image.Image
	count  int
	closed bool
}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Name() string { return "mock_renderer" }

func (r *Renderer) Render(frame image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = frame
	r.count++
	return nil
}

// Last returns the most recently rendered frame, or nil.
func (r *Renderer) Last() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Count returns how many frames were rendered.
func (r *Renderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Closed reports whether Close was called.
func (r *Renderer) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
