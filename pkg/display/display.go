// Package display composes the local output surface: letter imagery or
// word text framed by the protocol border color. The renderer behind it
// owns no protocol logic; it just paints what it is given.
package display

import (
	"image"
	"log/slog"

	"github.com/satriadamar/lensa/pkg/border"
	"github.com/satriadamar/lensa/pkg/errorsx"
)

// Renderer is the output device: a window, a virtual screen, or a test
// double that records frames.
type Renderer interface {
	Name() string
	Render(frame image.Image) error
	Close() error
}

// Display pairs a composer with a renderer.
type Display struct {
	composer *Composer
	renderer Renderer
	log      *slog.Logger
}

func New(cfg Config, images map[string]image.Image, renderer Renderer, log *slog.Logger) *Display {
	if log == nil {
		log = slog.Default()
	}
	return &Display{
		composer: NewComposer(cfg, images),
		renderer: renderer,
		log:      log,
	}
}

// ShowLetter paints one letter with the signal border.
func (d *Display) ShowLetter(letter string, sig border.Signal) error {
	return d.render(d.composer.Letter(letter, sig))
}

// ShowBlank paints only the signal border.
func (d *Display) ShowBlank(sig border.Signal) error {
	return d.render(d.composer.Blank(sig))
}

// ShowWord paints the whole word as text with the signal border.
func (d *Display) ShowWord(word string, sig border.Signal) error {
	return d.render(d.composer.Word(word, sig))
}

// Composer exposes the underlying composer, e.g. for recognizers that
// need reference renderings.
func (d *Display) Composer() *Composer { return d.composer }

// Close releases the renderer.
func (d *Display) Close() error {
	if d.renderer == nil {
		return nil
	}
	return d.renderer.Close()
}

func (d *Display) render(frame *image.RGBA) error {
	if d.renderer == nil {
		return nil
	}
	if err := d.renderer.Render(frame); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonDisplayRender)
	}
	return nil
}
