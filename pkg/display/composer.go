package display

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/satriadamar/lensa/pkg/border"
)

// Config sizes the rendered surface. BorderWidth must be generous: the
// border is the signaling channel and has to survive a loosely framed
// camera.
type Config struct {
	Width       int
	Height      int
	BorderWidth int
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.BorderWidth <= 0 {
		c.BorderWidth = 40
	}
	return c
}

// SignalColor maps a protocol signal to the reference border color.
func SignalColor(sig border.Signal) color.RGBA {
	switch sig {
	case border.SignalGreen:
		return color.RGBA{G: 255, A: 255}
	case border.SignalRed:
		return color.RGBA{R: 255, A: 255}
	case border.SignalCyan:
		return color.RGBA{G: 255, B: 255, A: 255}
	default:
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
}

// Composer builds display frames: a full-surface border in the signal
// color around a black interior carrying letter imagery or word text.
// Composition is deterministic, which the glyph-matching recognizer
// relies on.
type Composer struct {
	cfg    Config
	images map[string]image.Image
}

// NewComposer creates a composer. images maps letters to their sign
// imagery and may be nil; letters without imagery render as large glyphs.
func NewComposer(cfg Config, images map[string]image.Image) *Composer {
	return &Composer{cfg: cfg.withDefaults(), images: images}
}

// Blank renders only the border and a black interior.
func (c *Composer) Blank(sig border.Signal) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, c.cfg.Width, c.cfg.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(SignalColor(sig)), image.Point{}, draw.Src)
	bw := c.cfg.BorderWidth
	inner := image.Rect(bw, bw, c.cfg.Width-bw, c.cfg.Height-bw)
	draw.Draw(canvas, inner, image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)
	return canvas
}

// Letter renders one letter inside the border: its sign image when the
// library has one, otherwise a large glyph of the letter itself.
func (c *Composer) Letter(letter string, sig border.Signal) *image.RGBA {
	canvas := c.Blank(sig)
	img, ok := c.images[letter]
	if !ok {
		c.drawWordGlyphs(canvas, letter)
		return canvas
	}

	bw := c.cfg.BorderWidth
	inner := image.Rect(bw, bw, c.cfg.Width-bw, c.cfg.Height-bw)
	src := img.Bounds()
	scale := minf(
		float64(inner.Dx())/float64(src.Dx()),
		float64(inner.Dy())/float64(src.Dy()),
	)
	w := int(float64(src.Dx()) * scale)
	h := int(float64(src.Dy()) * scale)
	x0 := inner.Min.X + (inner.Dx()-w)/2
	y0 := inner.Min.Y + (inner.Dy()-h)/2
	xdraw.ApproxBiLinear.Scale(canvas, image.Rect(x0, y0, x0+w, y0+h), img, src, draw.Src, nil)

	// Letter label in the top-left corner, as a human-readable check.
	drawText(canvas, letter, image.Pt(bw+10, bw+10), 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return canvas
}

// Word renders the word as large centered glyphs.
func (c *Composer) Word(word string, sig border.Signal) *image.RGBA {
	canvas := c.Blank(sig)
	c.drawWordGlyphs(canvas, word)
	return canvas
}

func (c *Composer) drawWordGlyphs(canvas *image.RGBA, word string) {
	if word == "" {
		return
	}
	bw := c.cfg.BorderWidth
	innerW := c.cfg.Width - 4*bw
	innerH := c.cfg.Height - 4*bw

	// basicfont glyphs are 7x13; scale them up to fill the interior.
	scale := minInt(innerW/(7*len(word)), innerH/13)
	if scale < 1 {
		scale = 1
	}
	w := 7 * len(word) * scale
	h := 13 * scale
	at := image.Pt((c.cfg.Width-w)/2, (c.cfg.Height-h)/2)
	drawText(canvas, word, at, scale, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

// drawText rasterizes text with the built-in face and scales it by an
// integer factor with nearest neighbor, keeping output deterministic.
func drawText(dst *image.RGBA, text string, at image.Point, scale int, col color.RGBA) {
	if text == "" || scale < 1 {
		return
	}
	face := basicfont.Face7x13
	w := 7 * len(text)
	h := 13
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(text)
	target := image.Rect(at.X, at.Y, at.X+w*scale, at.Y+h*scale)
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), draw.Over, nil)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
