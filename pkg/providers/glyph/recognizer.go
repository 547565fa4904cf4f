// Package glyph implements a deterministic recognizer for camera-less
// runs: it matches the interior of a frame against reference renderings
// of each letter glyph. It only understands frames produced by the
// display composer, which is exactly what the in-memory optical bench
// feeds it.
package glyph

import (
	"context"
	"image"

	"github.com/satriadamar/lensa/pkg/alphabet"
	"github.com/satriadamar/lensa/pkg/border"
	"github.com/satriadamar/lensa/pkg/display"
	"github.com/satriadamar/lensa/pkg/vision"
)

// stride subsamples pixels during comparison; composed glyphs are far
// larger than the grid, so this only trades precision for speed.
const stride = 2

type Recognizer struct {
	cfg  display.Config
	refs map[string][]bool
	grid image.Rectangle
}

// NewRecognizer precomputes one reference mask per letter using the same
// composer configuration the peer display renders with.
func NewRecognizer(cfg display.Config) *Recognizer {
	composer := display.NewComposer(cfg, nil)
	blank := composer.Blank(border.SignalGreen)
	bounds := blank.Bounds()

	// Inset past the border so its color never leaks into matching.
	inset := bounds.Dx() / 8
	if h := bounds.Dy() / 8; h > inset {
		inset = h
	}
	grid := image.Rect(bounds.Min.X+inset, bounds.Min.Y+inset, bounds.Max.X-inset, bounds.Max.Y-inset)

	r := &Recognizer{cfg: cfg, refs: make(map[string][]bool), grid: grid}
	for _, ltr := range alphabet.Letters {
		letter := string(ltr)
		r.refs[letter] = litMask(composer.Letter(letter, border.SignalGreen), grid)
	}
	return r
}

func (r *Recognizer) Name() string { return "glyph_recognizer" }

// Classify compares the frame interior against every letter reference and
// reports the best match as a detection whose confidence is the overlap
// ratio. A blank interior matches nothing and yields no detections.
func (r *Recognizer) Classify(ctx context.Context, frame image.Image) ([]vision.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Bounds() != image.Rect(0, 0, r.cfg.Width, r.cfg.Height) {
		return nil, nil
	}

	mask := litMask(frame, r.grid)
	bestLabel := ""
	bestConf := 0.0
	for letter, ref := range r.refs {
		if conf := jaccard(mask, ref); conf > bestConf {
			bestLabel, bestConf = letter, conf
		}
	}
	if bestLabel == "" || bestConf == 0 {
		return nil, nil
	}
	return []vision.Detection{{
		Label:      bestLabel,
		Confidence: bestConf,
		Region:     r.grid,
	}}, nil
}

func (r *Recognizer) Close() error { return nil }

// litMask samples the grid and marks pixels brighter than mid-gray.
func litMask(img image.Image, grid image.Rectangle) []bool {
	cols := (grid.Dx() + stride - 1) / stride
	rows := (grid.Dy() + stride - 1) / stride
	mask := make([]bool, cols*rows)
	i := 0
	for y := grid.Min.Y; y < grid.Max.Y; y += stride {
		for x := grid.Min.X; x < grid.Max.X; x += stride {
			rr, gg, bb, _ := img.At(x, y).RGBA()
			lum := (rr>>8 + gg>>8 + bb>>8) / 3
			mask[i] = lum > 128
			i++
		}
	}
	return mask
}

// jaccard is intersection over union of the lit pixels. Identical frames
// score 1, a blank frame scores 0 against every reference.
func jaccard(a, b []bool) float64 {
	if len(a) != len(b) {
		return 0
	}
	inter, union := 0, 0
	for i := range a {
		switch {
		case a[i] && b[i]:
			inter++
			union++
		case a[i] || b[i]:
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
