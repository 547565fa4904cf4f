package border

import (
	"image"
	"image/color"
	"testing"
)

func uniform(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// borderOnly paints the border color on the outer region and black inside,
// the same shape a real peer display produces.
func borderOnly(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			if x < 8 || x >= 56 || y < 8 || y >= 40 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

func TestSampleClassifiesReferenceColors(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig(), nil)
	cases := []struct {
		name string
		img  image.Image
		want Signal
	}{
		{"green", borderOnly(color.RGBA{G: 255, A: 255}), SignalGreen},
		{"red", borderOnly(color.RGBA{R: 255, A: 255}), SignalRed},
		{"cyan", borderOnly(color.RGBA{G: 255, B: 255, A: 255}), SignalCyan},
		{"gray", uniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), SignalUnknown},
		{"black", uniform(color.RGBA{A: 255}), SignalUnknown},
	}
	for _, tc := range cases {
		if got := s.Sample(tc.img); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestSampleIsIdempotent(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig(), nil)
	img := borderOnly(color.RGBA{R: 255, A: 255})
	first := s.Sample(img)
	for i := 0; i < 10; i++ {
		if got := s.Sample(img); got != first {
			t.Fatalf("sample %d: got %s, want %s", i, got, first)
		}
	}
}

func TestSampleToleratesMalformedInput(t *testing.T) {
	s := NewSampler(DefaultSamplerConfig(), nil)
	if got := s.Sample(nil); got != SignalUnknown {
		t.Fatalf("nil frame: got %s, want unknown", got)
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if got := s.Sample(empty); got != SignalUnknown {
		t.Fatalf("empty frame: got %s, want unknown", got)
	}
}
