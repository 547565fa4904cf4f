package border

import (
	"image"
	"log/slog"
)

// HSVRange is an inclusive range in OpenCV-style HSV space
// (hue 0..180, saturation and value 0..255).
type HSVRange struct {
	LowH, HighH uint8
	LowS, HighS uint8
	LowV, HighV uint8
}

func (r HSVRange) contains(h, s, v uint8) bool {
	return h >= r.LowH && h <= r.HighH &&
		s >= r.LowS && s <= r.HighS &&
		v >= r.LowV && v <= r.HighV
}

// SamplerConfig controls how the border region is sampled and classified.
// The HSV windows are deliberately configurable: the principled mapping
// under varying lighting is unresolved, so deployments tune these ranges
// per site instead of trusting fixed constants.
type SamplerConfig struct {
	// MarginRatio is the fraction of the shorter frame dimension treated
	// as border on each edge.
	MarginRatio float64
	// MinRatio is the minimum fraction of border pixels that must match a
	// reference color for it to count as detected.
	MinRatio float64

	Green   HSVRange
	RedLow  HSVRange // red hue wraps zero, so it needs two windows
	RedHigh HSVRange
	Cyan    HSVRange
}

// DefaultSamplerConfig returns the tuned ranges for a screen border
// observed by a webcam under indoor lighting.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MarginRatio: 0.15,
		MinRatio:    0.3,
		Green:       HSVRange{LowH: 35, HighH: 85, LowS: 100, HighS: 255, LowV: 100, HighV: 255},
		RedLow:      HSVRange{LowH: 0, HighH: 10, LowS: 100, HighS: 255, LowV: 100, HighV: 255},
		RedHigh:     HSVRange{LowH: 170, HighH: 180, LowS: 100, HighS: 255, LowV: 100, HighV: 255},
		Cyan:        HSVRange{LowH: 80, HighH: 100, LowS: 100, HighS: 255, LowV: 100, HighV: 255},
	}
}

// Sampler classifies the dominant border color of a frame.
type Sampler struct {
	cfg SamplerConfig
	log *slog.Logger
}

func NewSampler(cfg SamplerConfig, log *slog.Logger) *Sampler {
	if cfg.MarginRatio <= 0 || cfg.MarginRatio >= 0.5 {
		cfg.MarginRatio = 0.15
	}
	if cfg.MinRatio <= 0 || cfg.MinRatio > 1 {
		cfg.MinRatio = 0.3
	}
	zero := HSVRange{}
	def := DefaultSamplerConfig()
	if cfg.Green == zero {
		cfg.Green = def.Green
	}
	if cfg.RedLow == zero {
		cfg.RedLow = def.RedLow
	}
	if cfg.RedHigh == zero {
		cfg.RedHigh = def.RedHigh
	}
	if cfg.Cyan == zero {
		cfg.Cyan = def.Cyan
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sampler{cfg: cfg, log: log}
}

// Sample returns the dominant signal color of the frame's border region.
// A nil or empty frame yields SignalUnknown; sampling never fails, a bad
// frame is just "no information this cycle".
func (s *Sampler) Sample(frame image.Image) Signal {
	if frame == nil {
		return SignalUnknown
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return SignalUnknown
	}
	margin := int(float64(min(w, h)) * s.cfg.MarginRatio)
	if margin < 1 {
		margin = 1
	}

	var total, green, red, cyan int
	count := func(x, y int) {
		r, g, bl, _ := frame.At(x, y).RGBA()
		hh, ss, vv := rgbToHSV(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		total++
		switch {
		case s.cfg.Green.contains(hh, ss, vv):
			green++
		case s.cfg.RedLow.contains(hh, ss, vv) || s.cfg.RedHigh.contains(hh, ss, vv):
			red++
		case s.cfg.Cyan.contains(hh, ss, vv):
			cyan++
		}
	}

	// Four edge strips. Corners are visited twice, which matches the
	// reference sampling and only over-weights pixels that are border
	// either way.
	for y := b.Min.Y; y < b.Min.Y+margin; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			count(x, y)
		}
	}
	for y := b.Max.Y - margin; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			count(x, y)
		}
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Min.X+margin; x++ {
			count(x, y)
		}
		for x := b.Max.X - margin; x < b.Max.X; x++ {
			count(x, y)
		}
	}
	if total == 0 {
		return SignalUnknown
	}

	best := SignalGreen
	bestRatio := float64(green) / float64(total)
	if r := float64(red) / float64(total); r > bestRatio {
		best, bestRatio = SignalRed, r
	}
	if c := float64(cyan) / float64(total); c > bestRatio {
		best, bestRatio = SignalCyan, c
	}
	if bestRatio >= s.cfg.MinRatio {
		return best
	}
	if bestRatio >= s.cfg.MinRatio/2 {
		// Borderline sample: visible in debug logs so lighting problems
		// show up as near-misses instead of silent misclassification.
		s.log.Debug("borderline border sample",
			"signal", best.String(),
			"ratio", bestRatio,
			"min_ratio", s.cfg.MinRatio,
		)
	}
	return SignalUnknown
}

// rgbToHSV converts 8-bit RGB to OpenCV-scaled HSV (h 0..180, s/v 0..255).
func rgbToHSV(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	maxc := max(rf, max(gf, bf))
	minc := min(rf, min(gf, bf))
	v := maxc
	delta := maxc - minc

	var s float64
	if maxc > 0 {
		s = delta / maxc
	}

	var h float64
	if delta > 0 {
		switch maxc {
		case rf:
			h = 60 * ((gf - bf) / delta)
		case gf:
			h = 60 * ((bf-rf)/delta + 2)
		default:
			h = 60 * ((rf-gf)/delta + 4)
		}
		if h < 0 {
			h += 360
		}
	}
	return uint8(h / 2), uint8(s * 255), uint8(v * 255)
}
