package session

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/satriadamar/lensa/pkg/camera"
	"github.com/satriadamar/lensa/pkg/display"
	"github.com/satriadamar/lensa/pkg/providers/glyph"
	"github.com/satriadamar/lensa/pkg/vision"
)

type CameraFactory func(cfg Config, log *slog.Logger) (camera.Camera, error)
type RecognizerFactory func(cfg Config, log *slog.Logger) (vision.Recognizer, error)
type RendererFactory func(cfg Config, log *slog.Logger) (display.Renderer, error)

// ProviderRegistry maps provider names from config to constructors.
// Deployments register real camera and screen drivers; the builtins
// cover camera-less and headless setups.
type ProviderRegistry struct {
	cameras     map[string]CameraFactory
	recognizers map[string]RecognizerFactory
	renderers   map[string]RendererFactory
}

func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{
		cameras:     make(map[string]CameraFactory),
		recognizers: make(map[string]RecognizerFactory),
		renderers:   make(map[string]RendererFactory),
	}
	r.RegisterRecognizer("glyph", func(cfg Config, log *slog.Logger) (vision.Recognizer, error) {
		return glyph.NewRecognizer(display.Config{
			Width:       cfg.Display.Width,
			Height:      cfg.Display.Height,
			BorderWidth: cfg.Display.BorderWidth,
		}), nil
	})
	r.RegisterRenderer("null", func(cfg Config, log *slog.Logger) (display.Renderer, error) {
		return nullRenderer{}, nil
	})
	return r
}

func (r *ProviderRegistry) RegisterCamera(name string, factory CameraFactory) {
	r.cameras[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterRecognizer(name string, factory RecognizerFactory) {
	r.recognizers[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterRenderer(name string, factory RendererFactory) {
	r.renderers[normalizeName(name)] = factory
}

func (r *ProviderRegistry) BuildCamera(cfg Config, log *slog.Logger) (camera.Camera, error) {
	fn := r.cameras[normalizeName(cfg.Camera.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("camera provider not registered: %s", cfg.Camera.Provider)
	}
	return fn(cfg, log)
}

func (r *ProviderRegistry) BuildRecognizer(cfg Config, log *slog.Logger) (vision.Recognizer, error) {
	fn := r.recognizers[normalizeName(cfg.Recognizer.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("recognizer provider not registered: %s", cfg.Recognizer.Provider)
	}
	return fn(cfg, log)
}

func (r *ProviderRegistry) BuildRenderer(cfg Config, log *slog.Logger) (display.Renderer, error) {
	fn := r.renderers[normalizeName(cfg.Renderer.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("renderer provider not registered: %s", cfg.Renderer.Provider)
	}
	return fn(cfg, log)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// nullRenderer discards frames. Useful for headless smoke runs where
// only the logs and metrics matter.
type nullRenderer struct{}

func (nullRenderer) Name() string             { return "null_renderer" }
func (nullRenderer) Render(image.Image) error { return nil }
func (nullRenderer) Close() error             { return nil }
