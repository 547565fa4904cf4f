package session

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lensa.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
role: speaker_first
camera:
  provider: mock
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollIntervalMS != 100 {
		t.Fatalf("poll_interval_ms = %d, want 100", cfg.PollIntervalMS)
	}
	if cfg.Accumulator.RequiredFrames != 8 || cfg.Accumulator.MaxGap != 3 {
		t.Fatalf("accumulator defaults = %+v", cfg.Accumulator)
	}
	if cfg.Protocol.DoneDwellMS != 2000 {
		t.Fatalf("done_dwell_ms = %d, want 2000", cfg.Protocol.DoneDwellMS)
	}
	if cfg.Recognizer.Provider != "glyph" || cfg.Renderer.Provider != "null" {
		t.Fatalf("provider defaults = %q/%q", cfg.Recognizer.Provider, cfg.Renderer.Provider)
	}
	if cfg.MinConfidence != 0.40 {
		t.Fatalf("min_confidence = %v, want 0.40", cfg.MinConfidence)
	}
}

func TestLoadConfigRejectsUnknownRole(t *testing.T) {
	path := writeConfig(t, `
role: arbiter
camera:
  provider: mock
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown role to fail validation")
	}
}

func TestLoadConfigRequiresCameraProvider(t *testing.T) {
	path := writeConfig(t, `
role: listener_first
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected missing camera provider to fail validation")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("LENSA_IMAGES", "/opt/letters")
	path := writeConfig(t, `
role: listener_first
camera:
  provider: mock
  settings:
    device: ${LENSA_IMAGES}/dev
display:
  images_dir: ${LENSA_IMAGES}
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Display.ImagesDir != "/opt/letters" {
		t.Fatalf("images_dir = %q", cfg.Display.ImagesDir)
	}
	if got := cfg.Camera.Settings["device"]; got != "/opt/letters/dev" {
		t.Fatalf("camera settings device = %v", got)
	}
}
