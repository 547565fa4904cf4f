package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/satriadamar/lensa/pkg/turn"
)

// ProviderConfig selects a pluggable implementation by name plus its
// free-form settings block.
type ProviderConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type AccumulatorConfig struct {
	RequiredFrames int `mapstructure:"required_frames"`
	MaxGap         int `mapstructure:"max_gap"`
	MaxHistory     int `mapstructure:"max_history"`
}

type ProtocolConfig struct {
	DoneDwellMS       int `mapstructure:"done_dwell_ms"`
	GraceMS           int `mapstructure:"grace_ms"`
	LivenessTimeoutMS int `mapstructure:"liveness_timeout_ms"`
}

type DisplayConfig struct {
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	BorderWidth int    `mapstructure:"border_width"`
	ImagesDir   string `mapstructure:"images_dir"`
}

type BorderConfig struct {
	MarginRatio float64 `mapstructure:"margin_ratio"`
	MinRatio    float64 `mapstructure:"min_ratio"`
}

type ConversationConfig struct {
	// Script, when non-empty, fixes the outgoing words in order and ends
	// the session once exhausted. Empty means respond mode.
	Script []string `mapstructure:"script"`
}

type ObservabilityConfig struct {
	ArtifactsDir  string `mapstructure:"artifacts_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type MonitorConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Path         string `mapstructure:"path"`
	ClientBuffer int    `mapstructure:"client_buffer"`
}

type Config struct {
	Role           string  `mapstructure:"role"`
	PollIntervalMS int     `mapstructure:"poll_interval_ms"`
	LetterDwellMS  int     `mapstructure:"letter_dwell_ms"`
	LetterPauseMS  int     `mapstructure:"letter_pause_ms"`
	WordFlashMS    int     `mapstructure:"word_flash_ms"`
	MinConfidence  float64 `mapstructure:"min_confidence"`

	Camera     ProviderConfig `mapstructure:"camera"`
	Recognizer ProviderConfig `mapstructure:"recognizer"`
	Renderer   ProviderConfig `mapstructure:"renderer"`

	Accumulator   AccumulatorConfig   `mapstructure:"accumulator"`
	Protocol      ProtocolConfig      `mapstructure:"protocol"`
	Display       DisplayConfig       `mapstructure:"display"`
	Border        BorderConfig        `mapstructure:"border"`
	Conversation  ConversationConfig  `mapstructure:"conversation"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("poll_interval_ms", 100)
	v.SetDefault("letter_dwell_ms", 2000)
	v.SetDefault("letter_pause_ms", 500)
	v.SetDefault("word_flash_ms", 1500)
	v.SetDefault("min_confidence", 0.40)
	v.SetDefault("camera.provider", "")
	v.SetDefault("recognizer.provider", "glyph")
	v.SetDefault("renderer.provider", "null")
	v.SetDefault("accumulator.required_frames", 8)
	v.SetDefault("accumulator.max_gap", 3)
	v.SetDefault("accumulator.max_history", 10)
	v.SetDefault("protocol.done_dwell_ms", 2000)
	v.SetDefault("protocol.grace_ms", 500)
	v.SetDefault("protocol.liveness_timeout_ms", 30000)
	v.SetDefault("display.width", 800)
	v.SetDefault("display.height", 600)
	v.SetDefault("display.border_width", 40)
	v.SetDefault("border.margin_ratio", 0.15)
	v.SetDefault("border.min_ratio", 0.3)
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.addr", ":9190")
	v.SetDefault("monitor.path", "/events")
	v.SetDefault("monitor.client_buffer", 64)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the loop cannot start from. An unknown
// role is fatal here, before any resource is acquired.
func (c *Config) Validate() error {
	if _, err := turn.ParseRole(c.Role); err != nil {
		return err
	}
	if strings.TrimSpace(c.Camera.Provider) == "" {
		return fmt.Errorf("camera.provider is required")
	}
	if strings.TrimSpace(c.Recognizer.Provider) == "" {
		return fmt.Errorf("recognizer.provider is required")
	}
	if strings.TrimSpace(c.Renderer.Provider) == "" {
		return fmt.Errorf("renderer.provider is required")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1]")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	cfg.Display.ImagesDir = os.ExpandEnv(cfg.Display.ImagesDir)
	cfg.Observability.ArtifactsDir = os.ExpandEnv(cfg.Observability.ArtifactsDir)
	cfg.Monitor.Addr = os.ExpandEnv(cfg.Monitor.Addr)
	cfg.Camera.Settings = expandSettings(cfg.Camera.Settings)
	cfg.Recognizer.Settings = expandSettings(cfg.Recognizer.Settings)
	cfg.Renderer.Settings = expandSettings(cfg.Renderer.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		return expandSettings(val)
	default:
		return v
	}
}
