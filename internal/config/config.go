// Package config loads signspeak settings from a YAML file, SIGNSPEAK_*
// environment variables and command-line flags through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/ayusman/signspeak/internal/gesture"
)

// Name is used for the config file, the env prefix and the home directory.
const Name = "signspeak"

// Config is the full application configuration.
type Config struct {
	Addr       string            `mapstructure:"addr"`
	WebDir     string            `mapstructure:"web_dir"`
	Camera     CameraConfig      `mapstructure:"camera"`
	Detector   DetectorConfig    `mapstructure:"detector"`
	Classifier ClassifierConfig  `mapstructure:"classifier"`
	Lexicon    map[string]string `mapstructure:"lexicon"`
	Speech     SpeechConfig      `mapstructure:"speech"`
	Plugins    PluginsConfig     `mapstructure:"plugins"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Tray       bool              `mapstructure:"tray"`
	LogLevel   string            `mapstructure:"log_level"`
}

type CameraConfig struct {
	ID        int  `mapstructure:"id"`
	FPS       int  `mapstructure:"fps"`
	Autostart bool `mapstructure:"autostart"`
	// MotionThreshold is the percent of changed pixels that counts as
	// motion. Zero runs the detector on every frame.
	MotionThreshold float64 `mapstructure:"motion_threshold"`
}

type DetectorConfig struct {
	MaxHands              int     `mapstructure:"max_hands"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `mapstructure:"min_tracking_confidence"`
	Script                string  `mapstructure:"script"`
	Python                string  `mapstructure:"python"`
}

type ClassifierConfig struct {
	TouchRatio    float64 `mapstructure:"touch_ratio"`
	CurledRatio   float64 `mapstructure:"curled_ratio"`
	ExtendedRatio float64 `mapstructure:"extended_ratio"`
	ClosedRatio   float64 `mapstructure:"closed_ratio"`
	OpenFingers   int     `mapstructure:"open_fingers"`
}

type SpeechConfig struct {
	Lang       string  `mapstructure:"lang"`
	Rate       float64 `mapstructure:"rate"`
	Plugin     string  `mapstructure:"plugin"`
	Transcribe string  `mapstructure:"transcribe"` // empty disables speech-to-text
}

type PluginsConfig struct {
	Dir       string `mapstructure:"dir"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type HTTPConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HomeDir returns ~/.signspeak, or an empty string when there is no home.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+Name)
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	t := gesture.DefaultThresholds()

	v.SetDefault("addr", ":8080")
	v.SetDefault("web_dir", "")
	v.SetDefault("camera.id", 0)
	v.SetDefault("camera.fps", 15)
	v.SetDefault("camera.autostart", false)
	v.SetDefault("camera.motion_threshold", 0.0)
	v.SetDefault("detector.max_hands", 1)
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("detector.min_tracking_confidence", 0.5)
	v.SetDefault("detector.script", "")
	v.SetDefault("detector.python", "")
	v.SetDefault("classifier.touch_ratio", t.TouchRatio)
	v.SetDefault("classifier.curled_ratio", t.CurledRatio)
	v.SetDefault("classifier.extended_ratio", t.ExtendedRatio)
	v.SetDefault("classifier.closed_ratio", t.ClosedRatio)
	v.SetDefault("classifier.open_fingers", t.OpenFingers)
	v.SetDefault("speech.lang", "ar-SA")
	v.SetDefault("speech.rate", 0.9)
	v.SetDefault("speech.plugin", "speech")
	v.SetDefault("speech.transcribe", "speech")
	v.SetDefault("plugins.dir", filepath.Join(HomeDir(), "plugins"))
	v.SetDefault("plugins.timeout_ms", 10000)
	v.SetDefault("http.rate_limit", 600)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("tray", false)
	v.SetDefault("log_level", "info")
}

// New returns a viper instance that reads signspeak.yaml from the working
// directory or ~/.signspeak and SIGNSPEAK_* environment variables, with
// defaults applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(Name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home := HomeDir(); home != "" {
		v.AddConfigPath(home)
	}
	v.SetEnvPrefix(strings.ToUpper(Name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the config file if there is one, decodes and validates the
// result. A missing file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Debug("config loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("camera.motion_threshold must be between 0 and 100, got %v", c.Camera.MotionThreshold))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands must be at least 1, got %d", c.Detector.MaxHands))
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("classifier: %w", err))
	}
	if _, err := c.BuildLexicon(); err != nil {
		errs = append(errs, err)
	}
	if !(c.Speech.Rate > 0) {
		errs = append(errs, fmt.Errorf("speech.rate must be positive, got %v", c.Speech.Rate))
	}
	if c.Plugins.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout_ms must be positive, got %d", c.Plugins.TimeoutMs))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit must not be negative, got %d", c.HTTP.RateLimit))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Thresholds returns the classifier thresholds.
func (c *Config) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{
		TouchRatio:    c.Classifier.TouchRatio,
		CurledRatio:   c.Classifier.CurledRatio,
		ExtendedRatio: c.Classifier.ExtendedRatio,
		ClosedRatio:   c.Classifier.ClosedRatio,
		OpenFingers:   c.Classifier.OpenFingers,
	}
}

// BuildLexicon applies the configured words over the default lexicon.
func (c *Config) BuildLexicon() (*gesture.Lexicon, error) {
	if len(c.Lexicon) == 0 {
		return gesture.DefaultLexicon(), nil
	}

	words := gesture.DefaultLexicon().Words()
	for key, word := range c.Lexicon {
		label, err := gesture.ParseLabel(strings.ToLower(key))
		if err != nil {
			return nil, fmt.Errorf("lexicon: %w", err)
		}
		words[label] = word
	}
	lex, err := gesture.NewLexicon(words)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	return lex, nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
