// Package config loads the YAML service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/logger"
	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// Config is the root of config.yaml.
type Config struct {
	Recognition Recognition          `yaml:"recognition"`
	Gestures    []gesture.Definition `yaml:"gestures"`
	Model       Model                `yaml:"model"`
	Camera      Camera               `yaml:"camera"`
	Detector    Detector             `yaml:"detector"`
	Store       Store                `yaml:"store"`
	Server      Server               `yaml:"server"`
	Audio       Audio                `yaml:"audio"`
	Log         Log                  `yaml:"log"`
}

type Recognition struct {
	SequenceLength        int     `yaml:"sequence_length"`
	Stride                int     `yaml:"stride"`
	WindowPolicy          string  `yaml:"window_policy"`
	MinConfidenceForSound float64 `yaml:"min_confidence_for_sound"`
}

type Model struct {
	Path string `yaml:"path"`
}

type Camera struct {
	DeviceID int  `yaml:"device_id"`
	FPS      int  `yaml:"fps"`
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Mirror   bool `yaml:"mirror"`
}

type Detector struct {
	MaxHands              int     `yaml:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence"`
	MinPresenceConfidence float64 `yaml:"min_presence_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	IdleTimeoutSec        int     `yaml:"idle_timeout_sec"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type Audio struct {
	Enabled   bool   `yaml:"enabled"`
	PluginDir string `yaml:"plugin_dir"`
	Plugin    string `yaml:"plugin"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type Log struct {
	Mode       string `yaml:"mode"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".lse-traductor")

	rec := recognizer.DefaultConfig()
	det := detector.DefaultConfig()

	return Config{
		Recognition: Recognition{
			SequenceLength:        rec.SequenceLength,
			Stride:                rec.Stride,
			WindowPolicy:          string(rec.Policy),
			MinConfidenceForSound: rec.MinConfidenceForSound,
		},
		Gestures: gesture.DefaultDefinitions(),
		Model: Model{
			Path: filepath.Join(dataDir, "models", "lse_model.onnx"),
		},
		Camera: Camera{
			DeviceID: 0,
			FPS:      30,
			Width:    640,
			Height:   480,
			Mirror:   true,
		},
		Detector: Detector{
			MaxHands:              det.MaxHands,
			MinConfidence:         det.MinConfidence,
			MinPresenceConfidence: det.MinPresenceConf,
			MinTrackingConfidence: det.MinTrackingConf,
			IdleTimeoutSec:        int(det.IdleTimeout / time.Second),
		},
		Store: Store{
			Path: filepath.Join(dataDir, "lse-traductor.db"),
		},
		Server: Server{
			Addr:      ":8080",
			StaticDir: "web/static",
		},
		Audio: Audio{
			Enabled:   true,
			PluginDir: "plugins",
			Plugin:    "audio-cue",
			TimeoutMS: 5000,
		},
		Log: Log{
			Mode:       string(logger.ModeProduction),
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads path over the defaults. Fields missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// A gestures list in the file replaces the default table as a whole.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if _, err := c.RecognizerConfig(); err != nil {
		return err
	}
	if _, err := gesture.NewTable(c.Gestures); err != nil {
		return fmt.Errorf("gestures: %w", err)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be at least 1, got %d", c.Detector.MaxHands)
	}
	for name, v := range map[string]float64{
		"detector.min_confidence":          c.Detector.MinConfidence,
		"detector.min_presence_confidence": c.Detector.MinPresenceConfidence,
		"detector.min_tracking_confidence": c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %f", name, v)
		}
	}
	if c.Camera.FPS < 1 {
		return fmt.Errorf("camera.fps must be at least 1, got %d", c.Camera.FPS)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Audio.TimeoutMS < 0 {
		return fmt.Errorf("audio.timeout_ms must not be negative, got %d", c.Audio.TimeoutMS)
	}
	switch logger.Mode(c.Log.Mode) {
	case logger.ModeProduction, logger.ModeDevelopment, "":
	default:
		return fmt.Errorf("unknown log mode %q", c.Log.Mode)
	}
	return nil
}

// RecognizerConfig converts the recognition section.
func (c Config) RecognizerConfig() (recognizer.Config, error) {
	policy, err := recognizer.ParseWindowPolicy(c.Recognition.WindowPolicy)
	if err != nil {
		return recognizer.Config{}, fmt.Errorf("recognition: %w", err)
	}
	rc := recognizer.Config{
		SequenceLength:        c.Recognition.SequenceLength,
		Stride:                c.Recognition.Stride,
		Policy:                policy,
		MinConfidenceForSound: c.Recognition.MinConfidenceForSound,
	}
	if err := rc.Validate(); err != nil {
		return recognizer.Config{}, fmt.Errorf("recognition: %w", err)
	}
	return rc, nil
}

// DetectorConfig converts the detector section.
func (c Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinPresenceConf: c.Detector.MinPresenceConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		IdleTimeout:     time.Duration(c.Detector.IdleTimeoutSec) * time.Second,
	}
}

// LoggerOptions converts the log section.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Mode:       logger.Mode(c.Log.Mode),
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// AudioTimeout returns the plugin execution timeout.
func (c Config) AudioTimeout() time.Duration {
	return time.Duration(c.Audio.TimeoutMS) * time.Millisecond
}
