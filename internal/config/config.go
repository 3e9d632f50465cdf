// Package config loads go-turret configuration: embedded YAML defaults,
// an optional user file on top, then environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Environment variables read by ApplyEnv and Path.
const (
	EnvConfig       = "TURRET_CONFIG"
	EnvCamera       = "TURRET_CAMERA"
	EnvModel        = "TURRET_MODEL"
	EnvPort         = "TURRET_PORT"
	EnvTelemetryDir = "TURRET_TELEMETRY_DIR"
)

// Config is the full turret configuration.
type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas"`
	Linkage   LinkageConfig   `yaml:"linkage"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type CanvasConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FOV    float64 `yaml:"fov"`
}

type SegmentConfig struct {
	Length float64 `yaml:"length"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type LinkageConfig struct {
	PanArm  SegmentConfig `yaml:"pan_arm"`
	TiltArm SegmentConfig `yaml:"tilt_arm"`
}

type TrackingConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Deadband     float64       `yaml:"deadband"`    // pixels
	TrackStep    float64       `yaml:"track_step"`  // degrees per tick
	ManualStep   float64       `yaml:"manual_step"` // degrees per key press
	FireDuration time.Duration `yaml:"fire_duration"`
	InputBuffer  int           `yaml:"input_buffer"` // queued manual inputs before drops
}

type CameraConfig struct {
	Device    int `yaml:"device"`
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	Framerate int `yaml:"framerate"`
	Quality   int `yaml:"quality"` // JPEG 1-100
}

type DetectorConfig struct {
	Backend     string   `yaml:"backend"` // yolo, yunet, none
	ModelPath   string   `yaml:"model_path"`
	Confidence  float64  `yaml:"confidence"`
	NMS         float64  `yaml:"nms"`
	InputWidth  int      `yaml:"input_width"`
	InputHeight int      `yaml:"input_height"`
	ClassNames  []string `yaml:"class_names"`
	TargetClass int      `yaml:"target_class"`
}

type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	Frames  bool `yaml:"frames"` // stream rasterized PNG frames
}

type TelemetryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	FlushEvery int    `yaml:"flush_every"` // records per CSV batch
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Environment overrides are applied on top. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Path returns the config file path: the flag value if set, else TURRET_CONFIG.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfig)
}

// ApplyEnv overlays TURRET_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvCamera); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCamera, err)
		}
		c.Camera.Device = id
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Detector.ModelPath = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Dashboard.Port = port
	}
	if v := os.Getenv(EnvTelemetryDir); v != "" {
		c.Telemetry.Dir = v
		c.Telemetry.Enabled = true
	}
	return nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas: size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	check(c.Canvas.FOV > 0, "canvas: fov must be positive, got %v", c.Canvas.FOV)
	check(c.Tracking.TickInterval > 0, "tracking: tick_interval must be positive, got %v", c.Tracking.TickInterval)
	check(c.Tracking.Deadband >= 0, "tracking: deadband must be >= 0, got %v", c.Tracking.Deadband)
	check(c.Tracking.TrackStep > 0, "tracking: track_step must be positive, got %v", c.Tracking.TrackStep)
	check(c.Tracking.ManualStep > 0, "tracking: manual_step must be positive, got %v", c.Tracking.ManualStep)
	check(c.Tracking.FireDuration > 0, "tracking: fire_duration must be positive, got %v", c.Tracking.FireDuration)
	check(c.Tracking.InputBuffer > 0, "tracking: input_buffer must be positive, got %d", c.Tracking.InputBuffer)
	check(c.Dashboard.Port > 0 && c.Dashboard.Port < 65536, "dashboard: port out of range: %d", c.Dashboard.Port)
	check(c.Telemetry.FlushEvery > 0, "telemetry: flush_every must be positive, got %d", c.Telemetry.FlushEvery)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
