// Package turret composes the turret application: capture, detection, the
// frame loop, telemetry and the dashboard.
package turret

import (
	"fmt"

	"github.com/teslashibe/go-turret/internal/config"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/linkage"
	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// Config holds all configuration for the turret application.
// Flag parsing is done in cmd/turret/main.go; this struct is data only.
type Config struct {
	config.Config

	// Debug enables verbose debug logging.
	Debug bool
	// DebugTracking enables per-frame detection and aim logs.
	DebugTracking bool
	// Preview annotates camera frames for the /ws/video stream.
	Preview bool
	// NoCamera runs the turret manual-only, without capture or detection.
	NoCamera bool
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() Config {
	return Config{Config: *config.Default()}
}

// Validate checks the file settings and the linkage geometry.
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if _, err := c.linkage(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) logLevel() string {
	if c.Debug || c.DebugTracking {
		return "debug"
	}
	return c.Log.Level
}

func (c *Config) linkage() (linkage.Linkage, error) {
	pan := c.Linkage.PanArm
	tilt := c.Linkage.TiltArm
	return linkage.New(
		linkage.Segment{Length: pan.Length, Width: pan.Width, Height: pan.Height},
		linkage.Segment{Length: tilt.Length, Width: tilt.Width, Height: tilt.Height},
	)
}

func (c *Config) renderer() (render.Renderer, error) {
	l, err := c.linkage()
	if err != nil {
		return render.Renderer{}, err
	}
	return render.New(c.Canvas.Width, c.Canvas.Height, c.Canvas.FOV, l, render.DefaultStyle()), nil
}

func (c *Config) trackingConfig() tracking.Config {
	tc := tracking.DefaultConfig()
	tc.TickInterval = c.Tracking.TickInterval
	tc.Deadband = c.Tracking.Deadband
	tc.TrackStep = c.Tracking.TrackStep
	tc.ManualStep = c.Tracking.ManualStep
	tc.FireDuration = c.Tracking.FireDuration
	tc.InputBuffer = c.Tracking.InputBuffer
	tc.TargetClass = c.Detector.TargetClass
	tc.Preview = c.Preview
	tc.PreviewQuality = c.Camera.Quality
	return tc
}

func (c *Config) detectorConfig() detection.Config {
	return detection.Config{
		Backend:          c.Detector.Backend,
		ModelPath:        c.Detector.ModelPath,
		ConfidenceThresh: c.Detector.Confidence,
		NMSThresh:        c.Detector.NMS,
		InputWidth:       c.Detector.InputWidth,
		InputHeight:      c.Detector.InputHeight,
		ClassNames:       c.Detector.ClassNames,
		TargetClass:      c.Detector.TargetClass,
	}
}

func (c *Config) cameraConfig() camera.Config {
	return camera.Config{
		DeviceID:  c.Camera.Device,
		Width:     c.Camera.Width,
		Height:    c.Camera.Height,
		Framerate: c.Camera.Framerate,
		Quality:   c.Camera.Quality,
	}
}
