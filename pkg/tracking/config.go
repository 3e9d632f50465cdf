// Package tracking steers the turret toward the detected target and runs
// the per-tick frame loop: input, perception, control, fire, render.
package tracking

import (
	"time"

	"github.com/teslashibe/go-turret/pkg/fire"
)

// Config holds all tunable parameters for target tracking
type Config struct {
	// Timing
	TickInterval time.Duration // Frame loop period

	// Aim controller
	Deadband   float64 // Pixels of error tolerated before stepping
	TrackStep  float64 // Degrees per tick while tracking
	ManualStep float64 // Degrees per manual input

	// Fire effect
	FireDuration time.Duration

	// Perception
	TargetClass    int           // Only this detector class is tracked
	ErrorBackoff   time.Duration // Wait after a failed capture before retrying
	Preview        bool          // Publish annotated camera frames
	PreviewQuality int           // JPEG quality for previews

	// Manual input
	InputBuffer int // Queued inputs before new ones are dropped

	// Logging
	LogThreshold float64 // Only log pose changes larger than this (degrees)
}

// DefaultConfig returns the reference behaviour: 20px deadband, 2° tracking
// steps, 5° manual steps and a 150ms flash at roughly 30 ticks per second.
func DefaultConfig() Config {
	return Config{
		TickInterval: 33 * time.Millisecond,

		Deadband:   20,
		TrackStep:  2,
		ManualStep: 5,

		FireDuration: fire.DefaultDuration,

		TargetClass:    0,
		ErrorBackoff:   100 * time.Millisecond,
		PreviewQuality: 70,

		InputBuffer: 16,

		LogThreshold: 10,
	}
}

// SlowConfig returns a configuration for slower, steadier tracking
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 50 * time.Millisecond
	cfg.Deadband = 30
	cfg.TrackStep = 1
	return cfg
}

// AggressiveConfig returns a configuration for very fast tracking
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 20 * time.Millisecond
	cfg.Deadband = 12
	cfg.TrackStep = 4
	return cfg
}
