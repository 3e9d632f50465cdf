// Package camera captures frames from a local video device for the
// detection pipeline. Settings can be changed at runtime from the dashboard.
package camera

import "fmt"

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	DeviceID  int  `json:"device_id"` // OpenCV device index
	Width     int  `json:"width"`     // Frame width in pixels
	Height    int  `json:"height"`    // Frame height in pixels
	Framerate int  `json:"framerate"` // Target FPS
	Quality   int  `json:"quality"`   // JPEG quality 1-100
	Mirror    bool `json:"mirror"`    // Flip horizontally (front-facing webcams)
}

// Device limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 640x480 at 30 FPS, the frame size the aim
// controller is tuned against.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must be >= 0")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
