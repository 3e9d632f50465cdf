// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-turret/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether verbose per-frame tracking logs are shown
// (detections, aim errors, controller decisions).
// Use --debug-tracking flag to enable these very verbose logs
var Tracking bool

// Log writes a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// TrackLog writes a debug record only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		log.Debug(msg, args...)
	}
}
