// Package fire tracks the short-lived muzzle flash that follows a fire
// event. Expiry is checked against the caller's clock on every tick
// instead of by a sleeping goroutine, so the frame loop never waits on it.
package fire

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-turret/pkg/geom"
)

// DefaultDuration is how long a flash stays visible.
const DefaultDuration = 150 * time.Millisecond

// State is the flash as seen by the renderer. The zero value is inactive.
type State struct {
	Active    bool        `json:"active"`
	ExpiresAt time.Time   `json:"expires_at"`
	Muzzle    geom.Point2 `json:"muzzle"` // Canvas position fixed at trigger time
	EventID   uuid.UUID   `json:"event_id"`
}

// Trigger starts a flash at muzzle that lasts d from now.
func Trigger(muzzle geom.Point2, now time.Time, d time.Duration) State {
	return State{
		Active:    true,
		ExpiresAt: now.Add(d),
		Muzzle:    muzzle,
	}
}

// Tick clears s once now has reached its expiry. Ticking an inactive
// state returns it unchanged.
func Tick(s State, now time.Time) State {
	if !s.Active {
		return s
	}
	if !now.Before(s.ExpiresAt) {
		return State{}
	}
	return s
}

// Remaining returns how long s stays active after now.
func (s State) Remaining(now time.Time) time.Duration {
	if !s.Active {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
