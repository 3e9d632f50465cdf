package fire

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-turret/pkg/geom"
	"github.com/teslashibe/go-turret/pkg/pose"
)

// Event is emitted once per trigger. Callers map it to sound or UI.
type Event struct {
	ID     uuid.UUID   `json:"id"`
	At     time.Time   `json:"at"`
	Pose   pose.Pose   `json:"pose"`
	Muzzle geom.Point2 `json:"muzzle"`
	Manual bool        `json:"manual"` // Fire key rather than aim alignment
}

// Handler receives fire events on the ticking goroutine and must not block.
type Handler func(Event)

// Timer owns the single pending flash. A new trigger replaces the
// pending expiry rather than scheduling a second one.
type Timer struct {
	mu       sync.Mutex
	duration time.Duration
	state    State
	handlers []Handler
	fired    uint64
}

// NewTimer returns a timer whose flashes last d. A non-positive d means
// DefaultDuration.
func NewTimer(d time.Duration) *Timer {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Timer{duration: d}
}

// OnFire registers a handler for fire events.
func (t *Timer) OnFire(h Handler) {
	t.mu.Lock()
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
}

// Duration returns the current flash length.
func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// SetDuration changes the length of future flashes.
func (t *Timer) SetDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	t.duration = d
	t.mu.Unlock()
}

// Trigger starts or restarts the flash and notifies handlers.
func (t *Timer) Trigger(p pose.Pose, muzzle geom.Point2, now time.Time, manual bool) Event {
	t.mu.Lock()
	s := Trigger(muzzle, now, t.duration)
	s.EventID = uuid.New()
	t.state = s
	t.fired++
	handlers := append([]Handler(nil), t.handlers...)
	t.mu.Unlock()

	ev := Event{ID: s.EventID, At: now, Pose: p, Muzzle: muzzle, Manual: manual}
	for _, h := range handlers {
		h(ev)
	}
	return ev
}

// Cancel drops any pending flash.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.state = State{}
	t.mu.Unlock()
}

// Tick advances the timer to now. expired is true only on the call that
// clears an active flash.
func (t *Timer) Tick(now time.Time) (s State, expired bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.state.Active
	t.state = Tick(t.state, now)
	return t.state, was && !t.state.Active
}

// State returns the current flash without advancing time.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Fired returns the number of triggers so far.
func (t *Timer) Fired() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
