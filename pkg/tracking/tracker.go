package tracking

import (
	"context"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/debug"
	"github.com/teslashibe/go-turret/pkg/fire"
	"github.com/teslashibe/go-turret/pkg/geom"
	"github.com/teslashibe/go-turret/pkg/pose"
	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/telemetry"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// Presenter receives every rendered frame with the status it was drawn from.
// It is called on the tick goroutine and must not block.
type Presenter interface {
	Present(frame render.Frame, status Status)
}

// Recorder persists per-tick aim telemetry.
type Recorder interface {
	Record(rec telemetry.AimRecord) error
}

// FrameSize is the camera frame size the last target was measured in.
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Status is the snapshot published at the end of every tick.
type Status struct {
	Tick           uint64               `json:"tick"`
	At             time.Time            `json:"at"`
	Pose           pose.Pose            `json:"pose"`
	State          AimState             `json:"state"`
	ErrX           float64              `json:"err_x"`
	ErrY           float64              `json:"err_y"`
	Target         *detection.Detection `json:"target,omitempty"`
	TargetCenter   *geom.Point2         `json:"target_center,omitempty"`
	Frame          FrameSize            `json:"frame"`
	ObservationSeq uint64               `json:"observation_seq"`
	Firing         bool                 `json:"firing"`
	Fired          uint64               `json:"fired"`
	Misses         int                  `json:"misses"`
	ManualInputs   int                  `json:"manual_inputs"`
	DroppedInputs  uint64               `json:"dropped_inputs"`
}

// Tracker owns the pose and runs the frame loop. Only the tick goroutine
// writes the pose; everyone else reads the published Status.
type Tracker struct {
	config     Config
	controller AimController
	renderer   render.Renderer
	perception *Perception
	fire       *fire.Timer
	presenter  Presenter
	recorder   Recorder

	inputs      chan Input
	tickerReset chan time.Duration
	dropped     atomic.Uint64

	// Tick goroutine state
	pose           pose.Pose
	frame          image.Point
	ticks          uint64
	lastObserved   AimState
	lastLoggedPose pose.Pose
	started        time.Time

	mu     sync.RWMutex
	status Status
}

// New creates a tracker. perception may be nil for a manual-only turret.
func New(config Config, renderer render.Renderer, perception *Perception) *Tracker {
	buf := config.InputBuffer
	if buf <= 0 {
		buf = DefaultConfig().InputBuffer
	}
	return &Tracker{
		config:      config,
		controller:  *NewAimController(config),
		renderer:    renderer,
		perception:  perception,
		fire:        fire.NewTimer(config.FireDuration),
		inputs:      make(chan Input, buf),
		tickerReset: make(chan time.Duration, 1),
	}
}

// SetPresenter sets where rendered frames go
func (t *Tracker) SetPresenter(p Presenter) {
	t.presenter = p
}

// SetRecorder sets the telemetry sink
func (t *Tracker) SetRecorder(r Recorder) {
	t.recorder = r
}

// SetEpoch sets the time telemetry offsets count from. Without it the
// first tick is the epoch. Call before Run.
func (t *Tracker) SetEpoch(at time.Time) {
	t.started = at
}

// FireTimer exposes the flash timer so callers can subscribe to fire events.
func (t *Tracker) FireTimer() *fire.Timer {
	return t.fire
}

// Renderer returns the renderer used for every tick.
func (t *Tracker) Renderer() render.Renderer {
	return t.renderer
}

// Status returns the snapshot from the most recent tick.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Pose returns the pose as of the most recent tick.
func (t *Tracker) Pose() pose.Pose {
	return t.Status().Pose
}

// Submit queues a manual input for the next tick. It never blocks; a full
// queue drops the input and returns false.
func (t *Tracker) Submit(in Input) bool {
	select {
	case t.inputs <- in:
		return true
	default:
		n := t.dropped.Add(1)
		log.Warn("manual input dropped", "input", in.String(), "dropped", n)
		return false
	}
}

// Manual queues a jog in direction d.
func (t *Tracker) Manual(d Direction) bool {
	return t.Submit(Move(d))
}

// Fire queues a manual fire.
func (t *Tracker) Fire() bool {
	return t.Submit(FireInput())
}

// Run ticks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	t.mu.RLock()
	interval := t.config.TickInterval
	t.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tp := t.GetTuningParams()
	log.Info("tracker started",
		"tick", interval,
		"deadband", tp.Deadband,
		"track_step", tp.TrackStep,
		"manual_step", tp.ManualStep,
		"fire_duration_ms", tp.FireDurationMs)

	for {
		select {
		case <-ctx.Done():
			t.fire.Cancel()
			log.Info("tracker stopped", "ticks", t.ticks, "fired", t.fire.Fired())
			return

		case d := <-t.tickerReset:
			ticker.Reset(d)
			log.Info("tick interval changed", "tick", d)

		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}

// Tick runs one frame: manual inputs, perception intake, controller step,
// fire, render, present, record. Ticks must not overlap.
func (t *Tracker) Tick(now time.Time) Status {
	if t.started.IsZero() {
		t.started = now
	}
	t.ticks++

	t.mu.RLock()
	ctrl := t.controller
	manualStep := t.config.ManualStep
	logThreshold := t.config.LogThreshold
	t.mu.RUnlock()

	p := t.pose

	manual := 0
drain:
	for {
		select {
		case in := <-t.inputs:
			manual++
			if in.Kind == InputFire {
				ev := t.fire.Trigger(p, t.renderer.Muzzle2D(p), now, true)
				log.Info("manual fire", "event", ev.ID, "pose", p.String())
				continue
			}
			p = ManualStep(p, in.Direction, manualStep)
		default:
			break drain
		}
	}

	var obs Observation
	fresh := false
	if t.perception != nil {
		obs, fresh = t.perception.Take()
	}

	var box *detection.Box
	if fresh {
		if obs.Frame != (image.Point{}) {
			t.frame = obs.Frame
		}
		if t.frame != (image.Point{}) {
			box = obs.Box
		}
	}

	dec := ctrl.Evaluate(box, t.frame, p)
	p = dec.Pose

	if dec.Fire {
		t.fire.Trigger(p, t.renderer.Muzzle2D(p), now, false)
	}
	flash, expired := t.fire.Tick(now)
	if expired {
		debug.Log("flash expired", "tick", t.ticks)
	}

	frame := t.renderer.RenderWithFlash(p, flash)
	t.pose = p

	if fresh {
		if dec.State != t.lastObserved {
			log.Info("aim state", "from", t.lastObserved.String(), "to", dec.State.String(),
				"err_x", dec.ErrX, "err_y", dec.ErrY, "pose", p.String())
			t.lastObserved = dec.State
		}
		debug.TrackLog("aim", "state", dec.State.String(), "err_x", dec.ErrX, "err_y", dec.ErrY)
	}
	if moved(t.lastLoggedPose, p, logThreshold) {
		debug.Log("pose", "pan", p.Pan, "tilt", p.Tilt)
		t.lastLoggedPose = p
	}

	status := Status{
		Tick:          t.ticks,
		At:            now,
		Pose:          p,
		State:         dec.State,
		ErrX:          dec.ErrX,
		ErrY:          dec.ErrY,
		Frame:         FrameSize{Width: t.frame.X, Height: t.frame.Y},
		Firing:        flash.Active,
		Fired:         t.fire.Fired(),
		ManualInputs:  manual,
		DroppedInputs: t.dropped.Load(),
	}
	if fresh {
		status.ObservationSeq = obs.Seq
		status.Target = obs.Target
		if obs.Box != nil {
			cx, cy := obs.Box.Center()
			status.TargetCenter = &geom.Point2{X: cx, Y: cy}
		}
	}
	if t.perception != nil {
		status.Misses = t.perception.GetConsecutiveMisses()
	}

	t.mu.Lock()
	if !fresh {
		status.ObservationSeq = t.status.ObservationSeq
	}
	t.status = status
	t.mu.Unlock()

	if t.presenter != nil {
		t.presenter.Present(frame, status)
	}
	if t.recorder != nil && (fresh || manual > 0 || dec.Fire) {
		rec := telemetry.AimRecord{
			Tick:      status.Tick,
			AtMs:      now.Sub(t.started).Milliseconds(),
			State:     dec.State.String(),
			Pan:       p.Pan,
			Tilt:      p.Tilt,
			HasTarget: box != nil,
			ErrX:      dec.ErrX,
			ErrY:      dec.ErrY,
			Fire:      dec.Fire,
			Manual:    manual,
			Misses:    status.Misses,
		}
		if err := t.recorder.Record(rec); err != nil {
			log.Warn("telemetry write failed", "error", err)
		}
	}

	return status
}

func moved(a, b pose.Pose, threshold float64) bool {
	dPan := math.Abs(a.Pan - b.Pan)
	if dPan > pose.FullTurn/2 {
		dPan = pose.FullTurn - dPan
	}
	return dPan > threshold || math.Abs(a.Tilt-b.Tilt) > threshold
}
