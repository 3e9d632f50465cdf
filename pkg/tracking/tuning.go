package tracking

import "time"

// Tick rate limits accepted by SetTuningParams.
const (
	MinTickHz = 1.0
	MaxTickHz = 60.0
)

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting.
type TuningParams struct {
	Deadband       float64 `json:"deadband"`         // Pixels
	TrackStep      float64 `json:"track_step"`       // Degrees per tick
	ManualStep     float64 `json:"manual_step"`      // Degrees per input
	FireDurationMs float64 `json:"fire_duration_ms"` // Flash length
	TickHz         float64 `json:"tick_hz"`          // Frame loop rate
}

// GetTuningParams returns current tuning parameters from the tracker.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return TuningParams{
		Deadband:       t.controller.Deadband,
		TrackStep:      t.controller.Step,
		ManualStep:     t.config.ManualStep,
		FireDurationMs: float64(t.fire.Duration()) / float64(time.Millisecond),
		TickHz:         1.0 / t.config.TickInterval.Seconds(),
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only positive values are applied.
func (t *Tracker) SetTuningParams(params TuningParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if params.Deadband > 0 {
		t.controller.Deadband = params.Deadband
		t.config.Deadband = params.Deadband
	}
	if params.TrackStep > 0 {
		t.controller.Step = params.TrackStep
		t.config.TrackStep = params.TrackStep
	}
	if params.ManualStep > 0 {
		t.config.ManualStep = params.ManualStep
	}
	if params.FireDurationMs > 0 {
		d := time.Duration(params.FireDurationMs * float64(time.Millisecond))
		t.fire.SetDuration(d)
		t.config.FireDuration = d
	}

	// Tick rate (handled by Run via channel)
	if params.TickHz > 0 {
		t.setTickHz(params.TickHz)
	}
}

// setTickHz updates the frame loop rate. Must be called with mu held.
func (t *Tracker) setTickHz(hz float64) {
	if hz < MinTickHz {
		hz = MinTickHz
	}
	if hz > MaxTickHz {
		hz = MaxTickHz
	}

	interval := time.Duration(float64(time.Second) / hz)
	t.config.TickInterval = interval

	// Send to the ticker reset channel (non-blocking)
	select {
	case t.tickerReset <- interval:
	default:
		// Channel full: replace the pending update with the newest one.
		select {
		case <-t.tickerReset:
		default:
		}
		select {
		case t.tickerReset <- interval:
		default:
		}
	}
}
