package tracking

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/debug"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// FrameSource interface for capturing frames
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
	Size() image.Point
}

// Observation is one perception result: the chosen target (if any) in the
// pixel space of a frame of size Frame.
type Observation struct {
	Box        *detection.Box
	Target     *detection.Detection
	Detections []detection.Detection
	Frame      image.Point
	Seq        uint64
	At         time.Time
	Preview    []byte // annotated JPEG, nil unless previews are on
}

// Perception captures and detects on its own goroutine and hands the most
// recent observation to the tick loop through a one-slot mailbox.
type Perception struct {
	detector       detection.Detector
	targetClass    int
	backoff        time.Duration
	preview        bool
	previewQuality int
	annotate       func([]byte, []detection.Detection, *detection.Detection, int) ([]byte, error)

	mu                sync.Mutex
	latest            Observation
	fresh             bool
	seq               uint64
	consecutiveMisses int
	lastPreview       []byte
}

// NewPerception creates a new perception system. detector may be nil, in
// which case every observation has no target.
func NewPerception(config Config, detector detection.Detector) *Perception {
	return &Perception{
		detector:       detector,
		targetClass:    config.TargetClass,
		backoff:        config.ErrorBackoff,
		preview:        config.Preview,
		previewQuality: config.PreviewQuality,
		annotate:       detection.Annotate,
	}
}

// Detect captures one frame and picks the target. It does not publish.
func (p *Perception) Detect(src FrameSource, now time.Time) (Observation, error) {
	frame, err := src.CaptureJPEG()
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{Frame: src.Size(), At: now}

	if p.detector != nil {
		dets, err := p.detector.Detect(frame)
		if err != nil {
			return obs, err
		}
		obs.Detections = dets
		if target := detection.SelectTarget(dets, p.targetClass); target != nil {
			obs.Target = target
			box := target.Box
			obs.Box = &box
		}
	}

	if p.preview && p.annotate != nil {
		if img, err := p.annotate(frame, obs.Detections, obs.Target, p.previewQuality); err == nil {
			obs.Preview = img
		} else {
			debug.Log("preview annotate failed", "error", err)
		}
	}

	return obs, nil
}

// Run detects continuously until ctx is cancelled. Capture pacing comes
// from the source; errors back off and count as misses.
func (p *Perception) Run(ctx context.Context, src FrameSource) {
	log.Info("perception started", "target_class", p.targetClass, "detector", p.detector != nil)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		obs, err := p.Detect(src, time.Now())
		if err != nil {
			misses := p.miss()
			if misses == 1 || misses%50 == 0 {
				log.Warn("perception error", "error", err, "misses", misses)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}

		p.Publish(obs)
	}
}

// Publish stores obs as the latest result, replacing any unread one.
func (p *Perception) Publish(obs Observation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	obs.Seq = p.seq
	p.latest = obs
	p.fresh = true
	if obs.Preview != nil {
		p.lastPreview = obs.Preview
	}

	if obs.Box == nil {
		p.consecutiveMisses++
		if p.consecutiveMisses == 5 {
			log.Info("target lost", "misses", p.consecutiveMisses)
		}
		return
	}
	if p.consecutiveMisses >= 5 && obs.Target != nil {
		log.Info("target acquired", "class", obs.Target.ClassName, "confidence", obs.Target.Confidence)
	}
	p.consecutiveMisses = 0
}

// Take returns the latest observation if it has not been taken yet.
// It never blocks.
func (p *Perception) Take() (Observation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.fresh {
		return Observation{}, false
	}
	p.fresh = false
	return p.latest, true
}

// LastPreview returns the most recent annotated frame, or nil.
func (p *Perception) LastPreview() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPreview
}

// GetConsecutiveMisses returns how many consecutive detections have failed
func (p *Perception) GetConsecutiveMisses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consecutiveMisses
}

func (p *Perception) miss() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutiveMisses++
	return p.consecutiveMisses
}
