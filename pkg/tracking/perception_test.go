package tracking

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

type mockSource struct {
	mu    sync.Mutex
	size  image.Point
	err   error
	calls int
}

func (m *mockSource) CaptureJPEG() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

func (m *mockSource) Size() image.Point { return m.size }

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockDetector struct {
	dets   []detection.Detection
	err    error
	closed bool
}

func (m *mockDetector) Detect([]byte) ([]detection.Detection, error) {
	return m.dets, m.err
}

func (m *mockDetector) Close() error {
	m.closed = true
	return nil
}

func TestPerception_DetectSelectsTargetClass(t *testing.T) {
	det := &mockDetector{dets: []detection.Detection{
		{Box: detection.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 3, ClassName: "bird", Confidence: 0.95},
		{Box: detection.Box{X1: 300, Y1: 220, X2: 340, Y2: 260}, ClassID: 0, ClassName: "drone", Confidence: 0.8},
		{Box: detection.Box{X1: 500, Y1: 400, X2: 540, Y2: 440}, ClassID: 0, ClassName: "drone", Confidence: 0.6},
	}}
	p := NewPerception(DefaultConfig(), det)
	src := &mockSource{size: vga}

	obs, err := p.Detect(src, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if obs.Frame != vga {
		t.Errorf("Frame: got %v, want %v", obs.Frame, vga)
	}
	if len(obs.Detections) != 3 {
		t.Errorf("Detections: got %d, want 3", len(obs.Detections))
	}
	if obs.Box == nil {
		t.Fatal("expected a target box")
	}
	if *obs.Box != det.dets[1].Box {
		t.Errorf("Box: got %+v, want first drone %+v", *obs.Box, det.dets[1].Box)
	}
	if obs.Target == nil || obs.Target.ClassName != "drone" {
		t.Errorf("Target: got %+v", obs.Target)
	}
	if obs.Preview != nil {
		t.Error("previews are off by default")
	}
}

func TestPerception_DetectNoTarget(t *testing.T) {
	det := &mockDetector{dets: []detection.Detection{{ClassID: 2}}}
	p := NewPerception(DefaultConfig(), det)

	obs, err := p.Detect(&mockSource{size: vga}, time.Now())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if obs.Box != nil || obs.Target != nil {
		t.Errorf("expected no target, got %+v", obs.Box)
	}
}

func TestPerception_DetectErrors(t *testing.T) {
	capErr := errors.New("unplugged")
	p := NewPerception(DefaultConfig(), &mockDetector{})
	if _, err := p.Detect(&mockSource{err: capErr}, time.Now()); !errors.Is(err, capErr) {
		t.Errorf("expected capture error, got %v", err)
	}

	detErr := errors.New("bad tensor")
	p = NewPerception(DefaultConfig(), &mockDetector{err: detErr})
	if _, err := p.Detect(&mockSource{size: vga}, time.Now()); !errors.Is(err, detErr) {
		t.Errorf("expected detector error, got %v", err)
	}
}

func TestPerception_NilDetector(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)

	obs, err := p.Detect(&mockSource{size: vga}, time.Now())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if obs.Box != nil {
		t.Error("nil detector must never produce a target")
	}
	if obs.Frame != vga {
		t.Errorf("Frame: got %v, want %v", obs.Frame, vga)
	}
}

func TestPerception_Preview(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preview = true
	p := NewPerception(cfg, &mockDetector{dets: []detection.Detection{{ClassID: 0}}})

	var gotTarget *detection.Detection
	p.annotate = func(jpeg []byte, dets []detection.Detection, target *detection.Detection, quality int) ([]byte, error) {
		gotTarget = target
		return []byte("annotated"), nil
	}

	obs, err := p.Detect(&mockSource{size: vga}, time.Now())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if string(obs.Preview) != "annotated" {
		t.Errorf("Preview: got %q", obs.Preview)
	}
	if gotTarget == nil {
		t.Error("annotator should receive the target")
	}

	p.Publish(obs)
	if string(p.LastPreview()) != "annotated" {
		t.Errorf("LastPreview: got %q", p.LastPreview())
	}
}

func TestPerception_TakeOnce(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)

	if _, ok := p.Take(); ok {
		t.Fatal("Take on empty mailbox should report nothing")
	}

	p.Publish(Observation{Box: boxAt(320, 240), Frame: vga})
	obs, ok := p.Take()
	if !ok {
		t.Fatal("expected a fresh observation")
	}
	if obs.Seq != 1 {
		t.Errorf("Seq: got %d, want 1", obs.Seq)
	}

	if _, ok := p.Take(); ok {
		t.Error("second Take should find the mailbox empty")
	}
}

func TestPerception_PublishOverwrites(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)

	p.Publish(Observation{Box: boxAt(100, 100), Frame: vga})
	p.Publish(Observation{Box: boxAt(200, 200), Frame: vga})

	obs, ok := p.Take()
	if !ok {
		t.Fatal("expected a fresh observation")
	}
	if obs.Seq != 2 {
		t.Errorf("Seq: got %d, want 2", obs.Seq)
	}
	if cx, _ := obs.Box.Center(); cx != 200 {
		t.Errorf("expected the newest observation, got center x %v", cx)
	}
}

func TestPerception_ConsecutiveMisses(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)

	for i := 0; i < 6; i++ {
		p.Publish(Observation{Frame: vga})
	}
	if got := p.GetConsecutiveMisses(); got != 6 {
		t.Errorf("misses: got %d, want 6", got)
	}

	p.Publish(Observation{Box: boxAt(1, 1), Frame: vga})
	if got := p.GetConsecutiveMisses(); got != 0 {
		t.Errorf("misses after a hit: got %d, want 0", got)
	}
}

func TestPerception_RunPublishesUntilCancelled(t *testing.T) {
	det := &mockDetector{dets: []detection.Detection{{Box: *boxAt(320, 240), ClassID: 0}}}
	p := NewPerception(DefaultConfig(), det)
	src := &mockSource{size: vga}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, src)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if obs, ok := p.Take(); ok {
			if obs.Box == nil {
				t.Fatal("expected a target in published observation")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("no observation published")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestPerception_RunBacksOffOnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorBackoff = 20 * time.Millisecond
	p := NewPerception(cfg, nil)
	src := &mockSource{err: errors.New("no device")}

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	p.Run(ctx, src)

	// ~5 attempts at 20ms; a busy loop would make thousands
	if calls := src.Calls(); calls < 2 || calls > 20 {
		t.Errorf("capture attempts: got %d", calls)
	}
	if _, ok := p.Take(); ok {
		t.Error("failed captures must not publish")
	}
	if p.GetConsecutiveMisses() == 0 {
		t.Error("errors should count as misses")
	}
}
