package tracking

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/teslashibe/go-turret/pkg/pose"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

var vga = image.Pt(640, 480)

// boxAt returns a 40x40 box centred on (cx, cy).
func boxAt(cx, cy float64) *detection.Box {
	return &detection.Box{X1: cx - 20, Y1: cy - 20, X2: cx + 20, Y2: cy + 20}
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAimController_Scenarios(t *testing.T) {
	c := NewAimController(DefaultConfig())

	tests := []struct {
		name       string
		box        *detection.Box
		start      pose.Pose
		expectPose pose.Pose
		expectFire bool
		expectSt   AimState
	}{
		{
			name:       "centered target fires without moving",
			box:        boxAt(320, 240),
			start:      pose.Pose{},
			expectPose: pose.Pose{},
			expectFire: true,
			expectSt:   Aligned,
		},
		{
			name:       "target right of center pans right",
			box:        boxAt(400, 240),
			start:      pose.Pose{},
			expectPose: pose.Pose{Pan: 2},
			expectSt:   Tracking,
		},
		{
			name:       "target left of center wraps pan",
			box:        boxAt(100, 240),
			start:      pose.Pose{Pan: 1},
			expectPose: pose.Pose{Pan: 359},
			expectSt:   Tracking,
		},
		{
			name:       "target above center raises tilt to the clamp",
			box:        boxAt(320, 100),
			start:      pose.Pose{Tilt: 88},
			expectPose: pose.Pose{Tilt: 90},
			expectSt:   Tracking,
		},
		{
			name:       "target below center lowers tilt",
			box:        boxAt(320, 400),
			start:      pose.Pose{Pan: 10, Tilt: 0},
			expectPose: pose.Pose{Pan: 10, Tilt: -2},
			expectSt:   Tracking,
		},
		{
			name:       "tilt already at floor stays there",
			box:        boxAt(320, 400),
			start:      pose.Pose{Tilt: -90},
			expectPose: pose.Pose{Tilt: -90},
			expectSt:   Tracking,
		},
		{
			name:       "diagonal moves both axes",
			box:        boxAt(500, 50),
			start:      pose.Pose{Pan: 180, Tilt: 10},
			expectPose: pose.Pose{Pan: 182, Tilt: 12},
			expectSt:   Tracking,
		},
		{
			name:       "exactly on the deadband edge is aligned",
			box:        boxAt(340, 220),
			start:      pose.Pose{Pan: 45, Tilt: 5},
			expectPose: pose.Pose{Pan: 45, Tilt: 5},
			expectFire: true,
			expectSt:   Aligned,
		},
		{
			name:       "one pixel past the deadband moves",
			box:        boxAt(341, 240),
			start:      pose.Pose{Pan: 45},
			expectPose: pose.Pose{Pan: 47},
			expectSt:   Tracking,
		},
		{
			name:       "no detection holds the pose",
			box:        nil,
			start:      pose.Pose{Pan: 123, Tilt: -45},
			expectPose: pose.Pose{Pan: 123, Tilt: -45},
			expectSt:   Searching,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Evaluate(tt.box, vga, tt.start)

			if !floatEquals(d.Pose.Pan, tt.expectPose.Pan) || !floatEquals(d.Pose.Tilt, tt.expectPose.Tilt) {
				t.Errorf("pose: got %v, want %v", d.Pose, tt.expectPose)
			}
			if d.Fire != tt.expectFire {
				t.Errorf("fire: got %v, want %v", d.Fire, tt.expectFire)
			}
			if d.State != tt.expectSt {
				t.Errorf("state: got %v, want %v", d.State, tt.expectSt)
			}

			p, fire := c.Step(tt.box, vga, tt.start)
			if p != d.Pose || fire != d.Fire {
				t.Errorf("Step disagrees with Evaluate: (%v, %v) vs (%v, %v)", p, fire, d.Pose, d.Fire)
			}
		})
	}
}

func TestAimController_Errors(t *testing.T) {
	c := NewAimController(DefaultConfig())

	d := c.Evaluate(&detection.Box{X1: 380, Y1: 200, X2: 420, Y2: 240}, vga, pose.Pose{})
	if !floatEquals(d.ErrX, 80) {
		t.Errorf("ErrX: got %v, want 80", d.ErrX)
	}
	if !floatEquals(d.ErrY, -20) {
		t.Errorf("ErrY: got %v, want -20", d.ErrY)
	}
}

func TestAimController_OddFrameUsesHalfPixelCenter(t *testing.T) {
	c := NewAimController(DefaultConfig())

	d := c.Evaluate(boxAt(320, 240), image.Pt(641, 481), pose.Pose{})
	if !floatEquals(d.ErrX, -0.5) || !floatEquals(d.ErrY, -0.5) {
		t.Errorf("errors: got (%v, %v), want (-0.5, -0.5)", d.ErrX, d.ErrY)
	}
}

func TestAimController_Deterministic(t *testing.T) {
	c := NewAimController(DefaultConfig())
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		box := boxAt(rng.Float64()*640, rng.Float64()*480)
		start := pose.New(rng.Float64()*720-360, rng.Float64()*200-100)

		a := c.Evaluate(box, vga, start)
		b := c.Evaluate(box, vga, start)
		if a != b {
			t.Fatalf("iteration %d: %+v != %+v", i, a, b)
		}
		if a.Pose.Pan < 0 || a.Pose.Pan >= 360 {
			t.Fatalf("iteration %d: pan %v out of range", i, a.Pose.Pan)
		}
		if a.Pose.Tilt < -90 || a.Pose.Tilt > 90 {
			t.Fatalf("iteration %d: tilt %v out of range", i, a.Pose.Tilt)
		}
	}
}

func TestAimController_NonFinitePose(t *testing.T) {
	c := NewAimController(DefaultConfig())

	tests := []struct {
		name string
		box  *detection.Box
		in   pose.Pose
		want pose.Pose
	}{
		{"nan pan, no box", nil, pose.Pose{Pan: math.NaN(), Tilt: 10}, pose.Pose{Pan: 0, Tilt: 10}},
		{"inf tilt, no box", nil, pose.Pose{Pan: 45, Tilt: math.Inf(-1)}, pose.Pose{Pan: 45, Tilt: 0}},
		{"nan pan, target right", boxAt(500, 240), pose.Pose{Pan: math.NaN()}, pose.Pose{Pan: 2}},
		{"nan both, target left", boxAt(100, 240), pose.Pose{Pan: math.NaN(), Tilt: math.NaN()}, pose.Pose{Pan: 358}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Evaluate(tt.box, vga, tt.in)
			if !floatEquals(d.Pose.Pan, tt.want.Pan) || !floatEquals(d.Pose.Tilt, tt.want.Tilt) {
				t.Errorf("pose: got %v, want %v", d.Pose, tt.want)
			}
		})
	}
}

func TestAimController_OutOfRangePose(t *testing.T) {
	c := NewAimController(DefaultConfig())

	// No target: the pose is only normalized
	d := c.Evaluate(nil, vga, pose.Pose{Pan: -30, Tilt: 135})
	if !floatEquals(d.Pose.Pan, 330) || !floatEquals(d.Pose.Tilt, 90) {
		t.Errorf("no box: got %v, want pan 330 tilt 90", d.Pose)
	}

	// Target above center steps tilt up, but it stays at the limit
	d = c.Evaluate(boxAt(320, 100), vga, pose.Pose{Pan: 725, Tilt: 95})
	if !floatEquals(d.Pose.Pan, 5) || !floatEquals(d.Pose.Tilt, 90) {
		t.Errorf("with box: got %v, want pan 5 tilt 90", d.Pose)
	}
}

func TestAimController_CustomTuning(t *testing.T) {
	c := &AimController{Deadband: 50, Step: 4}

	// 40px off is inside a 50px deadband
	if _, fire := c.Step(boxAt(360, 240), vga, pose.Pose{}); !fire {
		t.Error("expected fire inside the wider deadband")
	}

	p, _ := c.Step(boxAt(400, 240), vga, pose.Pose{})
	if !floatEquals(p.Pan, 4) {
		t.Errorf("pan: got %v, want 4", p.Pan)
	}
}

func TestAimState_String(t *testing.T) {
	tests := map[AimState]string{
		Searching:   "searching",
		Tracking:    "tracking",
		Aligned:     "aligned",
		AimState(9): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
		text, _ := s.MarshalText()
		if string(text) != want {
			t.Errorf("%d.MarshalText() = %q, want %q", int(s), text, want)
		}
	}

	for _, s := range []AimState{Searching, Tracking, Aligned} {
		text, _ := s.MarshalText()
		var back AimState
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
		}
	}
	var bad AimState
	if err := bad.UnmarshalText([]byte("dancing")); err == nil {
		t.Error("expected error for unknown state")
	}
}
