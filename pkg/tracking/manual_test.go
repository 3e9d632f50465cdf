package tracking

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-turret/pkg/pose"
)

func TestManualStep(t *testing.T) {
	tests := []struct {
		name   string
		start  pose.Pose
		dir    Direction
		expect pose.Pose
	}{
		{"right wraps past 360", pose.Pose{Pan: 359}, Right, pose.Pose{Pan: 4}},
		{"left wraps below 0", pose.Pose{Pan: 2}, Left, pose.Pose{Pan: 357}},
		{"up clamps at 90", pose.Pose{Tilt: 88}, Up, pose.Pose{Tilt: 90}},
		{"down clamps at -90", pose.Pose{Tilt: -87}, Down, pose.Pose{Tilt: -90}},
		{"up from level", pose.Pose{Pan: 30}, Up, pose.Pose{Pan: 30, Tilt: 5}},
		{"unknown direction is a no-op", pose.Pose{Pan: 30, Tilt: 1}, Direction(0), pose.Pose{Pan: 30, Tilt: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ManualStep(tt.start, tt.dir, DefaultConfig().ManualStep)
			if math.Abs(got.Pan-tt.expect.Pan) > 1e-9 || math.Abs(got.Tilt-tt.expect.Tilt) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{Left, Right, Up, Down} {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), got, err)
		}
	}

	if got, err := ParseDirection(" UP "); err != nil || got != Up {
		t.Errorf("ParseDirection should trim and ignore case, got %v, %v", got, err)
	}

	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrUnknownInput) {
		t.Errorf("expected ErrUnknownInput, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key    string
		expect Input
	}{
		{"Left", Move(Left)},
		{"Right", Move(Right)},
		{"Up", Move(Up)},
		{"Down", Move(Down)},
		{"ArrowLeft", Move(Left)},
		{"ArrowDown", Move(Down)},
		{"f", FireInput()},
		{"F", FireInput()},
	}

	for _, tt := range tests {
		got, err := ParseKey(tt.key)
		if err != nil {
			t.Errorf("ParseKey(%q): %v", tt.key, err)
			continue
		}
		if got != tt.expect {
			t.Errorf("ParseKey(%q) = %v, want %v", tt.key, got, tt.expect)
		}
	}

	for _, key := range []string{"", "space", "g", "ArrowSide"} {
		if _, err := ParseKey(key); !errors.Is(err, ErrUnknownInput) {
			t.Errorf("ParseKey(%q): expected ErrUnknownInput, got %v", key, err)
		}
	}
}

func TestInput_String(t *testing.T) {
	if s := FireInput().String(); s != "fire" {
		t.Errorf("fire input: got %q", s)
	}
	if s := Move(Down).String(); s != "down" {
		t.Errorf("move input: got %q", s)
	}
}
