package fire

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-turret/pkg/geom"
	"github.com/teslashibe/go-turret/pkg/pose"
)

var t0 = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

func TestTick_ExpiresAfterDuration(t *testing.T) {
	t.Parallel()

	s := Trigger(geom.Point2{X: 10, Y: 20}, t0, DefaultDuration)
	require.True(t, s.Active)

	s = Tick(s, t0.Add(100*time.Millisecond))
	assert.True(t, s.Active, "still active at 100ms")

	s = Tick(s, t0.Add(200*time.Millisecond))
	assert.False(t, s.Active, "inactive at 200ms")
}

func TestTick_ExpiresExactlyAtDeadline(t *testing.T) {
	t.Parallel()

	s := Trigger(geom.Point2{}, t0, DefaultDuration)
	s = Tick(s, t0.Add(DefaultDuration))
	assert.False(t, s.Active)
}

func TestTick_InactiveIsNoOp(t *testing.T) {
	t.Parallel()

	var s State
	assert.Equal(t, s, Tick(s, t0))
	assert.Equal(t, s, Tick(Tick(s, t0), t0.Add(time.Hour)))
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	s := Trigger(geom.Point2{}, t0, DefaultDuration)
	assert.Equal(t, 50*time.Millisecond, s.Remaining(t0.Add(100*time.Millisecond)))
	assert.Equal(t, time.Duration(0), s.Remaining(t0.Add(time.Second)))
	assert.Equal(t, time.Duration(0), State{}.Remaining(t0))
}

func TestTimer_RetriggerResetsExpiry(t *testing.T) {
	t.Parallel()

	tm := NewTimer(DefaultDuration)
	tm.Trigger(pose.Zero(), geom.Point2{X: 1}, t0, false)
	tm.Trigger(pose.Zero(), geom.Point2{X: 2}, t0.Add(100*time.Millisecond), false)

	// the first expiry would have passed at 150ms
	s, expired := tm.Tick(t0.Add(200 * time.Millisecond))
	assert.True(t, s.Active)
	assert.False(t, expired)
	assert.Equal(t, 2.0, s.Muzzle.X)

	s, expired = tm.Tick(t0.Add(250 * time.Millisecond))
	assert.False(t, s.Active)
	assert.True(t, expired)

	// only the transition reports expiry
	_, expired = tm.Tick(t0.Add(300 * time.Millisecond))
	assert.False(t, expired)
	assert.Equal(t, uint64(2), tm.Fired())
}

func TestTimer_Cancel(t *testing.T) {
	t.Parallel()

	tm := NewTimer(time.Second)
	tm.Trigger(pose.Zero(), geom.Point2{}, t0, true)
	tm.Cancel()
	assert.False(t, tm.State().Active)
}

func TestTimer_HandlersReceiveEvent(t *testing.T) {
	t.Parallel()

	tm := NewTimer(0)
	assert.Equal(t, DefaultDuration, tm.Duration())

	var got []Event
	tm.OnFire(func(ev Event) { got = append(got, ev) })

	p := pose.Pose{Pan: 12, Tilt: 3}
	ev := tm.Trigger(p, geom.Point2{X: 5, Y: 6}, t0, true)

	require.Len(t, got, 1)
	assert.Equal(t, ev, got[0])
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, ev.ID, tm.State().EventID)
	assert.Equal(t, p, ev.Pose)
	assert.True(t, ev.Manual)
}

func TestTimer_SetDurationIgnoresNonPositive(t *testing.T) {
	t.Parallel()

	tm := NewTimer(DefaultDuration)
	tm.SetDuration(-time.Second)
	assert.Equal(t, DefaultDuration, tm.Duration())
	tm.SetDuration(300 * time.Millisecond)
	assert.Equal(t, 300*time.Millisecond, tm.Duration())
}
