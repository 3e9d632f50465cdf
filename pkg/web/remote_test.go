package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/teslashibe/go-turret/internal/httpc"
	"github.com/teslashibe/go-turret/pkg/pose"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

func newRemoteTest(t *testing.T, ft *fakeTurret) *Remote {
	t.Helper()
	s := NewServer(0, ft, Options{})
	srv := httptest.NewServer(adaptor.FiberApp(s.App()))
	t.Cleanup(srv.Close)

	r, err := NewRemote(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	return r
}

func TestRemote_StatusAndKeys(t *testing.T) {
	ft := &fakeTurret{status: tracking.Status{Tick: 3, Pose: pose.Pose{Pan: 10}, State: tracking.Tracking}}
	r := newRemoteTest(t, ft)
	ctx := context.Background()

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Tick != 3 || st.Pose.Pan != 10 || st.State != tracking.Tracking {
		t.Errorf("unexpected status %+v", st)
	}

	for _, key := range []string{"ArrowLeft", "down", "f"} {
		if err := r.Key(ctx, key); err != nil {
			t.Errorf("Key(%q): %v", key, err)
		}
	}
	if err := r.Fire(ctx); err != nil {
		t.Errorf("Fire: %v", err)
	}

	if len(ft.moves) != 2 || ft.moves[0] != tracking.Left || ft.moves[1] != tracking.Down {
		t.Errorf("moves: got %v", ft.moves)
	}
	if ft.fires != 2 {
		t.Errorf("fires: got %d, want 2", ft.fires)
	}
}

func TestRemote_BadKey(t *testing.T) {
	r := newRemoteTest(t, &fakeTurret{})

	err := r.Key(context.Background(), "space")
	var se *httpc.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
}

func TestRemote_QueueFull(t *testing.T) {
	r := newRemoteTest(t, &fakeTurret{refuse: true})

	err := r.Fire(context.Background())
	var se *httpc.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
}

func TestRemote_Tuning(t *testing.T) {
	ft := &fakeTurret{tuning: tracking.TuningParams{Deadband: 20, TrackStep: 2}}
	r := newRemoteTest(t, ft)
	ctx := context.Background()

	p, err := r.Tuning(ctx)
	if err != nil {
		t.Fatalf("Tuning: %v", err)
	}
	if p.Deadband != 20 {
		t.Errorf("Deadband = %v, want 20", p.Deadband)
	}

	p, err = r.SetTuning(ctx, tracking.TuningParams{TrackStep: 4})
	if err != nil {
		t.Fatalf("SetTuning: %v", err)
	}
	if p.TrackStep != 4 || p.Deadband != 20 {
		t.Errorf("after SetTuning: %+v", p)
	}
}

func TestNewRemote_RejectsScheme(t *testing.T) {
	if _, err := NewRemote("ftp://turret"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}
