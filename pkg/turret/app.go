package turret

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/debug"
	"github.com/teslashibe/go-turret/pkg/fire"
	"github.com/teslashibe/go-turret/pkg/telemetry"
	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
	"github.com/teslashibe/go-turret/pkg/web"
)

// App is the turret application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config

	// Vision
	capture  *camera.Capture
	cameras  *camera.Manager
	detector detection.Detector

	// Frame loop
	perception *tracking.Perception
	tracker    *tracking.Tracker

	// Outputs
	recorder  *telemetry.Recorder
	webServer *web.Server

	started time.Time // epoch for every telemetry offset
	wg      sync.WaitGroup
}

// New creates a new turret application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Tracking = cfg.DebugTracking
	log.Init(cfg.logLevel())

	return &App{config: cfg}, nil
}

// Init builds every component. Call this after New() and before Run().
// Camera and detector failures degrade to a manual-only turret.
func (a *App) Init() error {
	renderer, err := a.config.renderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	if !a.config.NoCamera {
		if err := a.initVision(); err != nil {
			log.Warn("vision disabled, manual control only", "error", err)
		}
	}

	tc := a.config.trackingConfig()
	if a.capture != nil {
		a.perception = tracking.NewPerception(tc, a.detector)
	}
	a.tracker = tracking.New(tc, renderer, a.perception)

	if a.config.Telemetry.Enabled {
		a.recorder, err = telemetry.NewRecorder(a.config.Telemetry.Dir, a.config.Telemetry.FlushEvery)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		if a.recorder != nil {
			a.tracker.SetRecorder(a.recorder)
			log.Info("telemetry enabled", "dir", a.recorder.Dir())
		}
	}

	a.tracker.FireTimer().OnFire(a.onFire)

	if a.config.Dashboard.Enabled {
		a.initDashboard()
	}

	return nil
}

// initVision opens the camera and loads the detector. A missing model
// keeps the camera running so the dashboard still shows video.
func (a *App) initVision() error {
	camCfg := a.config.cameraConfig()
	capture, err := camera.Open(camCfg)
	if err != nil {
		return err
	}
	a.capture = capture
	size := capture.Size()
	log.Info("camera opened", "device", camCfg.DeviceID, "width", size.X, "height", size.Y)

	a.cameras = camera.NewManager(camCfg)
	a.cameras.OnConfigChange = a.capture.Reconfigure

	detCfg := a.config.detectorConfig()
	a.detector, err = detection.New(detCfg)
	if err != nil {
		log.Warn("detector disabled", "backend", detCfg.Backend, "model", detCfg.ModelPath, "error", err)
		a.detector = nil
		return nil
	}
	if a.detector != nil {
		log.Info("detector loaded", "backend", detCfg.Backend, "model", detCfg.ModelPath)
	}
	return nil
}

func (a *App) initDashboard() {
	opts := web.Options{
		Cameras:    a.cameras,
		Frames:     a.config.Dashboard.Frames,
		FrameEvery: 3,
	}
	if a.perception != nil && a.config.Preview {
		opts.Previews = a.perception
	}

	a.webServer = web.NewServer(a.config.Dashboard.Port, a.tracker, opts)
	a.tracker.SetPresenter(a.webServer)
	a.tracker.FireTimer().OnFire(a.webServer.OnFire)
}

// onFire writes each shot to telemetry.
func (a *App) onFire(ev fire.Event) {
	debug.Log("fire", "event", ev.ID, "manual", ev.Manual, "muzzle_x", ev.Muzzle.X, "muzzle_y", ev.Muzzle.Y)

	rec := telemetry.FireRecord{
		ID:      ev.ID.String(),
		AtMs:    ev.At.Sub(a.started).Milliseconds(),
		Pan:     ev.Pose.Pan,
		Tilt:    ev.Pose.Tilt,
		MuzzleX: ev.Muzzle.X,
		MuzzleY: ev.Muzzle.Y,
		Manual:  ev.Manual,
	}
	if err := a.recorder.RecordFire(rec); err != nil {
		log.Warn("fire telemetry write failed", "error", err)
	}
}

// setEpoch makes aim and fire records count from the same instant.
func (a *App) setEpoch(at time.Time) {
	a.started = at
	a.tracker.SetEpoch(at)
}

// Tracker returns the frame loop, for callers that drive it directly.
func (a *App) Tracker() *tracking.Tracker {
	return a.tracker
}

// Run starts perception, the dashboard and the frame loop.
// Blocks until ctx is cancelled and every goroutine has exited.
func (a *App) Run(ctx context.Context) error {
	a.setEpoch(time.Now())

	if a.perception != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.perception.Run(ctx, a.capture)
		}()
	}

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
		a.webServer.AddLog("info", "turret started")
		log.Info("dashboard listening", "port", a.config.Dashboard.Port)
	}

	a.tracker.Run(ctx)
	a.wg.Wait()
	return nil
}

// Shutdown releases the camera, the detector and the telemetry files.
// Call it after Run has returned.
func (a *App) Shutdown() {
	if err := a.recorder.Close(); err != nil {
		log.Warn("telemetry close failed", "error", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Warn("detector close failed", "error", err)
		}
	}
	if a.capture != nil {
		if err := a.capture.Close(); err != nil {
			log.Warn("camera close failed", "error", err)
		}
	}
	log.Info("turret stopped")
}
