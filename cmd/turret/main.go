// Turret - simulated pan/tilt turret that tracks a detected target
// Renders the turret scene every tick and serves it on a web dashboard
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-turret/internal/config"
	"github.com/teslashibe/go-turret/pkg/turret"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	app, err := turret.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags loads and validates the config file with environment variables
// applied, then puts command line flags on top.
func parseFlags() (turret.Config, error) {
	configPath := flag.String("config", "", "YAML config file (overrides TURRET_CONFIG env var)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every detection and aim decision")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	port := flag.Int("port", 0, "Dashboard port (overrides TURRET_PORT env var)")
	cameraID := flag.Int("camera", -1, "Camera device index (overrides TURRET_CAMERA env var)")
	model := flag.String("model", "", "Detector model path (overrides TURRET_MODEL env var)")
	backend := flag.String("backend", "", "Detector backend: yolo, yunet, none")
	noCamera := flag.Bool("no-camera", false, "Run without capture (manual control only)")
	noDashboard := flag.Bool("no-dashboard", false, "Disable the web dashboard")
	telemetryDir := flag.String("telemetry-dir", "", "Write aim and fire CSV telemetry to this directory")
	preview := flag.Bool("preview", false, "Stream annotated camera frames on /ws/video")
	flag.Parse()

	if err := config.Init(config.Path(*configPath)); err != nil {
		return turret.Config{}, err
	}

	cfg := turret.Config{
		Config:        *config.Cfg(),
		Debug:         *debug,
		DebugTracking: *debugTracking,
		Preview:       *preview,
		NoCamera:      *noCamera,
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *port != 0 {
		cfg.Dashboard.Port = *port
	}
	if *cameraID >= 0 {
		cfg.Camera.Device = *cameraID
	}
	if *model != "" {
		cfg.Detector.ModelPath = *model
	}
	if *backend != "" {
		cfg.Detector.Backend = *backend
	}
	if *noDashboard {
		cfg.Dashboard.Enabled = false
	}
	if *telemetryDir != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Dir = *telemetryDir
	}
	return cfg, nil
}
