package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turret.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Canvas.Width)
	assert.Equal(t, 1000, cfg.Canvas.Height)
	assert.Equal(t, 500.0, cfg.Canvas.FOV)

	assert.Equal(t, SegmentConfig{Length: 200, Width: 20, Height: 20}, cfg.Linkage.PanArm)
	assert.Equal(t, SegmentConfig{Length: 120, Width: 15, Height: 15}, cfg.Linkage.TiltArm)

	assert.Equal(t, 33*time.Millisecond, cfg.Tracking.TickInterval)
	assert.Equal(t, 20.0, cfg.Tracking.Deadband)
	assert.Equal(t, 2.0, cfg.Tracking.TrackStep)
	assert.Equal(t, 5.0, cfg.Tracking.ManualStep)
	assert.Equal(t, 150*time.Millisecond, cfg.Tracking.FireDuration)

	assert.Equal(t, "yolo", cfg.Detector.Backend)
	assert.Equal(t, []string{"drone"}, cfg.Detector.ClassNames)
	assert.Equal(t, 0, cfg.Detector.TargetClass)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlayKeepsUnsetKeys(t *testing.T) {
	path := writeFile(t, `
tracking:
  deadband: 35
  fire_duration: 300ms
detector:
  backend: none
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 35.0, cfg.Tracking.Deadband)
	assert.Equal(t, 300*time.Millisecond, cfg.Tracking.FireDuration)
	assert.Equal(t, "none", cfg.Detector.Backend)

	// untouched keys keep their defaults
	assert.Equal(t, 2.0, cfg.Tracking.TrackStep)
	assert.Equal(t, 33*time.Millisecond, cfg.Tracking.TickInterval)
	assert.Equal(t, "models/drone.onnx", cfg.Detector.ModelPath)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "tracking: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvCamera, "2")
	t.Setenv(EnvModel, "/opt/models/quad.onnx")
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvTelemetryDir, "/tmp/aim")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, "/opt/models/quad.onnx", cfg.Detector.ModelPath)
	assert.Equal(t, 9090, cfg.Dashboard.Port)
	assert.Equal(t, "/tmp/aim", cfg.Telemetry.Dir)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/turret.yaml")

	assert.Equal(t, "local.yaml", Path("local.yaml"))
	assert.Equal(t, "/etc/turret.yaml", Path(""))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Canvas.FOV = 0
	cfg.Tracking.TrackStep = -1
	cfg.Dashboard.Port = 70000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fov")
	assert.Contains(t, err.Error(), "track_step")
	assert.Contains(t, err.Error(), "port")
}

func TestInitAndCfg(t *testing.T) {
	t.Cleanup(func() { global = nil })

	assert.Panics(t, func() { Cfg() })

	require.NoError(t, Init(writeFile(t, "dashboard:\n  port: 8282\n")))
	assert.Equal(t, 8282, Cfg().Dashboard.Port)
}
