// Package web provides a real-time dashboard for the turret: status, the
// rendered scene, annotated camera preview, logs and manual control.
package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/fire"
	"github.com/teslashibe/go-turret/pkg/hub"
	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// Turret is the control surface the dashboard drives.
// *tracking.Tracker implements it.
type Turret interface {
	Status() tracking.Status
	Manual(d tracking.Direction) bool
	Fire() bool
	GetTuningParams() tracking.TuningParams
	SetTuningParams(params tracking.TuningParams)
}

// PreviewSource supplies the latest annotated camera frame.
type PreviewSource interface {
	LastPreview() []byte
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, fire, aim, error
	Message string `json:"message"`
}

const maxLogs = 500

// StreamStats describes one websocket stream for /api/streams.
type StreamStats struct {
	Clients int    `json:"clients"`
	Dropped uint64 `json:"dropped"` // broadcasts discarded while the hub was behind
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	port int

	turret   Turret
	cameras  *camera.Manager
	previews PreviewSource

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Latest scene, normalized
	scene   render.Frame
	sceneMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	sceneHub  *hub.Hub
	framesHub *hub.Hub
	videoHub  *hub.Hub
	logHub    *hub.Hub

	// PNG rasterization runs off the tick goroutine
	raster     *render.Rasterizer
	frames     chan render.Frame
	frameEvery uint64
	lastSeq    uint64
}

// Options configures optional dashboard features.
type Options struct {
	Cameras    *camera.Manager // nil disables /api/camera
	Previews   PreviewSource   // nil disables /ws/video
	Frames     bool            // rasterize the scene to PNG for /ws/frames
	FrameEvery int             // rasterize every Nth tick
}

// NewServer creates a new web dashboard server
func NewServer(port int, turret Turret, opts Options) *Server {
	s := &Server{
		port:      port,
		turret:    turret,
		cameras:   opts.Cameras,
		previews:  opts.Previews,
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status"),
		sceneHub:  hub.New("scene"),
		framesHub: hub.New("frames"),
		videoHub:  hub.New("video"),
		logHub:    hub.New("logs"),
	}
	if opts.Frames {
		s.raster = render.NewRasterizer(render.White)
		s.frames = make(chan render.Frame, 1)
		s.frameEvery = uint64(max(opts.FrameEvery, 1))
	}

	app := fiber.New(fiber.Config{
		AppName:               "Turret Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/scene", s.handleScene)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/manual/:direction", s.handleManual)
	api.Post("/key/:key", s.handleKey)
	api.Post("/fire", s.handleFire)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/streams", s.handleStreams)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Get("/camera/presets", s.handleCameraPresets)
	api.Post("/camera/preset/:name", s.handleCameraPreset)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/scene", websocket.New(s.handleSceneWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))
	app.Get("/ws/video", websocket.New(s.handleVideoWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// App exposes the fiber app (tests use app.Test).
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("web dashboard", "url", fmt.Sprintf("http://localhost:%d", s.port))

	for _, h := range []*hub.Hub{s.statusHub, s.sceneHub, s.framesHub, s.videoHub, s.logHub} {
		go h.Run(ctx)
	}
	if s.frames != nil {
		go s.rasterLoop(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("web shutdown", "error", err)
		}
	}()

	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05.000"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// OnFire is a fire.Handler that logs each shot to the dashboard.
func (s *Server) OnFire(ev fire.Event) {
	kind := "auto"
	if ev.Manual {
		kind = "manual"
	}
	s.AddLog("fire", fmt.Sprintf("%s fire at %s (%s)", kind, ev.Pose.String(), ev.ID))
}
