package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/hub"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// handleStatus returns the latest tick snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.turret.Status())
}

// handleScene returns the latest draw list in normalized coordinates
func (s *Server) handleScene(c *fiber.Ctx) error {
	s.sceneMu.RLock()
	defer s.sceneMu.RUnlock()
	return c.JSON(s.scene)
}

// handleGetTuning returns current tuning parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.turret.GetTuningParams())
}

// handleSetTuning applies the non-zero fields of the body
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}

	s.turret.SetTuningParams(params)
	s.AddLog("info", "tuning updated")
	return c.JSON(s.turret.GetTuningParams())
}

// handleManual jogs the turret one manual step
func (s *Server) handleManual(c *fiber.Ctx) error {
	dir, err := tracking.ParseDirection(c.Params("direction"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return s.submit(c, tracking.Move(dir))
}

// handleKey maps a browser key name to a jog or fire
func (s *Server) handleKey(c *fiber.Ctx) error {
	in, err := tracking.ParseKey(c.Params("key"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return s.submit(c, in)
}

// handleFire triggers the fire effect on the next tick
func (s *Server) handleFire(c *fiber.Ctx) error {
	return s.submit(c, tracking.FireInput())
}

func (s *Server) submit(c *fiber.Ctx, in tracking.Input) error {
	var ok bool
	if in.Kind == tracking.InputFire {
		ok = s.turret.Fire()
	} else {
		ok = s.turret.Manual(in.Direction)
	}
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "input queue full",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": in.String()})
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleStreams reports client counts and dropped broadcasts per stream
func (s *Server) handleStreams(c *fiber.Ctx) error {
	stats := make(map[string]StreamStats, 5)
	for name, h := range map[string]*hub.Hub{
		"status": s.statusHub,
		"scene":  s.sceneHub,
		"frames": s.framesHub,
		"video":  s.videoHub,
		"logs":   s.logHub,
	} {
		stats[name] = StreamStats{Clients: h.ClientCount(), Dropped: h.Dropped()}
	}
	return c.JSON(stats)
}

// handleGetCamera returns the current camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(s.cameras.GetConfig())
}

// handleSetCamera replaces the camera configuration. Omitted fields keep
// their current values.
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}

	cfg := s.cameras.GetConfig()
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.cameras.SetConfig(cfg); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	s.AddLog("info", "camera config updated")
	return c.JSON(s.cameras.GetConfig())
}

// handleCameraPresets lists preset names
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleCameraPreset switches to a named preset
func (s *Server) handleCameraPreset(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}
	name := c.Params("name")
	if camera.GetPreset(name) == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown preset " + name})
	}
	if err := s.cameras.ApplyPreset(name); err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, camera.ErrCaptureClosed) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	s.AddLog("info", "camera preset "+name)
	return c.JSON(s.cameras.GetConfig())
}

// handleStatusWS streams a status snapshot per tick, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.turret.Status())
	hub.NewClient(s.statusHub, c).Run()
}

// handleSceneWS streams normalized draw lists
func (s *Server) handleSceneWS(c *websocket.Conn) {
	s.sceneMu.RLock()
	scene := s.scene
	s.sceneMu.RUnlock()

	c.WriteJSON(scene)
	hub.NewClient(s.sceneHub, c).Run()
}

// handleFramesWS streams rasterized PNG frames
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.framesHub, c).Run()
}

// handleVideoWS streams annotated camera JPEGs
func (s *Server) handleVideoWS(c *websocket.Conn) {
	hub.NewClient(s.videoHub, c).Run()
}

// handleLogsWS sends the log backlog, then live entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}
