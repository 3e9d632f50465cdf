package web

import (
	"context"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// Present implements tracking.Presenter. It runs on the tick goroutine, so
// every broadcast is non-blocking and rasterization is handed off.
func (s *Server) Present(frame render.Frame, st tracking.Status) {
	norm := frame.Normalized()

	s.sceneMu.Lock()
	s.scene = norm
	s.sceneMu.Unlock()

	if s.statusHub.ClientCount() > 0 {
		if err := s.statusHub.BroadcastJSON(st); err != nil {
			log.Warn("status encode failed", "error", err)
		}
	}
	if s.sceneHub.ClientCount() > 0 {
		if err := s.sceneHub.BroadcastJSON(norm); err != nil {
			log.Warn("scene encode failed", "error", err)
		}
	}

	if s.frames != nil && st.Tick%s.frameEvery == 0 && s.framesHub.ClientCount() > 0 {
		select {
		case s.frames <- frame:
		default:
			// Rasterizer still busy with the previous frame
		}
	}

	if s.previews != nil && st.ObservationSeq != s.lastSeq {
		s.lastSeq = st.ObservationSeq
		if s.videoHub.ClientCount() > 0 {
			if img := s.previews.LastPreview(); img != nil {
				s.videoHub.BroadcastBinary(img)
			}
		}
	}
}

func (s *Server) rasterLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.frames:
			png, err := s.raster.EncodePNG(f)
			if err != nil {
				log.Warn("frame encode failed", "error", err)
				continue
			}
			s.framesHub.BroadcastBinary(png)
		}
	}
}
