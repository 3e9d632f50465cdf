package detection

import "fmt"

// New builds the backend named by cfg.Backend. "none" returns a nil
// Detector and no error; the tracker then stays in search mode.
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case "yolo", "":
		return NewYOLO(cfg)
	case "yunet":
		return NewYuNet(cfg)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("detection: unknown backend %q", cfg.Backend)
	}
}
