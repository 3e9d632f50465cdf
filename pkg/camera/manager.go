package camera

import (
	"fmt"
	"strings"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to camera)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with the given config.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates cfg, stores it and applies it through OnConfigChange.
// The stored config is left unchanged if the callback fails.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	m.mu.RLock()
	callback := m.OnConfigChange
	m.mu.RUnlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// ApplyPreset switches to a named preset, keeping the device and mirror settings.
func (m *Manager) ApplyPreset(name string) error {
	preset := GetPreset(name)
	if preset == nil {
		return fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(PresetNames(), ", "))
	}

	current := m.GetConfig()
	preset.DeviceID = current.DeviceID
	preset.Mirror = current.Mirror
	return m.SetConfig(*preset)
}
