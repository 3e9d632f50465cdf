package camera

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetLowLatency = "lowlatency"
	Preset720p       = "720p"
	Preset1080p      = "1080p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetLowLatency: LowLatencyConfig(),
		Preset720p:       HD720Config(),
		Preset1080p:      HD1080Config(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLowLatency,
		Preset720p,
		Preset1080p,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowLatencyConfig trades resolution for detector throughput.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Quality = 70
	return cfg
}

// HD720Config returns 720p HD configuration.
// Good balance of quality and performance.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1080p configuration.
// Slow on CPU inference; the deadband is in pixels so aim gets finer.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Quality = 85
	return cfg
}
