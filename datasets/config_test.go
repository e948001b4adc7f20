package datasets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate on zero config failed: %v", err)
	}
	if cfg.RasterSize != [2]int{224, 224} {
		t.Fatalf("default raster size = %v", cfg.RasterSize)
	}
	if cfg.PixelSize != [2]float64{0.5, 0.5} {
		t.Fatalf("default pixel size = %v", cfg.PixelSize)
	}
	if cfg.EgoCenter != [2]float64{0.25, 0.5} {
		t.Fatalf("default ego center = %v", cfg.EgoCenter)
	}
	if cfg.HistoryStepSize != 1 || cfg.FutureStepSize != 1 {
		t.Fatalf("default step sizes = %d, %d", cfg.HistoryStepSize, cfg.FutureStepSize)
	}
	if !cfg.frenetEnabled() {
		t.Fatalf("frenet conversion disabled by default")
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"negative raster", func(c *Config) { c.RasterSize = [2]int{-1, 10} }},
		{"negative pixel", func(c *Config) { c.PixelSize = [2]float64{-0.5, 0.5} }},
		{"ego center above one", func(c *Config) { c.EgoCenter = [2]float64{1.5, 0.5} }},
		{"negative history", func(c *Config) { c.HistoryNumFrames = -1 }},
		{"negative future", func(c *Config) { c.FutureNumFrames = -2 }},
		{"negative history stride", func(c *Config) { c.HistoryStepSize = -1 }},
		{"negative future stride", func(c *Config) { c.FutureStepSize = -3 }},
		{"threshold above one", func(c *Config) { c.FilterAgentsThreshold = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate accepted %s", tc.name)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
raster_size = [128, 96]
pixel_size = [0.25, 0.25]
ego_center = [0.25, 0.5]
history_num_frames = 10
history_step_size = 1
future_num_frames = 50
future_step_size = 1
filter_agents_threshold = 0.5
route_frenet_targets = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RasterSize != [2]int{128, 96} {
		t.Fatalf("raster size = %v", cfg.RasterSize)
	}
	if cfg.FutureNumFrames != 50 || cfg.HistoryNumFrames != 10 {
		t.Fatalf("horizons = %d, %d", cfg.HistoryNumFrames, cfg.FutureNumFrames)
	}
	if cfg.FilterAgentsThreshold != 0.5 {
		t.Fatalf("threshold = %v", cfg.FilterAgentsThreshold)
	}
	if cfg.frenetEnabled() {
		t.Fatalf("route_frenet_targets = false not honored")
	}
}

func TestLoadConfigBadPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("raster_size = [1, 2, 3]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for 3-element raster_size")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
