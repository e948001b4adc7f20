package datasets

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds every option recognized by a FrameDataset. Fields left zero
// get the documented defaults applied by Validate; malformed values fail fast
// at construction rather than at first use.
type Config struct {
	// RasterSize is the rendered image size in pixels (width, height).
	RasterSize [2]int

	// PixelSize is the world extent of one pixel in meters (x, y).
	PixelSize [2]float64

	// EgoCenter places the tracked agent inside the raster as a fraction of
	// RasterSize along each axis, e.g. {0.25, 0.5}.
	EgoCenter [2]float64

	// HistoryNumFrames is how many past steps each example carries.
	HistoryNumFrames int

	// HistoryStepSize is the frame stride between history steps.
	HistoryStepSize int

	// FutureNumFrames is how many future steps each example carries.
	FutureNumFrames int

	// FutureStepSize is the frame stride between future steps.
	FutureStepSize int

	// FilterAgentsThreshold is the minimum label probability for a non-ego
	// agent observation to be considered valid.
	FilterAgentsThreshold float64

	// RouteFrenetTargets toggles rewriting future targets into route-relative
	// Frenet coordinates. Nil means enabled.
	RouteFrenetTargets *bool
}

// Validate applies defaults to zero fields and rejects malformed values.
func (c *Config) Validate() error {
	if c.RasterSize == [2]int{} {
		c.RasterSize = [2]int{224, 224}
	}
	if c.PixelSize == [2]float64{} {
		c.PixelSize = [2]float64{0.5, 0.5}
	}
	if c.EgoCenter == [2]float64{} {
		c.EgoCenter = [2]float64{0.25, 0.5}
	}
	if c.HistoryStepSize == 0 {
		c.HistoryStepSize = 1
	}
	if c.FutureStepSize == 0 {
		c.FutureStepSize = 1
	}

	if c.RasterSize[0] <= 0 || c.RasterSize[1] <= 0 {
		return fmt.Errorf("raster_size must be positive, got %v", c.RasterSize)
	}
	if c.PixelSize[0] <= 0 || c.PixelSize[1] <= 0 {
		return fmt.Errorf("pixel_size must be positive, got %v", c.PixelSize)
	}
	if c.EgoCenter[0] < 0 || c.EgoCenter[0] > 1 || c.EgoCenter[1] < 0 || c.EgoCenter[1] > 1 {
		return fmt.Errorf("ego_center must be within [0, 1], got %v", c.EgoCenter)
	}
	if c.HistoryNumFrames < 0 {
		return fmt.Errorf("history_num_frames must be >= 0, got %d", c.HistoryNumFrames)
	}
	if c.FutureNumFrames < 0 {
		return fmt.Errorf("future_num_frames must be >= 0, got %d", c.FutureNumFrames)
	}
	if c.HistoryStepSize < 1 {
		return fmt.Errorf("history_step_size must be >= 1, got %d", c.HistoryStepSize)
	}
	if c.FutureStepSize < 1 {
		return fmt.Errorf("future_step_size must be >= 1, got %d", c.FutureStepSize)
	}
	if c.FilterAgentsThreshold < 0 || c.FilterAgentsThreshold > 1 {
		return fmt.Errorf("filter_agents_threshold must be within [0, 1], got %v", c.FilterAgentsThreshold)
	}
	return nil
}

// frenetEnabled reports whether the Frenet target stage runs. Enabled unless
// explicitly switched off.
func (c *Config) frenetEnabled() bool {
	return c.RouteFrenetTargets == nil || *c.RouteFrenetTargets
}

// fileConfig mirrors Config with TOML field names.
type fileConfig struct {
	RasterSize            []int     `toml:"raster_size"`
	PixelSize             []float64 `toml:"pixel_size"`
	EgoCenter             []float64 `toml:"ego_center"`
	HistoryNumFrames      int       `toml:"history_num_frames"`
	HistoryStepSize       int       `toml:"history_step_size"`
	FutureNumFrames       int       `toml:"future_num_frames"`
	FutureStepSize        int       `toml:"future_step_size"`
	FilterAgentsThreshold float64   `toml:"filter_agents_threshold"`
	RouteFrenetTargets    *bool     `toml:"route_frenet_targets"`
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := pair(fc.RasterSize, &cfg.RasterSize, "raster_size"); err != nil {
		return cfg, err
	}
	if err := pair(fc.PixelSize, &cfg.PixelSize, "pixel_size"); err != nil {
		return cfg, err
	}
	if err := pair(fc.EgoCenter, &cfg.EgoCenter, "ego_center"); err != nil {
		return cfg, err
	}
	cfg.HistoryNumFrames = fc.HistoryNumFrames
	cfg.HistoryStepSize = fc.HistoryStepSize
	cfg.FutureNumFrames = fc.FutureNumFrames
	cfg.FutureStepSize = fc.FutureStepSize
	cfg.FilterAgentsThreshold = fc.FilterAgentsThreshold
	cfg.RouteFrenetTargets = fc.RouteFrenetTargets
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// pair copies a length-2 TOML array into a fixed-size field. An absent array
// leaves the field zero so Validate applies the default.
func pair[T int | float64](src []T, dst *[2]T, name string) error {
	switch len(src) {
	case 0:
		return nil
	case 2:
		dst[0], dst[1] = src[0], src[1]
		return nil
	default:
		return fmt.Errorf("%s must have exactly 2 elements, got %d", name, len(src))
	}
}
