package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// GridTuning is the root tuning document for the grid, the predictor and
// the binary's runtime loop. Every field is optional; the Get* methods
// supply the defaults.
type GridTuning struct {
	// Map bounds in map cells
	MapMinX *int `json:"map_min_x,omitempty" yaml:"map_min_x,omitempty"`
	MapMinY *int `json:"map_min_y,omitempty" yaml:"map_min_y,omitempty"`
	MapMaxX *int `json:"map_max_x,omitempty" yaml:"map_max_x,omitempty"`
	MapMaxY *int `json:"map_max_y,omitempty" yaml:"map_max_y,omitempty"`

	CellWidth *int `json:"cell_width,omitempty" yaml:"cell_width,omitempty"`

	// Decay
	StaticTimeoutTicks    *int64 `json:"static_timeout_ticks,omitempty" yaml:"static_timeout_ticks,omitempty"`
	TransientTimeoutTicks *int64 `json:"transient_timeout_ticks,omitempty" yaml:"transient_timeout_ticks,omitempty"`

	// Worker cadence
	RebuildIntervalTicks *int    `json:"rebuild_interval_ticks,omitempty" yaml:"rebuild_interval_ticks,omitempty"`
	FlushIntervalTicks   *int    `json:"flush_interval_ticks,omitempty" yaml:"flush_interval_ticks,omitempty"`
	BoundsQueryTimeout   *string `json:"bounds_query_timeout,omitempty" yaml:"bounds_query_timeout,omitempty"` // duration string like "5s"
	BoundsQueueSize      *int    `json:"bounds_queue_size,omitempty" yaml:"bounds_queue_size,omitempty"`

	// Predictor
	MinimumLethality *float64 `json:"minimum_lethality,omitempty" yaml:"minimum_lethality,omitempty"`
	LethalityStep    *float64 `json:"lethality_step,omitempty" yaml:"lethality_step,omitempty"`

	// Runtime
	TickRate *string `json:"tick_rate,omitempty" yaml:"tick_rate,omitempty"` // duration string like "40ms"
}

func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyGridTuning returns a GridTuning with every field unset.
func EmptyGridTuning() *GridTuning {
	return &GridTuning{}
}

// LoadTuningConfig loads a GridTuning from a .json, .yaml or .yml file.
// Omitted fields keep their defaults, so partial files are safe.
func LoadTuningConfig(path string) (*GridTuning, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGridTuning()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. It panics if the file cannot be found.
func MustLoadDefaultConfig() *GridTuning {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks the set fields for consistency.
func (c *GridTuning) Validate() error {
	if c.CellWidth != nil && *c.CellWidth <= 0 {
		return fmt.Errorf("cell_width must be positive, got %d", *c.CellWidth)
	}
	if c.GetMapMaxX() < c.GetMapMinX() || c.GetMapMaxY() < c.GetMapMinY() {
		return fmt.Errorf("map max (%d,%d) is below map min (%d,%d)",
			c.GetMapMaxX(), c.GetMapMaxY(), c.GetMapMinX(), c.GetMapMinY())
	}
	if c.StaticTimeoutTicks != nil && *c.StaticTimeoutTicks <= 0 {
		return fmt.Errorf("static_timeout_ticks must be positive, got %d", *c.StaticTimeoutTicks)
	}
	if c.TransientTimeoutTicks != nil && *c.TransientTimeoutTicks <= 0 {
		return fmt.Errorf("transient_timeout_ticks must be positive, got %d", *c.TransientTimeoutTicks)
	}
	if c.RebuildIntervalTicks != nil && *c.RebuildIntervalTicks <= 0 {
		return fmt.Errorf("rebuild_interval_ticks must be positive, got %d", *c.RebuildIntervalTicks)
	}
	if c.BoundsQueueSize != nil && *c.BoundsQueueSize <= 0 {
		return fmt.Errorf("bounds_queue_size must be positive, got %d", *c.BoundsQueueSize)
	}
	if c.LethalityStep != nil && *c.LethalityStep <= 0 {
		return fmt.Errorf("lethality_step must be positive, got %f", *c.LethalityStep)
	}
	if c.MinimumLethality != nil && *c.MinimumLethality < 0 {
		return fmt.Errorf("minimum_lethality must be non-negative, got %f", *c.MinimumLethality)
	}
	for name, v := range map[string]*string{"bounds_query_timeout": c.BoundsQueryTimeout, "tick_rate": c.TickRate} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// GetMapMinX returns map_min_x or 0.
func (c *GridTuning) GetMapMinX() int { return intOr(c.MapMinX, 0) }

// GetMapMinY returns map_min_y or 0.
func (c *GridTuning) GetMapMinY() int { return intOr(c.MapMinY, 0) }

// GetMapMaxX returns map_max_x or 128.
func (c *GridTuning) GetMapMaxX() int { return intOr(c.MapMaxX, 128) }

// GetMapMaxY returns map_max_y or 128.
func (c *GridTuning) GetMapMaxY() int { return intOr(c.MapMaxY, 128) }

// GetCellWidth returns cell_width or the grid default.
func (c *GridTuning) GetCellWidth() int { return intOr(c.CellWidth, scouting.DefaultCellWidth) }

// GetStaticTimeoutTicks returns static_timeout_ticks or the default.
func (c *GridTuning) GetStaticTimeoutTicks() int64 {
	if c.StaticTimeoutTicks == nil {
		return scouting.DefaultStaticTimeoutTicks
	}
	return *c.StaticTimeoutTicks
}

// GetTransientTimeoutTicks returns transient_timeout_ticks or the default.
func (c *GridTuning) GetTransientTimeoutTicks() int64 {
	if c.TransientTimeoutTicks == nil {
		return scouting.DefaultTransientTimeoutTicks
	}
	return *c.TransientTimeoutTicks
}

// GetRebuildIntervalTicks returns rebuild_interval_ticks or the default.
func (c *GridTuning) GetRebuildIntervalTicks() int {
	return intOr(c.RebuildIntervalTicks, scouting.DefaultRebuildIntervalTicks)
}

// GetFlushIntervalTicks returns flush_interval_ticks or the default. Zero
// or negative values disable flushing.
func (c *GridTuning) GetFlushIntervalTicks() int {
	return intOr(c.FlushIntervalTicks, scouting.DefaultFlushIntervalTicks)
}

// GetBoundsQueueSize returns bounds_queue_size or 64.
func (c *GridTuning) GetBoundsQueueSize() int { return intOr(c.BoundsQueueSize, 64) }

// GetBoundsQueryTimeout parses bounds_query_timeout, falling back to the
// grid default.
func (c *GridTuning) GetBoundsQueryTimeout() time.Duration {
	return durationOr(c.BoundsQueryTimeout, scouting.DefaultBoundsQueryTimeout)
}

// GetTickRate parses tick_rate, falling back to 40ms (25 ticks/s).
func (c *GridTuning) GetTickRate() time.Duration {
	return durationOr(c.TickRate, 40*time.Millisecond)
}

// GetMinimumLethality returns minimum_lethality or the predictor default.
func (c *GridTuning) GetMinimumLethality() float64 {
	if c.MinimumLethality == nil {
		return attack.DefaultMinimumLethality
	}
	return *c.MinimumLethality
}

// GetLethalityStep returns lethality_step or the predictor default.
func (c *GridTuning) GetLethalityStep() float64 {
	if c.LethalityStep == nil {
		return attack.DefaultLethalityStep
	}
	return *c.LethalityStep
}

// ScoutingConfig maps the tuning onto a grid config. Bounds, listeners
// and the logger are left for the caller to wire.
func (c *GridTuning) ScoutingConfig() scouting.Config {
	flush := c.GetFlushIntervalTicks()
	if flush <= 0 {
		flush = -1
	}
	return scouting.Config{
		MapMin:                scouting.Position{X: c.GetMapMinX(), Y: c.GetMapMinY()},
		MapMax:                scouting.Position{X: c.GetMapMaxX(), Y: c.GetMapMaxY()},
		CellWidth:             c.GetCellWidth(),
		StaticTimeoutTicks:    c.GetStaticTimeoutTicks(),
		TransientTimeoutTicks: c.GetTransientTimeoutTicks(),
		RebuildIntervalTicks:  c.GetRebuildIntervalTicks(),
		FlushIntervalTicks:    flush,
		BoundsQueryTimeout:    c.GetBoundsQueryTimeout(),
	}
}

// PredictorConfig maps the tuning onto a predictor config.
func (c *GridTuning) PredictorConfig() attack.PredictorConfig {
	return attack.PredictorConfig{
		MinimumLethality: c.GetMinimumLethality(),
		LethalityStep:    c.GetLethalityStep(),
	}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func durationOr(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def
	}
	return d
}
