package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	Data    DataConfig
	Logging LoggingConfig
	Window  WindowConfig
	Camera  CameraConfig
	Layout  LayoutConfig
	Overlay OverlayConfig
	Player  PlayerConfig
}

// Data source names.
const (
	SourceHTTP      = "http"
	SourceFixture   = "fixture"
	SourceSynthetic = "synthetic"
)

// DataConfig selects and tunes the data service.
type DataConfig struct {
	Source            string
	BaseURL           string
	Server            string
	FixturePath       string
	Seed              int64
	RequestsPerSecond float64
	BurstSize         int
	Timeout           time.Duration
}

// LoggingConfig controls event emission.
type LoggingConfig struct {
	Enabled    bool
	Level      string
	JSONFormat bool
}

// WindowConfig is the host window.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

// CameraConfig bounds zoom and times animated viewport changes.
type CameraConfig struct {
	MinZoom           float64       `yaml:"min_zoom"`
	MaxZoom           float64       `yaml:"max_zoom"`
	AnimationDuration time.Duration `yaml:"animation_duration"`
}

// LayoutConfig is the child grid used by the level renderers.
type LayoutConfig struct {
	GridSize int     `yaml:"grid_size"`
	Padding  float64 `yaml:"padding"`
}

// OverlayConfig tunes the entity overlay.
type OverlayConfig struct {
	LODHigh           float64       `yaml:"lod_high"`
	LODMedium         float64       `yaml:"lod_medium"`
	BatchThreshold    int           `yaml:"batch_threshold"`
	MotionDuration    time.Duration `yaml:"motion_duration"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	MaxStamps         int           `yaml:"max_stamps"`
	DetailConcurrency int           `yaml:"detail_concurrency"`
}

// PlayerConfig holds per-player view settings.
type PlayerConfig struct {
	// OwnerFilter restricts the overlay to one owner. Empty shows everyone.
	OwnerFilter string
}

// tuning is the shape of the optional YAML tuning file. Only the numbers
// that shape the view live there; connection settings stay in the env.
type tuning struct {
	Camera  *CameraConfig  `yaml:"camera"`
	Layout  *LayoutConfig  `yaml:"layout"`
	Overlay *OverlayConfig `yaml:"overlay"`
}

// Load reads .env (if present), the environment and the optional tuning
// file named by STARVIEW_TUNING_FILE, then validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	config := &Config{
		Data:    loadDataConfig(),
		Logging: loadLoggingConfig(),
		Window:  loadWindowConfig(),
		Camera:  loadCameraConfig(),
		Layout:  loadLayoutConfig(),
		Overlay: loadOverlayConfig(),
		Player:  PlayerConfig{OwnerFilter: GetEnv("STARVIEW_OWNER_FILTER", "")},
	}

	if path := GetEnv("STARVIEW_TUNING_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tuning file: %w", err)
		}
		if err := config.ApplyTuning(data); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:            SourceSynthetic,
			BaseURL:           "http://localhost:8080",
			Server:            "alpha",
			Seed:              1,
			RequestsPerSecond: 10,
			BurstSize:         20,
			Timeout:           10 * time.Second,
		},
		Logging: LoggingConfig{Enabled: true, Level: "info"},
		Window:  WindowConfig{Width: 1280, Height: 720, Title: "Starview"},
		Camera: CameraConfig{
			MinZoom:           0.1,
			MaxZoom:           4.0,
			AnimationDuration: 300 * time.Millisecond,
		},
		Layout: LayoutConfig{GridSize: 10, Padding: 40},
		Overlay: OverlayConfig{
			LODHigh:           1.0,
			LODMedium:         0.5,
			BatchThreshold:    50,
			MotionDuration:    500 * time.Millisecond,
			PollInterval:      5 * time.Second,
			MaxStamps:         64,
			DetailConcurrency: 8,
		},
	}
}

// ApplyTuning overlays the sections present in a YAML document.
func (c *Config) ApplyTuning(data []byte) error {
	t := tuning{Camera: &c.Camera, Layout: &c.Layout, Overlay: &c.Overlay}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse tuning file: %w", err)
	}
	return nil
}

func loadDataConfig() DataConfig {
	d := Default().Data
	seed, _ := strconv.ParseInt(GetEnv("STARVIEW_SEED", "1"), 10, 64)
	rps, _ := strconv.ParseFloat(GetEnv("STARVIEW_REQUESTS_PER_SECOND", "10"), 64)
	burst, _ := strconv.Atoi(GetEnv("STARVIEW_BURST_SIZE", "20"))
	timeout, _ := strconv.Atoi(GetEnv("STARVIEW_TIMEOUT_SECONDS", "10"))

	return DataConfig{
		Source:            GetEnv("STARVIEW_DATA_SOURCE", d.Source),
		BaseURL:           GetEnv("STARVIEW_API_URL", d.BaseURL),
		Server:            GetEnv("STARVIEW_SERVER", d.Server),
		FixturePath:       GetEnv("STARVIEW_FIXTURE", ""),
		Seed:              seed,
		RequestsPerSecond: rps,
		BurstSize:         burst,
		Timeout:           time.Duration(timeout) * time.Second,
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Enabled:    GetEnv("STARVIEW_TRACE", "true") == "true",
		Level:      GetEnv("LOG_LEVEL", "info"),
		JSONFormat: GetEnv("LOG_FORMAT", "text") == "json",
	}
}

func loadWindowConfig() WindowConfig {
	w, _ := strconv.Atoi(GetEnv("STARVIEW_WINDOW_WIDTH", "1280"))
	h, _ := strconv.Atoi(GetEnv("STARVIEW_WINDOW_HEIGHT", "720"))
	return WindowConfig{Width: w, Height: h, Title: GetEnv("STARVIEW_TITLE", "Starview")}
}

func loadCameraConfig() CameraConfig {
	c := Default().Camera
	c.MinZoom = getFloat("STARVIEW_MIN_ZOOM", c.MinZoom)
	c.MaxZoom = getFloat("STARVIEW_MAX_ZOOM", c.MaxZoom)
	return c
}

func loadLayoutConfig() LayoutConfig {
	l := Default().Layout
	l.GridSize = getInt("STARVIEW_GRID_SIZE", l.GridSize)
	l.Padding = getFloat("STARVIEW_GRID_PADDING", l.Padding)
	return l
}

func loadOverlayConfig() OverlayConfig {
	o := Default().Overlay
	o.BatchThreshold = getInt("STARVIEW_BATCH_THRESHOLD", o.BatchThreshold)
	if ms := getInt("STARVIEW_POLL_INTERVAL_MS", 0); ms > 0 {
		o.PollInterval = time.Duration(ms) * time.Millisecond
	}
	return o
}

// Validate checks the values the view core cannot work with.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return fmt.Errorf("STARVIEW_API_URL is required for the http source")
		}
	case SourceFixture:
		if c.Data.FixturePath == "" {
			return fmt.Errorf("STARVIEW_FIXTURE is required for the fixture source")
		}
	case SourceSynthetic:
	default:
		return fmt.Errorf("unknown data source %q", c.Data.Source)
	}

	if c.Data.Server == "" {
		return fmt.Errorf("STARVIEW_SERVER is required")
	}
	if c.Camera.MinZoom <= 0 || c.Camera.MaxZoom < c.Camera.MinZoom {
		return fmt.Errorf("zoom range [%v, %v] is invalid", c.Camera.MinZoom, c.Camera.MaxZoom)
	}
	if c.Layout.GridSize < 2 {
		return fmt.Errorf("grid size must be at least 2, got %d", c.Layout.GridSize)
	}
	if c.Overlay.LODMedium >= c.Overlay.LODHigh {
		return fmt.Errorf("lod_medium (%v) must be below lod_high (%v)", c.Overlay.LODMedium, c.Overlay.LODHigh)
	}
	if c.Overlay.BatchThreshold < 0 {
		return fmt.Errorf("batch threshold must not be negative")
	}
	if c.Overlay.PollInterval <= 0 || c.Overlay.MotionDuration <= 0 {
		return fmt.Errorf("poll interval and motion duration must be positive")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d is invalid", c.Window.Width, c.Window.Height)
	}
	return nil
}

// GetEnv returns the value of key, or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}
