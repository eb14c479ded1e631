// Package config holds the viewer's startup settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type Camera struct {
	FOV              float32 `yaml:"fov"`
	Near             float32 `yaml:"near"`
	Far              float32 `yaml:"far"`
	SpeedHorizontal  float32 `yaml:"speed_horizontal"`
	SpeedVertical    float32 `yaml:"speed_vertical"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	EyeHeight        float32 `yaml:"eye_height"`
	ForwardNudge     float32 `yaml:"forward_nudge"`
}

type Loop struct {
	UPS    int `yaml:"ups"`
	MaxFPS int `yaml:"max_fps"`
}

type Assets struct {
	Dir   string `yaml:"dir"`
	CellW int    `yaml:"cell_width"`
	CellH int    `yaml:"cell_height"`
}

type Config struct {
	Window   Window `yaml:"window"`
	Camera   Camera `yaml:"camera"`
	Loop     Loop   `yaml:"loop"`
	Assets   Assets `yaml:"assets"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Window: Window{Width: 600, Height: 480, Title: "Loading"},
		Camera: Camera{
			FOV:              70,
			Near:             0.1,
			Far:              1000,
			SpeedHorizontal:  8,
			SpeedVertical:    4,
			MouseSensitivity: 1,
			EyeHeight:        1.62,
			ForwardNudge:     0.1,
		},
		Loop:     Loop{UPS: 120, MaxFPS: 10000},
		Assets:   Assets{Dir: "./assets", CellW: 16, CellH: 16},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default; a missing file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Loop.UPS <= 0 || c.Loop.MaxFPS <= 0:
		return fmt.Errorf("ups and max_fps must be positive")
	case c.Assets.CellW <= 0 || c.Assets.CellH <= 0:
		return fmt.Errorf("atlas cell %dx%d must be positive", c.Assets.CellW, c.Assets.CellH)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("clip range %g..%g is invalid", c.Camera.Near, c.Camera.Far)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("fov %g must be between 0 and 180", c.Camera.FOV)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
