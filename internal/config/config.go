package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/effects"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// MaxConfigFileBytes bounds the size of a config file.
const MaxConfigFileBytes = 1 << 20

// MaxCaptureDimension bounds capture.width and capture.height.
const MaxCaptureDimension = 8192

// ParamConfig overrides one field of the parameter profile. Unset keys keep
// the profile default.
type ParamConfig struct {
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Step    *float64 `yaml:"step,omitempty"`
	Initial *float64 `yaml:"initial,omitempty"`
}

// CameraConfig holds the handheld camera settings.
type CameraConfig struct {
	Profile        string                 `yaml:"profile"`          // "fov" or "focal"
	Mode           string                 `yaml:"mode"`             // "physical" or "postprocessing"
	SensorHeightMm float64                `yaml:"sensor_height_mm"` // default 24 (full frame)
	Params         map[string]ParamConfig `yaml:"params"`           // keyed by field name, e.g. "zoom"
}

// CaptureConfig holds the photo capture settings.
type CaptureConfig struct {
	GalleryCapacity int      `yaml:"gallery_capacity"` // default 10
	Feedback        string   `yaml:"feedback"`         // "always" or "on_store"
	Width           int      `yaml:"width"`            // frame buffer width (px), default 1920, max 8192
	Height          int      `yaml:"height"`           // frame buffer height (px), default 1080, max 8192
	PrintOffset     *float64 `yaml:"print_offset"`     // printed photo distance, default 0.5, 0 allowed
	OnDemand        *bool    `yaml:"on_demand"`        // render on capture, default true
	TraySize        int      `yaml:"tray_size"`        // printed photos kept, default 10
}

// ButtonsConfig assigns BCM pins to the controls. 0 = not fitted.
type ButtonsConfig struct {
	Next      int `yaml:"next"`
	Previous  int `yaml:"previous"`
	Increment int `yaml:"increment"`
	Decrement int `yaml:"decrement"`
	Shoot     int `yaml:"shoot"`
	Display   int `yaml:"display"`
}

// ControlsConfig holds the physical control settings.
type ControlsConfig struct {
	RepeatDelayMs int           `yaml:"repeat_delay_ms"` // hold time before continuous adjustment
	Buttons       ButtonsConfig `yaml:"buttons"`
}

// ShutterConfig wires an external camera's remote port. ShutterPin 0 disables it.
type ShutterConfig struct {
	ShutterPin   int `yaml:"shutter_pin"`
	FocusPin     int `yaml:"focus_pin"`      // 0 = no focus line
	FocusDelayMs int `yaml:"focus_delay_ms"` // autofocus delay (ms)
	HoldMs       int `yaml:"hold_ms"`        // shutter hold time (ms)
}

// DefaultsConfig holds runtime settings.
type DefaultsConfig struct {
	FPS        int  `yaml:"fps"`         // frame loop rate, default 60
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Capture  CaptureConfig  `yaml:"capture"`
	Controls ControlsConfig `yaml:"controls"`
	Shutter  ShutterConfig  `yaml:"shutter"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath accepts only .yaml files located directly in a
// directory named "configs".
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", MaxConfigFileBytes)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Camera.Profile == "" {
		return fmt.Errorf("camera.profile is required")
	}
	if _, err := params.ParseProfile(c.Camera.Profile); err != nil {
		return fmt.Errorf("camera.profile: %w", err)
	}
	if _, err := effects.ParseMode(c.Camera.Mode); err != nil {
		return fmt.Errorf("camera.mode: %w", err)
	}
	if c.Camera.SensorHeightMm < 0 {
		return fmt.Errorf("camera.sensor_height_mm must be > 0, got %.2f", c.Camera.SensorHeightMm)
	}
	if c.Camera.SensorHeightMm == 0 {
		c.Camera.SensorHeightMm = 24 // full frame
	}
	if _, err := c.Specs(); err != nil {
		return err
	}

	if c.Capture.GalleryCapacity < 0 || c.Capture.GalleryCapacity > 1000 {
		return fmt.Errorf("capture.gallery_capacity must be between 1 and 1000, got %d", c.Capture.GalleryCapacity)
	}
	if c.Capture.GalleryCapacity == 0 {
		c.Capture.GalleryCapacity = 10
	}
	if _, err := capture.ParseFeedbackPolicy(c.Capture.Feedback); err != nil {
		return fmt.Errorf("capture.feedback: %w", err)
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		return fmt.Errorf("capture size must be positive, got %dx%d", c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.Width == 0 {
		c.Capture.Width = 1920
	}
	if c.Capture.Height == 0 {
		c.Capture.Height = 1080
	}
	if c.Capture.Width > MaxCaptureDimension || c.Capture.Height > MaxCaptureDimension {
		return fmt.Errorf("capture size must be at most %dx%d, got %dx%d",
			MaxCaptureDimension, MaxCaptureDimension, c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.PrintOffset == nil {
		offset := capture.DefaultPrintOffset
		c.Capture.PrintOffset = &offset
	}
	if *c.Capture.PrintOffset < 0 || math.IsNaN(*c.Capture.PrintOffset) {
		return fmt.Errorf("capture.print_offset must be >= 0, got %.2f", *c.Capture.PrintOffset)
	}
	if c.Capture.OnDemand == nil {
		onDemand := true
		c.Capture.OnDemand = &onDemand
	}
	if c.Capture.TraySize <= 0 {
		c.Capture.TraySize = 10
	}

	if c.Controls.RepeatDelayMs <= 0 {
		c.Controls.RepeatDelayMs = 300
	}

	if c.Shutter.ShutterPin < 0 || c.Shutter.FocusPin < 0 {
		return fmt.Errorf("shutter pins must be >= 0")
	}
	if c.Shutter.FocusDelayMs <= 0 {
		c.Shutter.FocusDelayMs = 500 // 500ms for autofocus
	}
	if c.Shutter.HoldMs <= 0 {
		c.Shutter.HoldMs = 200 // 200ms shutter hold
	}

	if c.Defaults.FPS == 0 {
		c.Defaults.FPS = 60
	}
	if c.Defaults.FPS < 1 || c.Defaults.FPS > 240 {
		return fmt.Errorf("defaults.fps must be between 1 and 240, got %d", c.Defaults.FPS)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// Profile returns the parsed parameter profile.
func (c *Config) Profile() params.Profile {
	p, _ := params.ParseProfile(c.Camera.Profile)
	return p
}

// Mode returns the parsed effect mode.
func (c *Config) Mode() effects.Mode {
	m, _ := effects.ParseMode(c.Camera.Mode)
	return m
}

// Feedback returns the parsed gallery-full feedback policy.
func (c *Config) Feedback() capture.FeedbackPolicy {
	p, _ := capture.ParseFeedbackPolicy(c.Capture.Feedback)
	return p
}

// Specs merges camera.params onto the profile defaults.
func (c *Config) Specs() (map[params.Field]params.Spec, error) {
	profile, err := params.ParseProfile(c.Camera.Profile)
	if err != nil {
		return nil, err
	}
	specs := params.DefaultSpecs(profile)
	byName := make(map[string]params.Field, len(specs))
	for _, f := range params.Fields() {
		byName[f.String()] = f
	}

	for name, pc := range c.Camera.Params {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("camera.params: unknown field %q", name)
		}
		s := specs[f]
		for _, o := range []struct {
			dst *float64
			src *float64
		}{
			{&s.Min, pc.Min}, {&s.Max, pc.Max}, {&s.Step, pc.Step}, {&s.Initial, pc.Initial},
		} {
			if o.src == nil {
				continue
			}
			if math.IsNaN(*o.src) || math.IsInf(*o.src, 0) {
				return nil, fmt.Errorf("camera.params.%s: values must be finite", name)
			}
			*o.dst = *o.src
		}
		if s.Min > s.Max {
			return nil, fmt.Errorf("camera.params.%s: min %g > max %g", name, s.Min, s.Max)
		}
		if s.Step < 0 {
			return nil, fmt.Errorf("camera.params.%s: step must be >= 0, got %g", name, s.Step)
		}
		specs[f] = s
	}
	return specs, nil
}

// PrintOffset returns the printed photo distance in front of the camera.
func (c *Config) PrintOffset() float64 {
	if c.Capture.PrintOffset == nil {
		return capture.DefaultPrintOffset
	}
	return *c.Capture.PrintOffset
}

// OnDemand reports whether captures render the current frame immediately.
func (c *Config) OnDemand() bool {
	return c.Capture.OnDemand == nil || *c.Capture.OnDemand
}

// RepeatDelay returns the hold time before buttons adjust continuously.
func (c *Config) RepeatDelay() time.Duration {
	return time.Duration(c.Controls.RepeatDelayMs) * time.Millisecond
}

// FocusDelay returns the autofocus delay of the remote port.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Shutter.FocusDelayMs) * time.Millisecond
}

// ShutterHold returns the shutter hold duration of the remote port.
func (c *Config) ShutterHold() time.Duration {
	return time.Duration(c.Shutter.HoldMs) * time.Millisecond
}
