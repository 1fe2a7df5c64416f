package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/effects"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	// Create a real configs/ directory so filepath.Abs resolves correctly.
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

func TestValidateConfigPath_VeryLongPath(t *testing.T) {
	long := "configs/" + strings.Repeat("a", 1000) + ".yaml"
	// Should not panic; error or success is OS-dependent, but must not crash.
	_ = ValidateConfigPath(long)
}

func TestValidateConfigPath_SpecialChars(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		wantErr bool
	}{
		{"con fig.yaml", false},
		{"café.yaml", false},
	}
	for _, tc := range cases {
		path := filepath.Join(cfgDir, tc.name)
		err := ValidateConfigPath(path)
		if tc.wantErr && err == nil {
			t.Errorf("expected error for %q, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("unexpected error for %q: %v", tc.name, err)
		}
	}
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
camera:
  profile: focal
  mode: postprocessing
  sensor_height_mm: 15.8
  params:
    zoom:
      min: 18
      max: 55
      initial: 35
    iso:
      step: 200
capture:
  gallery_capacity: 12
  feedback: on_store
  width: 640
  height: 480
  print_offset: 0.3
  on_demand: false
controls:
  repeat_delay_ms: 250
  buttons:
    next: 5
    previous: 6
    increment: 13
    decrement: 19
    shoot: 26
    display: 21
shutter:
  shutter_pin: 25
  focus_pin: 24
defaults:
  fps: 30
  debug_level: 0
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Profile() != params.ProfileFocalLength {
		t.Errorf("profile = %v, want focal", cfg.Profile())
	}
	if cfg.Mode() != effects.PostProcessing {
		t.Errorf("mode = %v, want postprocessing", cfg.Mode())
	}
	if cfg.Feedback() != capture.FeedbackOnStore {
		t.Errorf("feedback = %v, want on_store", cfg.Feedback())
	}
	if cfg.Camera.SensorHeightMm != 15.8 {
		t.Errorf("sensor_height_mm = %v, want 15.8", cfg.Camera.SensorHeightMm)
	}
	if cfg.Capture.GalleryCapacity != 12 || cfg.Capture.Width != 640 || cfg.Capture.Height != 480 {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if cfg.OnDemand() {
		t.Error("on_demand should be false")
	}
	if cfg.PrintOffset() != 0.3 {
		t.Errorf("PrintOffset() = %v, want 0.3", cfg.PrintOffset())
	}
	if cfg.Controls.Buttons.Shoot != 26 {
		t.Errorf("buttons.shoot = %d, want 26", cfg.Controls.Buttons.Shoot)
	}
	if cfg.RepeatDelay() != 250*time.Millisecond {
		t.Errorf("RepeatDelay() = %v", cfg.RepeatDelay())
	}
	if cfg.Defaults.FPS != 30 {
		t.Errorf("fps = %d, want 30", cfg.Defaults.FPS)
	}

	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}
	zoom := specs[params.Zoom]
	if zoom.Min != 18 || zoom.Max != 55 || zoom.Initial != 35 || zoom.Step != 5 {
		t.Errorf("zoom spec = %+v, want 18-55 step 5 initial 35", zoom)
	}
	if iso := specs[params.ISO]; iso.Step != 200 || iso.Min != 100 {
		t.Errorf("iso spec = %+v", iso)
	}
}

func TestLoad_MissingProfile(t *testing.T) {
	path := writeConfig(t, `
camera:
  mode: physical
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing camera.profile, got nil")
	}
}

func TestLoad_InvalidEnums(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"profile", "camera:\n  profile: wide\n"},
		{"mode", "camera:\n  profile: fov\n  mode: raytraced\n"},
		{"feedback", "camera:\n  profile: fov\ncapture:\n  feedback: sometimes\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for invalid %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_InvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		params string
	}{
		{"unknown_field", "    shutter_angle:\n      min: 1\n"},
		{"inverted_range", "    zoom:\n      min: 90\n      max: 10\n"},
		{"negative_step", "    aperture:\n      step: -1\n"},
		{"min_above_default_max", "    zoom:\n      min: 150\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "camera:\n  profile: fov\n  params:\n"+tc.params)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_OutOfRange(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"fps_high", "defaults:\n  fps: 500\n"},
		{"fps_negative", "defaults:\n  fps: -1\n"},
		{"capacity", "capture:\n  gallery_capacity: 5000\n"},
		{"capacity_negative", "capture:\n  gallery_capacity: -1\n"},
		{"sensor", "camera:\n  profile: fov\n  sensor_height_mm: -2\n"},
		{"size", "capture:\n  width: -640\n"},
		{"width_too_large", "capture:\n  width: 8193\n"},
		{"height_too_large", "capture:\n  height: 100000\n"},
		{"print_offset", "capture:\n  print_offset: -1\n"},
		{"shutter_pin", "shutter:\n  shutter_pin: -4\n"},
		{"debug_level", "defaults:\n  debug_level: 7\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			yaml := tc.yaml
			if !strings.Contains(yaml, "profile:") {
				yaml = "camera:\n  profile: fov\n" + yaml
			}
			path := writeConfig(t, yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	path := writeConfig(t, `
camera:
  profile: fov
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode() != effects.Physical {
		t.Errorf("mode default = %v, want physical", cfg.Mode())
	}
	if cfg.Feedback() != capture.FeedbackAlways {
		t.Errorf("feedback default = %v, want always", cfg.Feedback())
	}
	if cfg.Camera.SensorHeightMm != 24 {
		t.Errorf("sensor_height_mm default = %v, want 24", cfg.Camera.SensorHeightMm)
	}
	if cfg.Capture.GalleryCapacity != 10 {
		t.Errorf("gallery_capacity default = %d, want 10", cfg.Capture.GalleryCapacity)
	}
	if cfg.Capture.Width != 1920 || cfg.Capture.Height != 1080 {
		t.Errorf("capture size default = %dx%d, want 1920x1080", cfg.Capture.Width, cfg.Capture.Height)
	}
	if cfg.PrintOffset() != 0.5 {
		t.Errorf("print_offset default = %v, want 0.5", cfg.PrintOffset())
	}
	if !cfg.OnDemand() {
		t.Error("on_demand default should be true")
	}
	if cfg.Capture.TraySize != 10 {
		t.Errorf("tray_size default = %d, want 10", cfg.Capture.TraySize)
	}
	if cfg.Defaults.FPS != 60 {
		t.Errorf("fps default = %d, want 60", cfg.Defaults.FPS)
	}
	if cfg.RepeatDelay() != 300*time.Millisecond {
		t.Errorf("repeat delay default = %v, want 300ms", cfg.RepeatDelay())
	}
	if cfg.FocusDelay() != 500*time.Millisecond || cfg.ShutterHold() != 200*time.Millisecond {
		t.Errorf("remote delays = %v/%v, want 500ms/200ms", cfg.FocusDelay(), cfg.ShutterHold())
	}

	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}
	defaults := params.DefaultSpecs(params.ProfileFieldOfView)
	for _, f := range params.Fields() {
		if specs[f] != defaults[f] {
			t.Errorf("%s spec = %+v, want profile default %+v", f, specs[f], defaults[f])
		}
	}
}

func TestLoad_PrintOffsetZeroKept(t *testing.T) {
	path := writeConfig(t, "camera:\n  profile: fov\ncapture:\n  print_offset: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PrintOffset() != 0 {
		t.Errorf("PrintOffset() = %v, want 0", cfg.PrintOffset())
	}
}

func TestLoad_MaxCaptureSize(t *testing.T) {
	path := writeConfig(t, "camera:\n  profile: fov\ncapture:\n  width: 8192\n  height: 8192\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Width != MaxCaptureDimension || cfg.Capture.Height != MaxCaptureDimension {
		t.Errorf("capture size = %dx%d", cfg.Capture.Width, cfg.Capture.Height)
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "big.yaml")
	data := make([]byte, MaxConfigFileBytes+1)
	for i := range data {
		data[i] = '#'
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for oversized config file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{{{{invalid yaml!!!!")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for empty config (camera.profile missing), got nil")
	}
}

func TestLoad_UnknownFields(t *testing.T) {
	yaml := `
camera:
  profile: fov
unknown_section:
  foo: bar
`
	path := writeConfig(t, yaml)
	_, err := Load(path)
	if err != nil {
		t.Errorf("unknown fields should be ignored, got error: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "nonexistent.yaml")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestLoad_ShippedDefaultConfig(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "default.yaml")
	if err := ValidateConfigPath(path); err != nil {
		t.Fatalf("ValidateConfigPath: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("shipped config does not load: %v", err)
	}
	if !cfg.Defaults.MockGPIO {
		t.Error("shipped config should default to mock GPIO")
	}
}

// ---------- Helper methods ----------

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Controls: ControlsConfig{RepeatDelayMs: 5},
		Shutter:  ShutterConfig{FocusDelayMs: 7, HoldMs: 9},
	}
	cases := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"RepeatDelay", cfg.RepeatDelay(), 5 * time.Millisecond},
		{"FocusDelay", cfg.FocusDelay(), 7 * time.Millisecond},
		{"ShutterHold", cfg.ShutterHold(), 9 * time.Millisecond},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s() = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestConfig_OnDemandNilIsTrue(t *testing.T) {
	if !(&Config{}).OnDemand() {
		t.Error("OnDemand() with unset capture.on_demand should be true")
	}
}
