package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-fiducial/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Measure.ReferenceMM != 50.0 {
		t.Errorf("ReferenceMM = %v, want 50", cfg.Measure.ReferenceMM)
	}
	if cfg.Camera.Device != "0" || cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.WindowName != "YOLO feedback" {
		t.Errorf("WindowName = %q", cfg.WindowName)
	}
	if cfg.WebEnabled {
		t.Error("web preview should be off by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad camera", func(c *Config) { c.Camera.Width = 10 }, "Camera"},
		{"no model", func(c *Config) { c.Detector.ModelPath = "" }, "Detector"},
		{"bad reference", func(c *Config) { c.Measure.ReferenceMM = 0 }, "Measure"},
		{"bad reference with data.yaml", func(c *Config) {
			c.DataYAML = "data.yaml"
			c.Measure.ReferenceMM = -1
		}, "Measure"},
		{"headless without web", func(c *Config) { c.Headless = true }, "Headless"},
		{"web without port", func(c *Config) {
			c.WebEnabled = true
			c.Web.Port = ""
		}, "Web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestConfig_HeadlessWithWeb(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Headless = true
	cfg.WebEnabled = true

	if err := cfg.Validate(); err != nil {
		t.Errorf("headless with web should be valid: %v", err)
	}
}

func TestConfig_LoadEnvConfig(t *testing.T) {
	t.Setenv(config.EnvCameraDevice, "rtsp://cam/stream")
	t.Setenv(config.EnvModelPath, "/models/fiducial.onnx")
	t.Setenv(config.EnvFiducialMM, "25")
	t.Setenv(config.EnvSnapshotDir, "/tmp/snaps")
	t.Setenv(config.EnvWebPort, "9090")
	t.Setenv(config.EnvLogLevel, "debug")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.Camera.Device != "rtsp://cam/stream" {
		t.Errorf("Device = %q", cfg.Camera.Device)
	}
	if cfg.Detector.ModelPath != "/models/fiducial.onnx" {
		t.Errorf("ModelPath = %q", cfg.Detector.ModelPath)
	}
	if cfg.Measure.ReferenceMM != 25 {
		t.Errorf("ReferenceMM = %v", cfg.Measure.ReferenceMM)
	}
	if cfg.SnapshotDir != "/tmp/snaps" {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir)
	}
	if !cfg.WebEnabled || cfg.Web.Port != "9090" {
		t.Errorf("web = %v %q", cfg.WebEnabled, cfg.Web.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestConfig_LoadEnvConfig_Unset(t *testing.T) {
	t.Setenv(config.EnvWebPort, "")
	t.Setenv(config.EnvFiducialMM, "not-a-number")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.WebEnabled {
		t.Error("web should stay disabled without WEB_PORT")
	}
	if cfg.Measure.ReferenceMM != 50 {
		t.Errorf("ReferenceMM = %v, want default on bad value", cfg.Measure.ReferenceMM)
	}
}

func TestConfig_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiducial.yaml")
	content := `
camera:
  device: "2"
  width: 640
  height: 480
detector:
  model_path: models/v2.onnx
  confidence: 0.5
measure:
  reference_mm: 30
headless: true
web_enabled: true
web:
  port: "8181"
  preview_interval: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Camera.Device != "2" || cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Detector.ModelPath != "models/v2.onnx" || cfg.Detector.ConfidenceThresh != 0.5 {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	// Unset keys keep defaults
	if cfg.Detector.NMSThresh != 0.45 {
		t.Errorf("NMSThresh = %v, want default", cfg.Detector.NMSThresh)
	}
	if cfg.Measure.ReferenceMM != 30 || cfg.Measure.FiducialLabel != "fiducial" {
		t.Errorf("measure = %+v", cfg.Measure)
	}
	if !cfg.Headless || !cfg.WebEnabled || cfg.Web.Port != "8181" {
		t.Errorf("web = %+v", cfg.Web)
	}
	if cfg.Web.PreviewInterval != 250*time.Millisecond {
		t.Errorf("PreviewInterval = %v", cfg.Web.PreviewInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestConfig_LoadFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("camera: [unclosed"), 0644)
	if err := cfg.LoadFile(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
