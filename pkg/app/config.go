// Package app wires capture, detection, measurement, display and the
// preview server into one runnable program.
package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-fiducial/internal/config"
	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/detection/yolo"
	"github.com/teslashibe/go-fiducial/pkg/display"
	"github.com/teslashibe/go-fiducial/pkg/measure"
	"github.com/teslashibe/go-fiducial/pkg/snapshot"
	"github.com/teslashibe/go-fiducial/pkg/web"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/fiducial/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug printing; DebugFrames adds per-frame lines.
	Debug       bool   `yaml:"debug"`
	DebugFrames bool   `yaml:"debug_frames"`
	LogLevel    string `yaml:"log_level"`

	Camera   camera.Config  `yaml:"camera"`
	Detector yolo.Config    `yaml:"detector"`
	Measure  measure.Config `yaml:"measure"`

	// DataYAML optionally points at the model's data.yaml so class ids
	// match the training label order.
	DataYAML string `yaml:"data_yaml"`

	// Headless disables the local window; the web preview is the only view.
	Headless   bool   `yaml:"headless"`
	WindowName string `yaml:"window_name"`

	WebEnabled bool       `yaml:"web_enabled"`
	Web        web.Config `yaml:"web"`

	SnapshotDir string `yaml:"snapshot_dir"`
}

// DefaultConfig returns defaults matching the trained measurement model.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Camera:      camera.DefaultConfig(),
		Detector:    yolo.DefaultConfig(),
		Measure:     measure.DefaultConfig(),
		WindowName:  display.DefaultWindowName,
		Web:         web.DefaultConfig(),
		SnapshotDir: snapshot.DefaultDir,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnvConfig applies environment overrides.
// Call this before applying explicit flags so flags win.
func (c *Config) LoadEnvConfig() {
	c.Camera.Device = config.CameraDevice(c.Camera.Device)
	c.Detector.ModelPath = config.ModelPath(c.Detector.ModelPath)
	c.Detector.ModelURL = config.String(config.EnvModelURL, c.Detector.ModelURL)
	c.DataYAML = config.String(config.EnvDataYAML, c.DataYAML)
	c.SnapshotDir = config.String(config.EnvSnapshotDir, c.SnapshotDir)
	c.LogLevel = config.String(config.EnvLogLevel, c.LogLevel)
	c.Measure.ReferenceMM = config.Float(config.EnvFiducialMM, c.Measure.ReferenceMM)

	if port := config.WebPort(""); port != "" {
		c.Web.Port = port
		c.WebEnabled = true
	}
}

// Validate checks that the configuration can run.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: fmt.Sprintf("camera: %v", errs)}
	}
	if err := c.Detector.Validate(); err != nil {
		return &ConfigError{Field: "Detector", Message: err.Error()}
	}
	if c.DataYAML == "" {
		if err := c.Measure.Validate(); err != nil {
			return &ConfigError{Field: "Measure", Message: err.Error()}
		}
	} else if c.Measure.ReferenceMM <= 0 {
		return &ConfigError{Field: "Measure", Message: "measure: reference size must be positive"}
	}
	if c.Headless && !c.WebEnabled {
		return &ConfigError{Field: "Headless", Message: "headless mode needs the web preview (-web-port or WEB_PORT)"}
	}
	if c.WebEnabled && c.Web.Port == "" {
		return &ConfigError{Field: "Web", Message: "web port is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
