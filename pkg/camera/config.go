// Package camera provides the webcam frame source and its settings.
package camera

import "fmt"

// Config holds capture settings. Width and Height are a best-effort hint;
// the device may deliver a different size and it is not re-checked per frame.
type Config struct {
	// Device is a capture index ("0") or a file/stream URL.
	Device string `json:"device" yaml:"device"`

	Width  int `json:"width" yaml:"width"`   // Requested frame width in pixels
	Height int `json:"height" yaml:"height"` // Requested frame height in pixels

	// FPS is the requested capture rate. 0 leaves the driver default.
	FPS int `json:"fps" yaml:"fps"`
}

// Capture limits accepted by Validate.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 4096
	MaxHeight = 2160
	MaxFPS    = 120
)

// DefaultConfig returns the 1280x720 default webcam configuration.
func DefaultConfig() Config {
	return Config{
		Device: "0",
		Width:  1280,
		Height: 720,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.FPS < 0 || c.FPS > MaxFPS {
		errors = append(errors, fmt.Sprintf("fps must be 0 (driver default) or up to %d", MaxFPS))
	}

	return errors
}
