package measure

import (
	"fmt"

	"github.com/teslashibe/go-fiducial/pkg/detection"
)

// DefaultReferenceMM is the printed width of the fiducial marker.
const DefaultReferenceMM = 50.0

// DefaultGuidanceText is shown whenever an induration is in view.
const DefaultGuidanceText = "Center bump in circle"

// Config holds the engine parameters. It is fixed for the process lifetime.
type Config struct {
	// ReferenceMM is the real-world fiducial width in millimeters.
	ReferenceMM float64 `yaml:"reference_mm" json:"reference_mm"`

	// Classes maps model class ids to labels.
	Classes detection.ClassNames `yaml:"classes" json:"classes"`

	// Labels the engine reacts to.
	FiducialLabel string `yaml:"fiducial_label" json:"fiducial_label"`
	ROILabel      string `yaml:"roi_label" json:"roi_label"`

	GuidanceText string `yaml:"guidance_text" json:"guidance_text"`
}

// DefaultConfig returns the engine defaults for a 50 mm marker.
func DefaultConfig() Config {
	return Config{
		ReferenceMM:   DefaultReferenceMM,
		Classes:       detection.DefaultClassNames(),
		FiducialLabel: detection.LabelFiducial,
		ROILabel:      detection.LabelInduration,
		GuidanceText:  DefaultGuidanceText,
	}
}

// Validate checks that the config can drive the engine.
func (c Config) Validate() error {
	if c.ReferenceMM <= 0 {
		return fmt.Errorf("measure: reference_mm must be positive, got %v", c.ReferenceMM)
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("measure: no class names configured")
	}
	if c.FiducialLabel == "" || c.ROILabel == "" {
		return fmt.Errorf("measure: fiducial and roi labels are required")
	}
	if c.FiducialLabel == c.ROILabel {
		return fmt.Errorf("measure: fiducial and roi labels must differ")
	}
	return nil
}
