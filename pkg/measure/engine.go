// Package measure turns per-frame detections into a mm/px scale and overlay guidance.
//
// The engine is pure: the scale carried between frames is passed in and
// returned, and drawing is left to the overlay package.
package measure

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-fiducial/pkg/detection"
)

// Scale is the last observed millimeters-per-pixel factor.
// The zero value means no fiducial has been seen yet.
type Scale struct {
	MMPerPx float64 `json:"mm_per_px"`
	Valid   bool    `json:"valid"`
}

// Result summarises one processed frame.
type Result struct {
	Scale      Scale          `json:"scale"`
	FiducialPx float64        `json:"fiducial_px"` // 0 when no fiducial this frame
	ROI        *detection.Box `json:"roi,omitempty"`
	Center     *image.Point   `json:"center,omitempty"`
	TargetPx   float64        `json:"target_px"` // 0 when the scale is not valid
}

// ScaleUpdated reports whether this frame produced a fresh scale.
func (r Result) ScaleUpdated() bool {
	return r.FiducialPx > 0
}

// ROISizeMM returns the ROI width and height in millimeters.
// ok is false when there is no ROI or no valid scale.
func (r Result) ROISizeMM() (w, h float64, ok bool) {
	if r.ROI == nil || !r.Scale.Valid {
		return 0, 0, false
	}
	return r.ROI.Width() * r.Scale.MMPerPx, r.ROI.Height() * r.Scale.MMPerPx, true
}

// Engine computes scale and overlay for each frame.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Process handles one frame of detections. prev is the scale returned by the
// previous call; it is returned unchanged unless a fiducial with a positive
// size is present. When several detections share a label the last one wins.
func (e *Engine) Process(dets []detection.Detection, prev Scale) (Scale, Result, Annotation) {
	var (
		fiducialPx float64
		haveFid    bool
		roi        *detection.Box
		ann        Annotation
	)

	for _, d := range dets {
		label, ok := e.cfg.Classes.Label(d.ClassID)
		if !ok {
			continue
		}

		switch label {
		case e.cfg.FiducialLabel:
			fiducialPx = max(d.Box.Width(), d.Box.Height())
			haveFid = true
			ann.Boxes = append(ann.Boxes, boxMark(d, label, ColorFiducial))
		case e.cfg.ROILabel:
			box := d.Box
			roi = &box
			ann.Boxes = append(ann.Boxes, boxMark(d, label, ColorInduration))
		}
	}

	scale := prev
	if haveFid && fiducialPx > 0 {
		scale = Scale{MMPerPx: e.cfg.ReferenceMM / fiducialPx, Valid: true}
	} else {
		fiducialPx = 0
	}

	res := Result{Scale: scale, FiducialPx: fiducialPx, ROI: roi}

	if roi != nil {
		c := roi.Center()
		res.Center = &c
		ann.Marker = &CenterMark{Center: c, Radius: MarkerRadius, Color: ColorMarker}
		ann.Texts = append(ann.Texts, TextMark{
			Text:      e.cfg.GuidanceText,
			Origin:    GuidancePos,
			Scale:     GuidanceScale,
			Color:     ColorMarker,
			Thickness: TextThickness,
		})
	}

	if scale.Valid {
		res.TargetPx = e.TargetPx(scale)
		ann.Texts = append(ann.Texts, TextMark{
			Text:      ScaleText(scale.MMPerPx, res.TargetPx),
			Origin:    ScalePos,
			Scale:     ScaleTextSize,
			Color:     ColorScale,
			Thickness: TextThickness,
		})
	}

	return scale, res, ann
}

// TargetPx converts the scale back into the fiducial's expected pixel width.
// A non-positive scale is treated as 1 mm/px.
func (e *Engine) TargetPx(s Scale) float64 {
	mmPerPx := s.MMPerPx
	if mmPerPx <= 0 {
		mmPerPx = 1
	}
	return e.cfg.ReferenceMM / mmPerPx
}

// ScaleText formats the scale guidance line.
func ScaleText(mmPerPx, targetPx float64) string {
	return fmt.Sprintf("Scale ~ %.2f mm/px  (target px≈%.0f)", mmPerPx, targetPx)
}

// BoxLabel formats a detection label as "<name> <confidence>".
func BoxLabel(name string, confidence float64) string {
	return fmt.Sprintf("%s %.2f", name, confidence)
}

func boxMark(d detection.Detection, label string, c color.RGBA) BoxMark {
	rect := d.Box.Rect()
	return BoxMark{
		Rect:  rect,
		Color: c,
		Label: TextMark{
			Text:      BoxLabel(label, d.Confidence),
			Origin:    image.Pt(rect.Min.X, max(0, rect.Min.Y-labelOffsetY)),
			Scale:     LabelScale,
			Color:     c,
			Thickness: TextThickness,
		},
	}
}
