// Package snapshot persists annotated frames together with the measurement
// that was on screen when they were taken.
package snapshot

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/measure"
)

// Point is a pixel position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Record describes one saved snapshot.
type Record struct {
	ID          uuid.UUID      `json:"id"`
	TakenAt     time.Time      `json:"taken_at"`
	Image       string         `json:"image"`
	MMPerPx     float64        `json:"mm_per_px"`
	ScaleValid  bool           `json:"scale_valid"`
	FiducialPx  float64        `json:"fiducial_px"`
	TargetPx    float64        `json:"target_px"`
	ROI         *detection.Box `json:"roi,omitempty"`
	ROIWidthMM  float64        `json:"roi_width_mm,omitempty"`
	ROIHeightMM float64        `json:"roi_height_mm,omitempty"`
	Center      *Point         `json:"center,omitempty"`
}

// NewRecord captures res under a fresh ID.
func NewRecord(res measure.Result, at time.Time) Record {
	id := uuid.New()
	rec := Record{
		ID:         id,
		TakenAt:    at,
		Image:      id.String() + imageExt,
		MMPerPx:    res.Scale.MMPerPx,
		ScaleValid: res.Scale.Valid,
		FiducialPx: res.FiducialPx,
		TargetPx:   res.TargetPx,
	}
	if res.ROI != nil {
		roi := *res.ROI
		rec.ROI = &roi
	}
	if res.Center != nil {
		rec.Center = fromImagePoint(*res.Center)
	}
	if w, h, ok := res.ROISizeMM(); ok {
		rec.ROIWidthMM, rec.ROIHeightMM = w, h
	}
	return rec
}

func fromImagePoint(p image.Point) *Point {
	return &Point{X: p.X, Y: p.Y}
}
