package web

import (
	"time"

	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/measure"
	"github.com/teslashibe/go-fiducial/pkg/snapshot"
)

// Status is the measurement shown to preview clients
type Status struct {
	Frame       uint64          `json:"frame"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ScaleValid  bool            `json:"scale_valid"`
	MMPerPx     float64         `json:"mm_per_px"`
	FiducialPx  float64         `json:"fiducial_px"` // 0 when no fiducial this frame
	TargetPx    float64         `json:"target_px"`
	ROI         *detection.Box  `json:"roi,omitempty"`
	Center      *snapshot.Point `json:"center,omitempty"`
	ROIWidthMM  float64         `json:"roi_width_mm,omitempty"`
	ROIHeightMM float64         `json:"roi_height_mm,omitempty"`

	PreviewClients int `json:"preview_clients"`
}

// NewStatus builds the status for frame from res.
func NewStatus(frame uint64, res measure.Result, at time.Time) Status {
	st := Status{
		Frame:      frame,
		UpdatedAt:  at,
		ScaleValid: res.Scale.Valid,
		MMPerPx:    res.Scale.MMPerPx,
		FiducialPx: res.FiducialPx,
		TargetPx:   res.TargetPx,
		ROI:        res.ROI,
	}
	if res.Center != nil {
		st.Center = &snapshot.Point{X: res.Center.X, Y: res.Center.Y}
	}
	if w, h, ok := res.ROISizeMM(); ok {
		st.ROIWidthMM, st.ROIHeightMM = w, h
	}
	return st
}
