// Package detection defines detection results and class labels for fiducial measurement frames
package detection

import (
	"image"
	"math"
)

// Box is an axis-aligned bounding box in original frame pixels.
// X1 <= X2 and Y1 <= Y2.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns X2 - X1
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns Y2 - Y1
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Center returns the box center rounded to the nearest pixel.
func (b Box) Center() image.Point {
	return image.Pt(
		int(math.Round((b.X1+b.X2)/2)),
		int(math.Round((b.Y1+b.Y2)/2)),
	)
}

// Rect returns the box as an integer rectangle, truncating each corner.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// Detection is a single model output for one frame
type Detection struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"` // 0-1
	Box        Box     `json:"box"`
}
