package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MatCanvas draws onto a gocv.Mat in place.
type MatCanvas struct {
	mat  *gocv.Mat
	font gocv.HersheyFont
}

// NewMatCanvas wraps mat. Text uses the Hershey simplex font.
func NewMatCanvas(mat *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: mat, font: gocv.FontHersheySimplex}
}

// Rectangle draws an outlined rectangle.
func (m *MatCanvas) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(m.mat, r, c, thickness)
}

// Circle draws a circle, filled when thickness is negative.
func (m *MatCanvas) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.Circle(m.mat, center, radius, c, thickness)
}

// Text draws a line of text with its baseline at origin.
func (m *MatCanvas) Text(text string, origin image.Point, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(m.mat, text, origin, m.font, scale, c, thickness)
}
