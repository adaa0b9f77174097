// Package overlay draws measurement annotations onto frames.
package overlay

import (
	"image"
	"image/color"

	"github.com/teslashibe/go-fiducial/pkg/measure"
)

// Canvas is a drawing surface for overlay primitives.
type Canvas interface {
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	// Circle draws a circle; a negative thickness fills it.
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Text(text string, origin image.Point, scale float64, c color.RGBA, thickness int)
}

// Filled is the thickness value that fills a shape.
const Filled = -1

// Render draws a into c: boxes with their labels, then the center
// marker, then the fixed-position texts.
func Render(c Canvas, a measure.Annotation) {
	for _, b := range a.Boxes {
		c.Rectangle(b.Rect, b.Color, measure.BoxThickness)
		text(c, b.Label)
	}

	if a.Marker != nil {
		c.Circle(a.Marker.Center, a.Marker.Radius, a.Marker.Color, Filled)
	}

	for _, t := range a.Texts {
		text(c, t)
	}
}

func text(c Canvas, t measure.TextMark) {
	c.Text(t.Text, t.Origin, t.Scale, t.Color, t.Thickness)
}
