package measure

import (
	"image"
	"image/color"
)

// Overlay colors (RGBA; gocv converts to BGR when drawing).
var (
	ColorFiducial   = color.RGBA{R: 0, G: 255, B: 255, A: 0}
	ColorInduration = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	ColorMarker     = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	ColorScale      = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Fixed overlay geometry.
var (
	GuidancePos = image.Pt(20, 40)
	ScalePos    = image.Pt(20, 80)
)

const (
	BoxThickness  = 2
	TextThickness = 2
	LabelScale    = 0.6
	GuidanceScale = 0.8
	ScaleTextSize = 0.7
	MarkerRadius  = 6
	labelOffsetY  = 6
)

// BoxMark is a labelled bounding box.
type BoxMark struct {
	Rect  image.Rectangle
	Color color.RGBA
	Label TextMark
}

// CenterMark is the filled circle placed on the ROI center.
type CenterMark struct {
	Center image.Point
	Radius int
	Color  color.RGBA
}

// TextMark is a line of overlay text anchored at its baseline origin.
type TextMark struct {
	Text      string
	Origin    image.Point
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Annotation is the set of overlay primitives for one frame.
type Annotation struct {
	Boxes  []BoxMark
	Marker *CenterMark
	Texts  []TextMark
}

// Empty reports whether nothing would be drawn.
func (a Annotation) Empty() bool {
	return len(a.Boxes) == 0 && a.Marker == nil && len(a.Texts) == 0
}
