// Package display renders annotated frames and polls for user keys.
package display

import (
	"time"

	"gocv.io/x/gocv"
)

// DefaultWindowName is the title of the preview window.
const DefaultWindowName = "YOLO feedback"

// Key codes the pipeline reacts to.
const (
	KeyNone     = -1
	KeyEscape   = 27
	KeySnapshot = 's'
)

// Sink shows frames and reports key presses.
type Sink interface {
	Show(frame gocv.Mat) error
	// PollKey waits up to wait for a key and returns KeyNone if there was none.
	PollKey(wait time.Duration) int
	Close() error
}

// Window is a Sink backed by an OpenCV HighGUI window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a window titled name.
func NewWindow(name string) *Window {
	return &Window{win: gocv.NewWindow(name)}
}

// Show displays frame.
func (w *Window) Show(frame gocv.Mat) error {
	w.win.IMShow(frame)
	return nil
}

// PollKey waits for a key press. Waits shorter than 1ms are rounded up,
// since HighGUI treats 0 as "block forever".
func (w *Window) PollKey(wait time.Duration) int {
	ms := int(wait.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return maskKey(w.win.WaitKey(ms))
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// Headless is a Sink with no window. It never reports a key, so the
// loop ends only on end of stream or cancellation.
type Headless struct{}

// Show does nothing.
func (Headless) Show(gocv.Mat) error { return nil }

// PollKey returns KeyNone immediately.
func (Headless) PollKey(time.Duration) int { return KeyNone }

// Close does nothing.
func (Headless) Close() error { return nil }

// maskKey keeps the low byte of a key code, as HighGUI may set modifier bits.
func maskKey(k int) int {
	if k < 0 {
		return KeyNone
	}
	return k & 0xFF
}
