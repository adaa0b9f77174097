// Package pipeline runs the per-frame capture, detect, measure and display loop.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/display"
	"github.com/teslashibe/go-fiducial/pkg/measure"
	"github.com/teslashibe/go-fiducial/pkg/overlay"
	"gocv.io/x/gocv"
)

// DefaultKeyWait is how long each iteration waits for a key press.
const DefaultKeyWait = time.Millisecond

// Detector turns a frame into detections in that frame's pixel space.
type Detector interface {
	Detect(frame gocv.Mat) ([]detection.Detection, error)
}

// StopReason says why Run returned.
type StopReason string

const (
	StopEndOfStream StopReason = "end_of_stream"
	StopQuit        StopReason = "quit"
	StopCanceled    StopReason = "canceled"
	StopError       StopReason = "error"
)

// Hooks are optional callbacks invoked from the loop goroutine.
type Hooks struct {
	// OnFrame is called after the overlay is drawn and before the frame is
	// shown. frame is only valid for the duration of the call.
	OnFrame func(frame gocv.Mat, res measure.Result)

	// OnKey is called for every key other than Escape.
	OnKey func(key int, frame gocv.Mat, res measure.Result)
}

// Stats summarises a run.
type Stats struct {
	Frames         int           `json:"frames"`
	Detections     int           `json:"detections"`
	FiducialFrames int           `json:"fiducial_frames"`
	Scale          measure.Scale `json:"scale"`
	Reason         StopReason    `json:"reason"`
}

// Loop wires a source, detector, engine and sink together.
// It is single-threaded: every stage blocks the next.
type Loop struct {
	Source   camera.Source
	Detector Detector
	Engine   *measure.Engine
	Sink     display.Sink
	KeyWait  time.Duration
	Hooks    Hooks

	scale measure.Scale
}

// Scale returns the scale carried into the next frame.
func (l *Loop) Scale() measure.Scale {
	return l.scale
}

// Run processes frames until the source ends, Escape is pressed, ctx is
// canceled, or the detector or sink fails. A failed read is end of stream
// and is not an error. Closing the source and sink is left to the caller.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	if l.Source == nil || l.Detector == nil || l.Engine == nil || l.Sink == nil {
		return Stats{}, fmt.Errorf("pipeline: source, detector, engine and sink are required")
	}

	keyWait := l.KeyWait
	if keyWait <= 0 {
		keyWait = DefaultKeyWait
	}

	frame := gocv.NewMat()
	defer frame.Close()

	var stats Stats
	finish := func(reason StopReason, err error) (Stats, error) {
		stats.Scale = l.scale
		stats.Reason = reason
		return stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(StopCanceled, nil)
		}

		if ok := l.Source.Read(&frame); !ok || frame.Empty() {
			return finish(StopEndOfStream, nil)
		}
		stats.Frames++

		dets, err := l.Detector.Detect(frame)
		if err != nil {
			return finish(StopError, fmt.Errorf("detect frame %d: %w", stats.Frames, err))
		}
		stats.Detections += len(dets)

		var res measure.Result
		l.scale, res = Annotate(&frame, l.Engine, dets, l.scale)
		if res.ScaleUpdated() {
			stats.FiducialFrames++
		}

		debug.FrameLog("🎞️  frame %d: %d detection(s), scale=%.3f mm/px valid=%v\n",
			stats.Frames, len(dets), l.scale.MMPerPx, l.scale.Valid)

		if l.Hooks.OnFrame != nil {
			l.Hooks.OnFrame(frame, res)
		}

		if err := l.Sink.Show(frame); err != nil {
			return finish(StopError, fmt.Errorf("show frame %d: %w", stats.Frames, err))
		}

		switch key := l.Sink.PollKey(keyWait); key {
		case display.KeyNone:
		case display.KeyEscape:
			return finish(StopQuit, nil)
		default:
			if l.Hooks.OnKey != nil {
				l.Hooks.OnKey(key, frame, res)
			}
		}
	}
}

// Annotate runs the engine on dets and draws the overlay onto frame in place.
func Annotate(frame *gocv.Mat, e *measure.Engine, dets []detection.Detection, prev measure.Scale) (measure.Scale, measure.Result) {
	scale, res, ann := e.Process(dets, prev)
	overlay.Render(overlay.NewMatCanvas(frame), ann)
	return scale, res
}
