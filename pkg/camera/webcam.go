package camera

import (
	"errors"
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// ErrOpen is returned when the capture device cannot be opened.
var ErrOpen = errors.New("camera: cannot open device")

// Source supplies frames. Read returns false at end of stream or on failure.
type Source interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// Webcam is a Source backed by an OpenCV VideoCapture.
type Webcam struct {
	vc     *gocv.VideoCapture
	config Config
}

// Open opens the configured device and applies the resolution hint once.
func Open(cfg Config) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(deviceArg(cfg.Device))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrOpen, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w %q", ErrOpen, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}

	return &Webcam{vc: vc, config: cfg}, nil
}

// Read grabs the next frame into frame.
func (w *Webcam) Read(frame *gocv.Mat) bool {
	return w.vc.Read(frame)
}

// ActualSize returns the size the driver reports, which may differ from the hint.
func (w *Webcam) ActualSize() (width, height int) {
	return int(w.vc.Get(gocv.VideoCaptureFrameWidth)), int(w.vc.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the device.
func (w *Webcam) Close() error {
	return w.vc.Close()
}

// deviceArg turns "0" into a capture index and leaves paths and URLs as strings.
func deviceArg(device string) interface{} {
	if id, err := strconv.Atoi(device); err == nil {
		return id
	}
	return device
}
