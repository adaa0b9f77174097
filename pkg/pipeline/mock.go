package pipeline

import (
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/display"
	"gocv.io/x/gocv"
)

// MockSource yields Count blank frames of Size, then reports end of stream.
type MockSource struct {
	Count int
	Size  image.Point

	mu     sync.Mutex
	reads  int
	closed bool
}

// NewMockSource creates a source of n frames of the given size.
func NewMockSource(n int, size image.Point) *MockSource {
	return &MockSource{Count: n, Size: size}
}

// Read fills frame with a black image until Count frames have been read.
func (s *MockSource) Read(frame *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reads >= s.Count {
		return false
	}
	s.reads++

	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), s.Size.Y, s.Size.X, gocv.MatTypeCV8UC3)
	defer blank.Close()
	blank.CopyTo(frame)
	return true
}

// Close marks the source closed.
func (s *MockSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Reads returns the number of successful reads.
func (s *MockSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// MockDetector replays scripted detections, one slice per call.
// After the script runs out it returns no detections.
type MockDetector struct {
	Frames [][]detection.Detection
	Err    error

	mu    sync.Mutex
	calls int
}

// NewMockDetector creates a detector that replays frames.
func NewMockDetector(frames ...[]detection.Detection) *MockDetector {
	return &MockDetector{Frames: frames}
}

// Detect returns the next scripted detections.
func (d *MockDetector) Detect(frame gocv.Mat) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.calls
	d.calls++
	if d.Err != nil {
		return nil, d.Err
	}
	if i < len(d.Frames) {
		return d.Frames[i], nil
	}
	return nil, nil
}

// Close does nothing.
func (d *MockDetector) Close() error { return nil }

// Calls returns how many times Detect was invoked.
func (d *MockDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// MockSink records shown frames and replays scripted keys.
type MockSink struct {
	// Keys is returned by successive PollKey calls; KeyNone afterwards.
	Keys []int
	Err  error

	mu    sync.Mutex
	shown int
	polls int
}

// Show counts the frame.
func (s *MockSink) Show(frame gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.shown++
	return nil
}

// PollKey returns the next scripted key.
func (s *MockSink) PollKey(time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	s.polls++
	if i < len(s.Keys) {
		return s.Keys[i]
	}
	return display.KeyNone
}

// Close does nothing.
func (s *MockSink) Close() error { return nil }

// Shown returns the number of frames shown.
func (s *MockSink) Shown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}
