package yolo

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-fiducial/pkg/detection"
	"gocv.io/x/gocv"
)

// TestNewInvalidPath tests error handling for missing model
func TestNewInvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := New(cfg)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

// TestNewInvalidConfig tests that validation runs before loading
func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputWidth = -1

	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid input size")
	}
}

// TestDetect_EmptyFrame tests detection on an empty Mat
func TestDetect_EmptyFrame(t *testing.T) {
	detector := newTestDetector(t)
	defer detector.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := detector.Detect(empty); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

// TestDetect_SolidFrame tests that a blank frame yields boxes inside the frame, if any
func TestDetect_SolidFrame(t *testing.T) {
	detector := newTestDetector(t)
	defer detector.Close()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()

	dets, err := detector.Detect(frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	bounds := image.Rect(0, 0, 1280, 720)
	for _, d := range dets {
		if !d.Box.Rect().In(bounds) {
			t.Errorf("box %v outside frame %v", d.Box, bounds)
		}
		if d.Confidence < float64(DefaultConfig().ConfidenceThresh) {
			t.Errorf("confidence %.2f below threshold", d.Confidence)
		}
	}
}

// TestParseOutput decodes a hand-built [1, 6, 3] tensor (2 classes, 3 candidates)
func TestParseOutput(t *testing.T) {
	// Rows: cx, cy, w, h, score(class0), score(class1); columns are candidates.
	rows := [][]float32{
		{320, 100, 100},
		{320, 100, 100},
		{64, 20, 20},
		{64, 40, 40},
		{0.9, 0.1, 0.05},
		{0.1, 0.2, 0.8},
	}
	out := newTensor(t, rows)
	defer out.Close()

	d := &Detector{config: DefaultConfig()}
	dets, err := d.parseOutput(out, 1280, 720)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d: %+v", len(dets), dets)
	}

	byClass := map[int]detection.Detection{}
	for _, det := range dets {
		byClass[det.ClassID] = det
	}

	// 640x640 input scaled to 1280x720: sx=2, sy=1.125
	want := map[int]detection.Box{
		0: {X1: 576, Y1: 324, X2: 704, Y2: 396},
		1: {X1: 180, Y1: 90, X2: 220, Y2: 135},
	}
	for id, box := range want {
		got, ok := byClass[id]
		if !ok {
			t.Errorf("class %d missing", id)
			continue
		}
		if !boxNear(got.Box, box) {
			t.Errorf("class %d: got box %+v, want %+v", id, got.Box, box)
		}
	}

	if c := byClass[0].Confidence; math.Abs(c-0.9) > 1e-6 {
		t.Errorf("class 0 confidence = %v, want 0.9", c)
	}
}

func TestParseOutput_BadShape(t *testing.T) {
	out := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV32F)
	defer out.Close()

	d := &Detector{config: DefaultConfig()}
	if _, err := d.parseOutput(out, 640, 640); err == nil {
		t.Error("expected error for 2-D output")
	}
}

// Helper functions

func newTensor(t *testing.T, rows [][]float32) gocv.Mat {
	t.Helper()

	attrs, candidates := len(rows), len(rows[0])
	buf := make([]byte, 0, attrs*candidates*4)
	for _, row := range rows {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}

	m, err := gocv.NewMatWithSizesFromBytes([]int{1, attrs, candidates}, gocv.MatTypeCV32F, buf)
	if err != nil {
		t.Fatalf("build tensor: %v", err)
	}
	return m
}

func boxNear(a, b detection.Box) bool {
	const eps = 1e-3
	return math.Abs(a.X1-b.X1) < eps && math.Abs(a.Y1-b.Y1) < eps &&
		math.Abs(a.X2-b.X2) < eps && math.Abs(a.Y2-b.Y2) < eps
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YOLO model not found, skipping test")
	}

	cfg := DefaultConfig()
	cfg.ModelPath = modelPath
	detector, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return detector
}

func findModelPath() string {
	if p := os.Getenv("MODEL_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		// Walk up to find models directory
		for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
			modelPath := filepath.Join(dir, "models", "best.onnx")
			if _, err := os.Stat(modelPath); err == nil {
				return modelPath
			}
		}
	}

	return ""
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelPath == "" {
		t.Error("DefaultConfig: ModelPath should not be empty")
	}
	if cfg.ConfidenceThresh != 0.4 {
		t.Errorf("DefaultConfig: ConfidenceThresh = %v, want 0.4", cfg.ConfidenceThresh)
	}
	if cfg.InputWidth != 640 || cfg.InputHeight != 640 {
		t.Errorf("DefaultConfig: input %dx%d, want 640x640", cfg.InputWidth, cfg.InputHeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"no model", func(c *Config) { c.ModelPath = "" }, true},
		{"confidence above 1", func(c *Config) { c.ConfidenceThresh = 1.5 }, true},
		{"negative nms", func(c *Config) { c.NMSThresh = -0.1 }, true},
		{"zero input", func(c *Config) { c.InputWidth = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
