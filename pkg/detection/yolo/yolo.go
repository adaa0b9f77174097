// Package yolo runs YOLOv8 ONNX models through OpenCV DNN
package yolo

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"gocv.io/x/gocv"
)

// Sentinel errors for detector setup and inference.
var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("yolo: model file not found")

	// ErrModelLoad is returned when OpenCV cannot load the model.
	ErrModelLoad = errors.New("yolo: failed to load model")

	// ErrEmptyFrame is returned when Detect is given an empty frame.
	ErrEmptyFrame = errors.New("yolo: empty frame")
)

// Detector runs a YOLOv8 ONNX export through OpenCV DNN
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// Config holds YOLO detector configuration
type Config struct {
	ModelPath        string  `yaml:"model_path"`
	ModelURL         string  `yaml:"model_url"`   // Fetched into ModelPath when the file is missing
	ConfidenceThresh float32 `yaml:"confidence"` // Detections below this never leave the detector
	NMSThresh        float32 `yaml:"nms"`
	InputWidth       int     `yaml:"input_width"` // Network input size; outputs stay in frame pixels
	InputHeight      int     `yaml:"input_height"`
}

// DefaultConfig returns production defaults for the measurement model
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/best.onnx",
		ConfidenceThresh: 0.4,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Validate checks the config values.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("yolo: model path required")
	}
	if c.ConfidenceThresh < 0 || c.ConfidenceThresh > 1 {
		return fmt.Errorf("yolo: confidence threshold %.2f out of range [0,1]", c.ConfidenceThresh)
	}
	if c.NMSThresh < 0 || c.NMSThresh > 1 {
		return fmt.Errorf("yolo: NMS threshold %.2f out of range [0,1]", c.NMSThresh)
	}
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return fmt.Errorf("yolo: input size %dx%d must be positive", c.InputWidth, c.InputHeight)
	}
	return nil
}

// New loads the model and creates a detector
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in a BGR frame
func (d *Detector) Detect(frame gocv.Mat) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	imgW := float64(frame.Cols())
	imgH := float64(frame.Rows())

	blob := gocv.BlobFromImage(frame, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dets, err := d.parseOutput(output, imgW, imgH)
	if err != nil {
		return nil, err
	}

	if len(dets) > 0 {
		debug.FrameLog("🔍 YOLO found %d object(s)\n", len(dets))
	}

	return dets, nil
}

// parseOutput decodes a YOLOv8 tensor of shape [1, 4+classes, candidates].
// Each column holds cx, cy, w, h in network input pixels followed by class scores.
func (d *Detector) parseOutput(output gocv.Mat, imgW, imgH float64) ([]detection.Detection, error) {
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("yolo: unexpected output shape %v", dims)
	}
	attrs := dims[1]
	candidates := dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("yolo: read output: %w", err)
	}

	sx := imgW / float64(d.config.InputWidth)
	sy := imgH / float64(d.config.InputHeight)

	var (
		boxes       []detection.Box
		rects       []image.Rectangle
		confidences []float32
		classIDs    []int
	)

	for i := 0; i < candidates; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < attrs; c++ {
			score := data[c*candidates+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := float64(data[0*candidates+i])
		cy := float64(data[1*candidates+i])
		w := float64(data[2*candidates+i])
		h := float64(data[3*candidates+i])

		box := detection.Box{
			X1: clamp((cx-w/2)*sx, 0, imgW),
			Y1: clamp((cy-h/2)*sy, 0, imgH),
			X2: clamp((cx+w/2)*sx, 0, imgW),
			Y2: clamp((cy+h/2)*sy, 0, imgH),
		}

		boxes = append(boxes, box)
		rects = append(rects, box.Rect())
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(rects, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	dets := make([]detection.Detection, 0, len(indices))
	for _, idx := range indices {
		dets = append(dets, detection.Detection{
			ClassID:    classIDs[idx],
			Confidence: float64(confidences[idx]),
			Box:        boxes[idx],
		})
	}
	return dets, nil
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
