// Fiducial - live measurement assist
// Detects a reference marker and a region of interest in a webcam stream,
// derives a mm/px scale from the marker and overlays framing guidance.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-fiducial/pkg/app"
	"github.com/teslashibe/go-fiducial/pkg/camera"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		a.Shutdown()
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags builds the configuration from defaults, an optional YAML file,
// the environment and finally any flags given explicitly.
func parseFlags() (app.Config, error) {
	cfg := app.DefaultConfig()

	configPath := flag.String("config", "", "YAML configuration file")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	device := flag.String("device", cfg.Camera.Device, "Camera index, video file or stream URL (CAMERA_DEVICE)")
	width := flag.Int("width", cfg.Camera.Width, "Requested capture width")
	height := flag.Int("height", cfg.Camera.Height, "Requested capture height")
	model := flag.String("model", cfg.Detector.ModelPath, "YOLO ONNX model path (MODEL_PATH)")
	modelURL := flag.String("model-url", "", "Download the model from this URL when it is missing (MODEL_URL)")
	data := flag.String("data", "", "Ultralytics data.yaml with class names (DATA_YAML)")
	conf := flag.Float64("conf", float64(cfg.Detector.ConfidenceThresh), "Detection confidence threshold")
	imgsz := flag.Int("imgsz", cfg.Detector.InputWidth, "Model input size")
	fiducialMM := flag.Float64("fiducial-mm", cfg.Measure.ReferenceMM, "Physical fiducial size in millimeters (FIDUCIAL_MM)")
	webPort := flag.String("web-port", "", "Serve the live preview on this port (WEB_PORT)")
	headless := flag.Bool("headless", false, "No local window; requires -web-port")
	snapshotDir := flag.String("snapshot-dir", cfg.SnapshotDir, "Directory for snapshots (SNAPSHOT_DIR)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every frame (very verbose)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error (LOG_LEVEL)")

	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return cfg, err
		}
	}

	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown camera preset %q", *preset)
		}
		dev := cfg.Camera.Device
		cfg.Camera = *p
		cfg.Camera.Device = dev
	}

	// Environment variables
	cfg.LoadEnvConfig()

	// Explicit flags win
	if set["device"] {
		cfg.Camera.Device = *device
	}
	if set["width"] {
		cfg.Camera.Width = *width
	}
	if set["height"] {
		cfg.Camera.Height = *height
	}
	if set["model"] {
		cfg.Detector.ModelPath = *model
	}
	if set["model-url"] {
		cfg.Detector.ModelURL = *modelURL
	}
	if set["data"] {
		cfg.DataYAML = *data
	}
	if set["conf"] {
		cfg.Detector.ConfidenceThresh = float32(*conf)
	}
	if set["imgsz"] {
		cfg.Detector.InputWidth, cfg.Detector.InputHeight = *imgsz, *imgsz
	}
	if set["fiducial-mm"] {
		cfg.Measure.ReferenceMM = *fiducialMM
	}
	if set["web-port"] {
		cfg.Web.Port = *webPort
		cfg.WebEnabled = *webPort != ""
	}
	if set["headless"] {
		cfg.Headless = *headless
	}
	if set["snapshot-dir"] {
		cfg.SnapshotDir = *snapshotDir
	}
	if set["debug"] {
		cfg.Debug = *debugFlag
	}
	if set["debug-frames"] {
		cfg.DebugFrames = *debugFrames
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}

	if flag.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", flag.Args())
	}
	return cfg, nil
}
