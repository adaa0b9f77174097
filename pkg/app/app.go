package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-fiducial/internal/log"
	"github.com/teslashibe/go-fiducial/pkg/camera"
	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/detection"
	"github.com/teslashibe/go-fiducial/pkg/detection/yolo"
	"github.com/teslashibe/go-fiducial/pkg/display"
	"github.com/teslashibe/go-fiducial/pkg/measure"
	"github.com/teslashibe/go-fiducial/pkg/pipeline"
	"github.com/teslashibe/go-fiducial/pkg/snapshot"
	"github.com/teslashibe/go-fiducial/pkg/web"
)

// ErrStopped is returned by snapshot requests once the loop has ended.
var ErrStopped = errors.New("app: pipeline stopped")

// detector is what the app needs from a model backend.
type detector interface {
	pipeline.Detector
	Close() error
}

type snapshotReply struct {
	rec snapshot.Record
	err error
}

type snapshotRequest struct {
	reply chan snapshotReply
}

// App is the main application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config

	// Pipeline stages
	source   camera.Source
	detector detector
	engine   *measure.Engine
	sink     display.Sink

	// Outputs
	store     *snapshot.Store
	webServer *web.Server

	frames       atomic.Uint64
	snapshotReqs chan snapshotRequest
	stopped      chan struct{}
	shutdown     sync.Once
}

// New creates a new application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug || cfg.DebugFrames
	debug.Frames = cfg.DebugFrames
	log.Init(cfg.LogLevel)

	return &App{
		config:       cfg,
		snapshotReqs: make(chan snapshotRequest),
		stopped:      make(chan struct{}),
	}, nil
}

// Init initializes all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("📏 Fiducial measurement assist")
	fmt.Println("==============================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	if err := a.initEngine(); err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	if a.config.Detector.ModelURL != "" {
		fmt.Printf("⬇️  Checking model %s... ", a.config.Detector.ModelPath)
		downloaded, err := yolo.EnsureModel(context.Background(), nil, a.config.Detector.ModelPath, a.config.Detector.ModelURL)
		if err != nil {
			fmt.Println("❌")
			return fmt.Errorf("model download: %w", err)
		}
		if downloaded {
			fmt.Println("✅ downloaded")
		} else {
			fmt.Println("✅ present")
		}
	}

	fmt.Printf("🧠 Loading model %s... ", a.config.Detector.ModelPath)
	det, err := yolo.New(a.config.Detector)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("model: %w", err)
	}
	a.detector = det
	fmt.Println("✅")

	fmt.Printf("📹 Opening camera %s... ", a.config.Camera.Device)
	cam, err := camera.Open(a.config.Camera)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("camera: %w", err)
	}
	a.source = cam
	w, h := cam.ActualSize()
	fmt.Printf("✅ (%dx%d)\n", w, h)

	if a.config.Headless {
		a.sink = display.Headless{}
	} else {
		a.sink = display.NewWindow(a.config.WindowName)
	}

	store, err := snapshot.NewStore(a.config.SnapshotDir)
	if err != nil {
		fmt.Printf("⚠️  Snapshots disabled: %v\n", err)
	} else {
		a.store = store
		fmt.Printf("📸 Snapshots: %s (press 's')\n", store.Dir())
	}

	if a.config.WebEnabled {
		a.webServer = web.NewServer(a.config.Web, a.store)
		if a.store != nil {
			a.webServer.OnSnapshot = a.RequestSnapshot
		}
	}

	return nil
}

// initEngine builds the measurement engine, replacing the class table when
// a data.yaml is configured.
func (a *App) initEngine() error {
	mcfg := a.config.Measure
	if a.config.DataYAML != "" {
		names, err := detection.LoadClassNames(a.config.DataYAML)
		if err != nil {
			return err
		}
		mcfg.Classes = names
		log.Info("loaded class names", "path", a.config.DataYAML, "classes", len(names))
	}

	engine, err := measure.NewEngine(mcfg)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

// Run starts the main loop and blocks until the stream ends, Escape is
// pressed or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	defer close(a.stopped)

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	fmt.Println("🎬 Running (Esc to quit)")

	loop := &pipeline.Loop{
		Source:   a.source,
		Detector: a.detector,
		Engine:   a.engine,
		Sink:     a.sink,
		Hooks: pipeline.Hooks{
			OnFrame: a.onFrame,
			OnKey:   a.onKey,
		},
	}

	stats, err := loop.Run(ctx)
	log.Info("pipeline stopped",
		"reason", stats.Reason,
		"frames", stats.Frames,
		"detections", stats.Detections,
		"fiducial_frames", stats.FiducialFrames,
		"mm_per_px", stats.Scale.MMPerPx,
	)
	if err != nil {
		return err
	}

	fmt.Printf("👋 Stopped after %d frame(s) (%s)\n", stats.Frames, stats.Reason)
	return nil
}

// onFrame runs on the loop goroutine after the overlay is drawn.
func (a *App) onFrame(frame gocv.Mat, res measure.Result) {
	n := a.frames.Add(1)

	if a.webServer != nil {
		a.webServer.UpdateStatus(n, res)
		a.webServer.PublishFrame(frame)
	}

	select {
	case req := <-a.snapshotReqs:
		rec, err := a.saveSnapshot(frame, res)
		req.reply <- snapshotReply{rec: rec, err: err}
	default:
	}
}

func (a *App) onKey(key int, frame gocv.Mat, res measure.Result) {
	if key != display.KeySnapshot {
		debug.Log("⌨️  key %d ignored\n", key)
		return
	}

	rec, err := a.saveSnapshot(frame, res)
	if err != nil {
		fmt.Printf("⚠️  Snapshot failed: %v\n", err)
		return
	}
	if rec.ScaleValid {
		fmt.Printf("📸 Snapshot %s (%.3f mm/px)\n", rec.ID, rec.MMPerPx)
	} else {
		fmt.Printf("📸 Snapshot %s (no scale yet)\n", rec.ID)
	}
}

func (a *App) saveSnapshot(frame gocv.Mat, res measure.Result) (snapshot.Record, error) {
	if a.store == nil {
		return snapshot.Record{}, errors.New("snapshot store not configured")
	}
	return a.store.Save(frame, res)
}

// RequestSnapshot asks the loop to save the next processed frame and waits
// for the result. It is safe to call from any goroutine.
func (a *App) RequestSnapshot(ctx context.Context) (snapshot.Record, error) {
	req := snapshotRequest{reply: make(chan snapshotReply, 1)}

	select {
	case a.snapshotReqs <- req:
	case <-a.stopped:
		return snapshot.Record{}, ErrStopped
	case <-ctx.Done():
		return snapshot.Record{}, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.rec, r.err
	case <-ctx.Done():
		return snapshot.Record{}, ctx.Err()
	}
}

// Frames returns the number of frames processed so far.
func (a *App) Frames() uint64 {
	return a.frames.Load()
}

// Shutdown releases every component in reverse order of creation.
// Calls after the first do nothing.
func (a *App) Shutdown() {
	a.shutdown.Do(a.release)
}

func (a *App) release() {
	fmt.Println("🛑 Shutting down...")

	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			log.Warn("web shutdown", "error", err)
		}
	}
	if a.sink != nil {
		a.sink.Close()
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
}
