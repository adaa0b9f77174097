// Package web serves a live preview of the annotated stream and the current
// measurement over HTTP and websockets.
package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fiducial/internal/log"
	"github.com/teslashibe/go-fiducial/pkg/hub"
	"github.com/teslashibe/go-fiducial/pkg/measure"
	"github.com/teslashibe/go-fiducial/pkg/snapshot"
)

// Defaults for the preview server.
const (
	DefaultPort            = "8080"
	DefaultPreviewWidth    = 640
	DefaultPreviewQuality  = 75
	DefaultPreviewInterval = 100 * time.Millisecond
	DefaultStaticDir       = "./web"

	snapshotTimeout = 3 * time.Second
)

// Config configures the preview server.
type Config struct {
	Port string `yaml:"port"`

	// PreviewWidth is the width preview frames are downscaled to. 0 keeps
	// the capture size.
	PreviewWidth    int           `yaml:"preview_width"`
	PreviewQuality  int           `yaml:"preview_quality"`
	PreviewInterval time.Duration `yaml:"preview_interval"`

	StaticDir string `yaml:"static_dir"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		PreviewWidth:    DefaultPreviewWidth,
		PreviewQuality:  DefaultPreviewQuality,
		PreviewInterval: DefaultPreviewInterval,
		StaticDir:       DefaultStaticDir,
	}
}

// Server is the preview and status server
type Server struct {
	app    *fiber.App
	config Config

	status   Status
	statusMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	frameHub  *hub.Hub

	lastPreview time.Time
	previewMu   sync.Mutex

	store *snapshot.Store

	// OnSnapshot captures the next processed frame. Set by the owner of the
	// pipeline; requests fail with 503 while it is nil.
	OnSnapshot func(ctx context.Context) (snapshot.Record, error)

	cancel   context.CancelFunc
	cancelMu sync.Mutex
}

// NewServer creates a new preview server. store may be nil, in which case
// the snapshot listing endpoints answer 503.
func NewServer(cfg Config, store *snapshot.Store) *Server {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.PreviewQuality <= 0 || cfg.PreviewQuality > 100 {
		cfg.PreviewQuality = DefaultPreviewQuality
	}

	s := &Server{
		config:    cfg,
		store:     store,
		statusHub: hub.New("status"),
		frameHub:  hub.New("frames"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Fiducial Preview",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/snapshot", s.handleTakeSnapshot)
	api.Get("/snapshots", s.handleListSnapshots)
	api.Get("/snapshots/:id", s.handleGetSnapshot)
	api.Get("/snapshots/:id/image", s.handleSnapshotImage)
	api.Delete("/snapshots/:id", s.handleDeleteSnapshot)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()

	go s.statusHub.Run(ctx)
	go s.frameHub.Run(ctx)

	fmt.Printf("🌐 Preview: http://localhost:%s\n", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			fmt.Printf("⚠️  Web server error: %v\n", err)
		}
	}()
}

// UpdateStatus records the measurement for a processed frame and pushes it
// to status clients.
func (s *Server) UpdateStatus(frame uint64, res measure.Result) {
	st := NewStatus(frame, res, time.Now())

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		log.Warn("status broadcast failed", "error", err)
	}
}

// Status returns the latest status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	st := s.status
	s.statusMu.RUnlock()

	st.PreviewClients = s.frameHub.ClientCount()
	return st
}

// PreviewClients returns the number of connected preview viewers.
func (s *Server) PreviewClients() int {
	return s.frameHub.ClientCount()
}

// PublishJPEG sends an encoded frame to preview clients.
func (s *Server) PublishJPEG(data []byte) {
	s.frameHub.BroadcastBinary(data)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.cancelMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancelMu.Unlock()
	return s.app.Shutdown()
}
