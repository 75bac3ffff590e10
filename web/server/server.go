package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/study-game-engines/raytracer-hacker/pkg/scene"
)

// Options configures the web viewer
type Options struct {
	Port        int
	ScenesDir   string    // Directory scanned for *.json scene configs
	SnapshotDir string    // Where POST /api/snapshot writes images
	LogOutput   io.Writer // Mirror of the console log; defaults to stdout
}

// Server serves the framebuffer of the current render over HTTP.
// It is the renderer's Display: workers report finished pixels to Invalidate.
type Server struct {
	options  Options
	logger   *WebLogger
	echo     *echo.Echo
	dirty    atomic.Int64 // pixels written since the current job started
	building atomic.Bool  // a scene is being built for a new job

	mu  sync.Mutex
	job *renderJob
}

// NewServer creates a new web server
func NewServer(options Options) *Server {
	if options.LogOutput == nil {
		options.LogOutput = os.Stdout
	}
	if options.SnapshotDir == "" {
		options.SnapshotDir = "output"
	}

	s := &Server{
		options: options,
		logger:  NewWebLogger(500, options.LogOutput),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(corsMiddleware)

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/console", s.handleConsole)
	e.GET("/api/status", s.handleStatus)
	e.GET("/api/frame", s.handleFrame)
	e.GET("/api/inspect", s.handleInspect)
	e.POST("/api/render", s.handleRender)
	e.POST("/api/stop", s.handleStop)
	e.POST("/api/snapshot", s.handleSnapshot)

	s.echo = e
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Logger returns the console logger shared with render jobs
func (s *Server) Logger() *WebLogger {
	return s.logger
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.options.Port)
	log.Printf("Starting web server on http://localhost%s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops any running render and closes the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job != nil {
		job.cancel()
	}
	return s.echo.Shutdown(ctx)
}

// Invalidate implements renderer.Display
func (s *Server) Invalidate(x, y int) {
	s.dirty.Add(1)
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// errorResponse is the JSON body of every failed request
func errorResponse(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scene and the configs in the scenes directory
func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListScenes(s.options.ScenesDir)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "%v", err)
	}
	return c.JSON(http.StatusOK, scenes)
}

// handleConsole returns log messages, optionally only those after ?since=<RFC3339Nano>
func (s *Server) handleConsole(c echo.Context) error {
	var since time.Time
	if value := c.QueryParam("since"); value != "" {
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid since: %v", err)
		}
		since = parsed
	}
	return c.JSON(http.StatusOK, s.logger.Messages(since))
}
