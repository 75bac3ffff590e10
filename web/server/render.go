package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/study-game-engines/raytracer-hacker/pkg/export"
	"github.com/study-game-engines/raytracer-hacker/pkg/renderer"
	"github.com/study-game-engines/raytracer-hacker/pkg/scene"
)

// stopTimeout bounds how long POST /api/stop waits for workers to drain
const stopTimeout = 10 * time.Second

// RenderRequest represents a render request from the client.
// Zero or missing fields keep the scene config's values.
type RenderRequest struct {
	Scene        string `json:"scene"` // ID from /api/scenes
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Subdivisions int    `json:"subdivisions"`
	Workers      int    `json:"workers"`
	KDTree       *bool  `json:"kdTree"`
	Reflection   *bool  `json:"reflection"`
	Antialiasing *bool  `json:"antialiasing"`
}

// Request limits; scene files on disk are trusted and not capped
const (
	maxImageSide    = 8192
	maxWorkers      = 256
	maxSubdivisions = 16
)

// validate rejects overrides outside the request limits
func (req RenderRequest) validate() error {
	switch {
	case req.Width < 0 || req.Width > maxImageSide || req.Height < 0 || req.Height > maxImageSide:
		return fmt.Errorf("image size %dx%d outside 0-%d", req.Width, req.Height, maxImageSide)
	case req.Workers < 0 || req.Workers > maxWorkers:
		return fmt.Errorf("workers %d outside 0-%d", req.Workers, maxWorkers)
	case req.Subdivisions < 0 || req.Subdivisions > maxSubdivisions:
		return fmt.Errorf("subdivisions %d outside 0-%d", req.Subdivisions, maxSubdivisions)
	}
	return nil
}

// apply overrides cfg with the fields set in the request
func (req RenderRequest) apply(cfg *scene.Config) {
	if req.Width > 0 {
		cfg.Width = req.Width
	}
	if req.Height > 0 {
		cfg.Height = req.Height
	}
	if req.Subdivisions > 0 {
		cfg.Subdivisions = req.Subdivisions
	}
	if req.Workers > 0 {
		cfg.NumWorkers = req.Workers
	}
	if req.KDTree != nil {
		cfg.KDTree = *req.KDTree
	}
	if req.Reflection != nil {
		cfg.Reflection = *req.Reflection
	}
	if req.Antialiasing != nil {
		cfg.Antialiasing = *req.Antialiasing
	}
}

// renderJob is one render pass running in the background
type renderJob struct {
	sceneID   string
	scene     *scene.Scene
	raytracer *renderer.Raytracer
	cancel    context.CancelFunc
	done      chan struct{}
	started   time.Time

	// Written once before done is closed
	stats    renderer.RenderStats
	err      error
	finished time.Time
}

// running reports whether the pass is still in progress
func (j *renderJob) running() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// state describes the job for /api/status
func (j *renderJob) state() string {
	switch {
	case j.running():
		return "rendering"
	case errors.Is(j.err, context.Canceled):
		return "cancelled"
	case j.err != nil:
		return "failed"
	default:
		return "done"
	}
}

// StatsResponse represents render statistics
type StatsResponse struct {
	TotalPixels     int64   `json:"totalPixels"`
	TotalSamples    int64   `json:"totalSamples"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	PrimaryRays     int64   `json:"primaryRays"`
	ShadowRays      int64   `json:"shadowRays"`
	ReflectionRays  int64   `json:"reflectionRays"`
	RaysPerSecond   float64 `json:"raysPerSecond"`
	SentinelPixels  int64   `json:"sentinelPixels"`
	Workers         int     `json:"workers"`
	DurationMs      int64   `json:"durationMs"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	State      string         `json:"state"` // "idle", "rendering", "done", "cancelled" or "failed"
	Scene      string         `json:"scene,omitempty"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	Primitives int            `json:"primitives,omitempty"`
	Pixels     int64          `json:"pixels"`   // pixels finished so far
	Progress   float64        `json:"progress"` // 0-1
	ElapsedMs  int64          `json:"elapsedMs"`
	Stats      *StatsResponse `json:"stats,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// currentJob returns the latest job, nil before the first render
func (s *Server) currentJob() *renderJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// handleRender builds the requested scene and starts a pass in the background
func (s *Server) handleRender(c echo.Context) error {
	var req RenderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request: %v", err)
	}
	if err := req.validate(); err != nil {
		return errorResponse(c, http.StatusBadRequest, "%v", err)
	}

	cfg, err := scene.ResolveConfig(s.options.ScenesDir, req.Scene)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "%v", err)
	}
	req.apply(&cfg)

	// Scenes are built without holding s.mu; one build at a time
	if s.busy() || !s.building.CompareAndSwap(false, true) {
		return errorResponse(c, http.StatusConflict, "%v", renderer.ErrRenderInProgress)
	}
	defer s.building.Store(false)

	sceneObj, err := scene.New(cfg, s.logger)
	if err != nil {
		s.logger.Printf("Error building scene %q: %v\n", req.Scene, err)
		return errorResponse(c, http.StatusBadRequest, "%v", err)
	}

	raytracer := sceneObj.NewRaytracer(s.logger)
	raytracer.SetDisplay(s)

	ctx, cancel := context.WithCancel(context.Background())
	job := &renderJob{
		sceneID:   req.Scene,
		scene:     sceneObj,
		raytracer: raytracer,
		cancel:    cancel,
		done:      make(chan struct{}),
		started:   time.Now(),
	}
	if job.sceneID == "" {
		job.sceneID = scene.DefaultSceneID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil && s.job.running() {
		cancel()
		return errorResponse(c, http.StatusConflict, "%v", renderer.ErrRenderInProgress)
	}

	s.dirty.Store(0)
	s.job = job
	go s.run(ctx, job)

	return c.JSON(http.StatusAccepted, s.status(job))
}

// busy reports whether a render pass is still running
func (s *Server) busy() bool {
	job := s.currentJob()
	return job != nil && job.running()
}

// run renders one pass and records its outcome
func (s *Server) run(ctx context.Context, job *renderJob) {
	defer job.cancel()

	stats, err := job.raytracer.RenderPass(ctx)
	job.stats = stats
	job.err = err
	job.finished = time.Now()
	close(job.done)
}

// handleStop cancels the current pass and waits for the workers to finish
func (s *Server) handleStop(c echo.Context) error {
	job := s.currentJob()
	if job == nil {
		return c.JSON(http.StatusOK, StatusResponse{State: "idle"})
	}

	job.cancel()
	select {
	case <-job.done:
	case <-time.After(stopTimeout):
		return errorResponse(c, http.StatusGatewayTimeout, "render did not stop within %v", stopTimeout)
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	}
	return c.JSON(http.StatusOK, s.status(job))
}

// handleStatus reports the progress of the current job
func (s *Server) handleStatus(c echo.Context) error {
	job := s.currentJob()
	if job == nil {
		return c.JSON(http.StatusOK, StatusResponse{State: "idle"})
	}
	return c.JSON(http.StatusOK, s.status(job))
}

// status snapshots the job; stats are included once the pass has ended
func (s *Server) status(job *renderJob) StatusResponse {
	cfg := job.scene.Config
	response := StatusResponse{
		State:      job.state(),
		Scene:      job.sceneID,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Primitives: job.scene.GetPrimitiveCount(),
		Pixels:     s.dirty.Load(),
	}
	response.Progress = float64(response.Pixels) / float64(cfg.Width*cfg.Height)

	if job.running() {
		response.ElapsedMs = time.Since(job.started).Milliseconds()
		return response
	}

	response.ElapsedMs = job.finished.Sub(job.started).Milliseconds()
	response.Stats = &StatsResponse{
		TotalPixels:     job.stats.TotalPixels,
		TotalSamples:    job.stats.TotalSamples,
		SamplesPerPixel: job.stats.SamplesPerPixel,
		PrimaryRays:     job.stats.Rays.Primary,
		ShadowRays:      job.stats.Rays.Shadow,
		ReflectionRays:  job.stats.Rays.Reflection,
		RaysPerSecond:   job.stats.RaysPerSecond(),
		SentinelPixels:  job.stats.SentinelPixels,
		Workers:         job.stats.Workers,
		DurationMs:      job.stats.Duration.Milliseconds(),
	}
	if job.err != nil {
		response.Error = job.err.Error()
	}
	return response
}

// handleFrame returns the current framebuffer as a PNG, even mid-pass
func (s *Server) handleFrame(c echo.Context) error {
	job := s.currentJob()
	if job == nil {
		return errorResponse(c, http.StatusNotFound, "nothing rendered yet")
	}

	img := job.raytracer.Framebuffer().Snapshot()
	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().WriteHeader(http.StatusOK)
	return export.Encode(c.Response(), "png", img)
}

// handleSnapshot saves the framebuffer to the snapshot directory; ?format= picks png, bmp or tiff
func (s *Server) handleSnapshot(c echo.Context) error {
	job := s.currentJob()
	if job == nil {
		return errorResponse(c, http.StatusNotFound, "nothing rendered yet")
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "png"
	}
	path, err := export.SnapshotPath(s.options.SnapshotDir, format)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "%v", err)
	}

	if err := export.Save(path, job.raytracer.Framebuffer().Snapshot()); err != nil {
		s.logger.Printf("Snapshot failed: %v\n", err)
		return errorResponse(c, http.StatusInternalServerError, "%v", err)
	}
	s.logger.Printf("Snapshot saved as %s\n", path)
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}
