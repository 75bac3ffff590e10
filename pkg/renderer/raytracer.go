package renderer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/integrator"
)

// ErrRenderInProgress is returned when a pass is started while another is running
var ErrRenderInProgress = errors.New("render pass already in progress")

// Config contains sampling and scheduling settings
type Config struct {
	Antialiasing bool    // Supersample each pixel on a jittered grid
	Subdivisions int     // Grid is Subdivisions x Subdivisions
	RMSWidth     float64 // Gaussian filter RMS width, in sub-cells
	NumWorkers   int     // <= 0 uses all logical CPUs
	Seed         int64   // Base seed for the per-worker jitter generators
}

// DefaultConfig returns 3x3 Gaussian supersampling on every CPU
func DefaultConfig() Config {
	return Config{
		Antialiasing: true,
		Subdivisions: 3,
		RMSWidth:     1.0,
		NumWorkers:   0,
		Seed:         42,
	}
}

// rayCounter is implemented by integrators that count traced rays
type rayCounter interface {
	Counts() integrator.RayCounts
	ResetCounts()
}

// Raytracer renders passes of a scene into a framebuffer
type Raytracer struct {
	camera  *Camera
	shader  integrator.Integrator
	config  Config
	filter  *Filter
	pool    *WorkerPool
	fb      *Framebuffer
	display Display
	logger  core.Logger
	running sync.Mutex
}

// NewRaytracer creates a raytracer that writes into fb
func NewRaytracer(camera *Camera, shader integrator.Integrator, fb *Framebuffer, config Config, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}

	subdivisions := config.Subdivisions
	if !config.Antialiasing || subdivisions < 1 {
		subdivisions = 1
	}

	return &Raytracer{
		camera:  camera,
		shader:  shader,
		config:  config,
		filter:  NewGaussianFilter(subdivisions, config.RMSWidth),
		pool:    NewWorkerPool(config.NumWorkers, logger),
		fb:      fb,
		display: NopDisplay{},
		logger:  logger,
	}
}

// SetDisplay registers the display notified of pixel updates
func (rt *Raytracer) SetDisplay(display Display) {
	if display == nil {
		display = NopDisplay{}
	}
	rt.display = display
}

// Framebuffer returns the output buffer
func (rt *Raytracer) Framebuffer() *Framebuffer {
	return rt.fb
}

// SamplesPerPixel returns the number of primary rays per pixel
func (rt *Raytracer) SamplesPerPixel() int {
	return rt.filter.Size() * rt.filter.Size()
}

// RenderPass renders every pixel once. It blocks until the workers finish and
// returns ctx.Err() alongside partial stats when cancelled.
func (rt *Raytracer) RenderPass(ctx context.Context) (RenderStats, error) {
	if !rt.running.TryLock() {
		return RenderStats{}, ErrRenderInProgress
	}
	defer rt.running.Unlock()

	counter, counts := rt.shader.(rayCounter)
	if counts {
		counter.ResetCounts()
	}

	start := time.Now()
	poolStats := rt.pool.Run(ctx, rt.fb, rt.display, rt.config.Seed, rt.PixelColor)

	stats := RenderStats{
		TotalPixels:     poolStats.Pixels,
		SamplesPerPixel: rt.SamplesPerPixel(),
		SentinelPixels:  poolStats.Sentinel,
		Workers:         rt.pool.GetNumWorkers(),
		Duration:        time.Since(start),
		Cancelled:       poolStats.Cancelled,
	}
	stats.TotalSamples = stats.TotalPixels * int64(stats.SamplesPerPixel)
	if counts {
		stats.Rays = counter.Counts()
	}

	rt.logger.Printf("Render time: %v (%d pixels, %d workers, %.0f rays/s)\n",
		stats.Duration, stats.TotalPixels, stats.Workers, stats.RaysPerSecond())
	if stats.SentinelPixels > 0 {
		rt.logger.Printf("%d pixels failed to render\n", stats.SentinelPixels)
	}

	if stats.Cancelled {
		return stats, ctx.Err()
	}
	return stats, nil
}

// PixelColor computes the unclamped color of pixel (x, y)
func (rt *Raytracer) PixelColor(x, y int, sampler core.Sampler) core.Vec3 {
	point := rt.camera.PlanePoint(x, y)
	if rt.filter.Size() == 1 {
		return rt.shader.Shade(rt.camera.GetRay(point.X, point.Y), 0)
	}
	return rt.supersample(point, sampler)
}

// supersample jitters one ray inside each cell of an N x N grid over the pixel
// and blends the results with the Gaussian filter
func (rt *Raytracer) supersample(point core.Vec2, sampler core.Sampler) core.Vec3 {
	n := rt.filter.Size()
	scale := rt.camera.Scale()
	cell := scale / float64(n)
	startX := point.X - scale/2
	startY := point.Y - scale/2

	color := core.Vec3{}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			jitter := sampler.Get2D()
			x := startX + float64(i)*cell + jitter.X*cell
			y := startY + float64(j)*cell + jitter.Y*cell
			sample := rt.shader.Shade(rt.camera.GetRay(x, y), 0)
			color = color.Add(sample.Multiply(rt.filter.Weight(i, j)))
		}
	}
	return color
}
