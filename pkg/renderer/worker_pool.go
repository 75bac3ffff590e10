package renderer

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// SentinelColor marks pixels whose rendering panicked
var SentinelColor = core.NewVec3(1, 0, 1)

// PixelFunc computes the color of pixel (x, y) using the worker's sampler
type PixelFunc func(x, y int, sampler core.Sampler) core.Vec3

// PoolStats summarises one run of the pool
type PoolStats struct {
	Pixels    int64 // Pixels written
	Sentinel  int64 // Pixels that panicked and got SentinelColor
	Cancelled bool  // Stopped before every pixel was claimed
}

// WorkerPool renders a framebuffer with a fixed number of goroutines.
// Workers claim pixels in scanline order from a shared atomic counter.
type WorkerPool struct {
	numWorkers int
	logger     core.Logger
}

// NewWorkerPool creates a worker pool; numWorkers <= 0 uses DefaultWorkerCount
func NewWorkerPool(numWorkers int, logger core.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &WorkerPool{numWorkers: numWorkers, logger: logger}
}

// DefaultWorkerCount returns the number of logical CPUs
func DefaultWorkerCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run renders every pixel of fb once and blocks until all workers are done.
// Cancelling ctx stops workers at their next pixel claim.
func (wp *WorkerPool) Run(ctx context.Context, fb *Framebuffer, display Display, seed int64, render PixelFunc) PoolStats {
	if display == nil {
		display = NopDisplay{}
	}

	width := fb.Width()
	total := int64(width * fb.Height())

	var next, written, sentinel atomic.Int64
	var cancelled atomic.Bool
	var wg sync.WaitGroup

	for id := 0; id < wp.numWorkers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sampler := core.NewRandomSampler(rand.New(rand.NewSource(seed + int64(id))))

			for {
				if ctx.Err() != nil {
					cancelled.Store(true)
					return
				}

				idx := next.Add(1) - 1
				if idx >= total {
					return
				}

				x, y := int(idx%int64(width)), int(idx/int64(width))
				color, ok := wp.renderPixel(render, x, y, sampler)
				if !ok {
					sentinel.Add(1)
				}

				fb.Set(x, y, color)
				display.Invalidate(x, y)
				written.Add(1)
			}
		}(id)
	}

	wg.Wait()

	return PoolStats{
		Pixels:    written.Load(),
		Sentinel:  sentinel.Load(),
		Cancelled: cancelled.Load() && written.Load() < total,
	}
}

// renderPixel calls render, turning a panic into the sentinel color
func (wp *WorkerPool) renderPixel(render PixelFunc, x, y int, sampler core.Sampler) (color core.Vec3, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Printf("pixel (%d, %d) panicked: %v\n", x, y, r)
			color, ok = SentinelColor, false
		}
	}()
	return render(x, y, sampler), true
}
