package renderer

import (
	"time"

	"github.com/study-game-engines/raytracer-hacker/pkg/integrator"
)

// RenderStats contains statistics about one render pass
type RenderStats struct {
	TotalPixels     int64 // Pixels written this pass
	TotalSamples    int64 // Primary rays traced
	SamplesPerPixel int   // N x N when supersampling, otherwise 1
	Rays            integrator.RayCounts
	SentinelPixels  int64         // Pixels that failed and show SentinelColor
	Workers         int           // Goroutines used
	Duration        time.Duration // Wall time of the pass
	Cancelled       bool          // Pass was stopped before finishing
}

// RaysPerSecond returns the total ray throughput of the pass
func (s RenderStats) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Rays.Total()) / s.Duration.Seconds()
}

// Complete reports whether every pixel was written
func (s RenderStats) Complete(width, height int) bool {
	return !s.Cancelled && s.TotalPixels == int64(width*height)
}
