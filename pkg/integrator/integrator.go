package integrator

import "github.com/study-game-engines/raytracer-hacker/pkg/core"

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Shade computes the unclamped color seen along ray.
	// depth is 0 for primary rays and grows by one per reflection.
	Shade(ray core.Ray, depth int) core.Vec3
}

// Options controls the Whitted integrator
type Options struct {
	Ambience   float64   // Fraction of the surface color always added per light
	MaxDepth   int       // Deepest reflection level that is still shaded
	Reflection bool      // Spawn mirror rays off shiny surfaces
	Background core.Vec3 // Color of primary rays that hit nothing
}

// DefaultOptions returns the classic settings: 10% ambience, six reflection levels, black background
func DefaultOptions() Options {
	return Options{
		Ambience:   0.1,
		MaxDepth:   6,
		Reflection: true,
		Background: core.Vec3{},
	}
}

// RayCounts reports how many rays of each kind were traced
type RayCounts struct {
	Primary    int64
	Shadow     int64
	Reflection int64
}

// Total returns the sum of all ray kinds
func (c RayCounts) Total() int64 {
	return c.Primary + c.Shadow + c.Reflection
}
