package integrator

import (
	"math"
	"sync/atomic"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
	"github.com/study-game-engines/raytracer-hacker/pkg/lights"
)

// Whitted implements recursive Phong shading with hard shadows and mirror reflection.
// The index and lights are read-only, so one Whitted can be shared by all render workers.
type Whitted struct {
	index   geometry.Index
	lights  []*lights.PointLight
	options Options

	primary    atomic.Int64
	shadow     atomic.Int64
	reflection atomic.Int64
}

// NewWhitted creates a new Whitted integrator
func NewWhitted(index geometry.Index, pointLights []*lights.PointLight, options Options) *Whitted {
	return &Whitted{
		index:   index,
		lights:  pointLights,
		options: options,
	}
}

// Options returns the integrator settings
func (w *Whitted) Options() Options {
	return w.options
}

// Shade computes the color for a ray at the given recursion depth
func (w *Whitted) Shade(ray core.Ray, depth int) core.Vec3 {
	if depth == 0 {
		w.primary.Add(1)
	} else {
		w.reflection.Add(1)
	}

	hit := w.index.Nearest(ray)
	if !hit.Ok() {
		if depth == 0 {
			return w.options.Background
		}
		return core.Vec3{}
	}

	point := ray.At(hit.Distance)
	normal := hit.Surface.NormalAt(ray, point)
	props := hit.Surface.Properties()
	ambient := props.Color.Multiply(w.options.Ambience)

	// Without a usable normal only the ambient term is defined
	if normal.IsZero() {
		return ambient.Multiply(float64(len(w.lights)))
	}

	color := core.Vec3{}
	for _, light := range w.lights {
		color = color.Add(ambient)
		if w.inShadow(point, light) {
			continue
		}
		color = color.Add(w.phong(ray, point, normal, props.Color, light))
	}

	if w.options.Reflection && depth < w.options.MaxDepth && props.Class.IsReflective() && props.Reflectivity > 0 {
		reflected := core.NewRay(point, ray.Direction.Reflect(normal))
		color = color.Add(w.Shade(reflected, depth+1).Multiply(props.Reflectivity))
	}

	return color
}

// inShadow reports whether any surface lies between point and the light
func (w *Whitted) inShadow(point core.Vec3, light *lights.PointLight) bool {
	w.shadow.Add(1)
	blocker := w.index.Nearest(light.ShadowRay(point))
	return blocker.Ok() && blocker.Distance < light.DistanceFrom(point)
}

// phong returns the diffuse and specular contribution of one unoccluded light
func (w *Whitted) phong(ray core.Ray, point, normal, surfaceColor core.Vec3, light *lights.PointLight) core.Vec3 {
	toLight := light.DirectionFrom(point)
	halfway := toLight.Subtract(ray.Direction).Normalize()

	diffuse := light.Diffuse * math.Max(0, toLight.Dot(normal))
	specular := light.Specular * math.Pow(math.Max(0, halfway.Dot(normal)), light.Hardness)

	return surfaceColor.Multiply(diffuse + specular)
}

// Counts returns the number of rays traced since the last reset
func (w *Whitted) Counts() RayCounts {
	return RayCounts{
		Primary:    w.primary.Load(),
		Shadow:     w.shadow.Load(),
		Reflection: w.reflection.Load(),
	}
}

// ResetCounts zeroes the ray counters; call between render passes
func (w *Whitted) ResetCounts() {
	w.primary.Store(0)
	w.shadow.Store(0)
	w.reflection.Store(0)
}
