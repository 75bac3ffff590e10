package geometry

import (
	"errors"
	"math"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// MinHitDistance is the smallest distance accepted as a hit.
// Anything closer is treated as the ray origin touching its own surface.
const MinHitDistance = 1e-6

var (
	ErrInvalidSphere      = errors.New("sphere radius must be positive and finite")
	ErrDegenerateTriangle = errors.New("triangle has zero area")
	ErrEmptyMesh          = errors.New("mesh has no triangles")
)

// Surface interface for objects that can be hit by rays
type Surface interface {
	// Intersect returns the nearest distance > MinHitDistance along the ray
	Intersect(ray core.Ray) (float64, bool)
	// NormalAt returns the unit shading normal at point for the given incoming ray
	NormalAt(ray core.Ray, point core.Vec3) core.Vec3
	Properties() material.Properties
	BoundingBox() core.AABB
	Centroid() core.Vec3
	// Validate reports malformed geometry
	Validate() error
}

// Hit is the result of a nearest-hit query. A nil Surface means the ray missed.
type Hit struct {
	Surface  Surface
	Distance float64
}

// Miss returns the "no hit" result
func Miss() Hit {
	return Hit{Distance: math.Inf(1)}
}

// Ok reports whether the query found a surface
func (h Hit) Ok() bool {
	return h.Surface != nil
}

// closer reports whether h should replace other as the nearest hit
func (h Hit) closer(other Hit) bool {
	if !h.Ok() {
		return false
	}
	return !other.Ok() || h.Distance < other.Distance
}

// Index answers nearest-hit queries over a fixed set of surfaces
type Index interface {
	Nearest(ray core.Ray) Hit
}

// LinearIndex tests every surface; used when the KD-tree is disabled
type LinearIndex struct {
	surfaces []Surface
}

// NewLinearIndex creates a brute-force index over surfaces
func NewLinearIndex(surfaces []Surface) *LinearIndex {
	surfacesCopy := make([]Surface, len(surfaces))
	copy(surfacesCopy, surfaces)
	return &LinearIndex{surfaces: surfacesCopy}
}

// Nearest returns the closest surface hit by ray
func (li *LinearIndex) Nearest(ray core.Ray) Hit {
	return nearestOf(li.surfaces, ray)
}

// nearestOf scans surfaces keeping the smallest positive distance
func nearestOf(surfaces []Surface, ray core.Ray) Hit {
	best := Miss()
	for _, surface := range surfaces {
		if t, ok := surface.Intersect(ray); ok && t < best.Distance {
			best = Hit{Surface: surface, Distance: t}
		}
	}
	return best
}
