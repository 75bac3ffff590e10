package geometry

import (
	"math"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
	props  material.Properties
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, props material.Properties) *Sphere {
	return &Sphere{
		Center: center,
		Radius: radius,
		props:  props,
	}
}

// Intersect returns the nearest root of the ray-sphere quadratic beyond MinHitDistance
func (s *Sphere) Intersect(ray core.Ray) (float64, bool) {
	// Vector from sphere center to ray origin
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root <= MinHitDistance {
		root = (-halfB + sqrtD) / a
		if root <= MinHitDistance {
			return 0, false
		}
	}

	return root, true
}

// NormalAt returns the outward normal (from center to point)
func (s *Sphere) NormalAt(ray core.Ray, point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Normalize()
}

// Properties returns the shading properties
func (s *Sphere) Properties() material.Properties {
	return s.props
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}

// Centroid returns the sphere center
func (s *Sphere) Centroid() core.Vec3 {
	return s.Center
}

// Validate rejects zero, negative and non-finite radii
func (s *Sphere) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return ErrInvalidSphere
	}
	return nil
}
