package lights

import "github.com/study-game-engines/raytracer-hacker/pkg/core"

// PointLight is an omnidirectional light without distance attenuation
type PointLight struct {
	Position core.Vec3
	Ambient  float64 // Ambient power, carried for configuration symmetry
	Diffuse  float64 // Diffuse power
	Specular float64 // Specular power
	Hardness float64 // Phong exponent
}

// NewPointLight creates a new point light
func NewPointLight(position core.Vec3, ambient, diffuse, specular, hardness float64) *PointLight {
	return &PointLight{
		Position: position,
		Ambient:  ambient,
		Diffuse:  diffuse,
		Specular: specular,
		Hardness: hardness,
	}
}

// DistanceFrom returns the straight-line distance from point to the light
func (l *PointLight) DistanceFrom(point core.Vec3) float64 {
	return l.Position.Subtract(point).Length()
}

// DirectionFrom returns the unit vector from point towards the light
func (l *PointLight) DirectionFrom(point core.Vec3) core.Vec3 {
	return l.Position.Subtract(point).Normalize()
}

// ShadowRay returns the ray from point towards the light
func (l *PointLight) ShadowRay(point core.Vec3) core.Ray {
	return core.RayBetween(point, l.Position)
}
