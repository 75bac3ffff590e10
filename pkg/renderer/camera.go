package renderer

import (
	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// Camera is a pinhole eye looking through the z = 0 image plane.
// The shorter image side spans one world unit.
type Camera struct {
	Eye      core.Vec3
	width    int
	height   int
	scale    float64
	rotation *core.Rotation
}

// NewCamera creates a camera for an image of width x height pixels
func NewCamera(eye core.Vec3, width, height int) *Camera {
	return &Camera{
		Eye:    eye,
		width:  width,
		height: height,
		scale:  1.0 / float64(min(width, height)),
	}
}

// SetRotation rotates every sample point about the origin before a ray is cast.
// nil disables rotation.
func (c *Camera) SetRotation(rotation *core.Rotation) {
	c.rotation = rotation
}

// Scale returns the world size of one pixel
func (c *Camera) Scale() float64 {
	return c.scale
}

// PlanePoint maps pixel (px, py) to image plane coordinates; y grows upwards.
// The centre is width/2, height/2 in integer pixels, so for odd sizes the
// middle pixel lies exactly on the optical axis.
func (c *Camera) PlanePoint(px, py int) core.Vec2 {
	return core.NewVec2(
		float64(px-c.width/2)*c.scale,
		float64(c.height/2-py)*c.scale,
	)
}

// GetRay returns the ray from the eye through image plane point (x, y, 0)
func (c *Camera) GetRay(x, y float64) core.Ray {
	target := core.NewVec3(x, y, 0)
	if c.rotation != nil {
		target = c.rotation.Rotate(target)
	}
	return core.RayBetween(c.Eye, target)
}
