package geometry

import (
	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// NewQuad creates a two-triangle mesh for the parallelogram spanned by u and v at corner
func NewQuad(corner, u, v core.Vec3, props material.Properties) (*Mesh, error) {
	p0 := corner
	p1 := corner.Add(u)
	p2 := corner.Add(u).Add(v)
	p3 := corner.Add(v)

	return NewMesh([]*Triangle{
		NewTriangle(p0, p1, p2, props),
		NewTriangle(p0, p2, p3, props),
	})
}

// NewFloor creates a square horizontal quad of the given half-size at height y
func NewFloor(y, halfSize float64, props material.Properties) (*Mesh, error) {
	corner := core.NewVec3(-halfSize, y, -halfSize)
	u := core.NewVec3(0, 0, 2*halfSize)
	v := core.NewVec3(2*halfSize, 0, 0)
	return NewQuad(corner, u, v, props)
}
