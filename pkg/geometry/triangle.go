package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// degenerateTolerance is the minimum distance of a vertex from the opposite edge
const degenerateTolerance = 1e-12

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	props      material.Properties
	normal     core.Vec3 // Cached face normal
	bbox       core.AABB // Cached bounding box
	mesh       *Mesh     // Owning mesh, nil for standalone triangles
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3, props material.Properties) *Triangle {
	t := &Triangle{
		V0:    v0,
		V1:    v1,
		V2:    v2,
		props: props,
	}

	t.computeNormal()
	t.bbox = core.NewAABBFromPoints(t.V0, t.V1, t.V2)

	return t
}

// NewTriangleWithNormal creates a new triangle with a precomputed face normal.
// A zero normal falls back to the winding normal.
func NewTriangleWithNormal(v0, v1, v2 core.Vec3, normal core.Vec3, props material.Properties) *Triangle {
	t := NewTriangle(v0, v1, v2, props)
	if n := normal.Normalize(); !n.IsZero() {
		t.normal = n
	}
	return t
}

// computeNormal calculates and caches the triangle's winding normal
func (t *Triangle) computeNormal() {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	t.normal = edge1.Cross(edge2).Normalize()
}

// Vertices returns the three vertices in winding order
func (t *Triangle) Vertices() [3]core.Vec3 {
	return [3]core.Vec3{t.V0, t.V1, t.V2}
}

// Intersect tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Intersect(ray core.Ray) (float64, bool) {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	distance := f * edge2.Dot(q)
	if distance <= MinHitDistance {
		return 0, false
	}

	return distance, true
}

// Barycentric returns the weights of V0, V1 and V2 for a point in the triangle's plane
func (t *Triangle) Barycentric(point core.Vec3) (w0, w1, w2 float64) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	rel := point.Subtract(t.V0)

	d11 := edge1.Dot(edge1)
	d12 := edge1.Dot(edge2)
	d22 := edge2.Dot(edge2)
	dp1 := rel.Dot(edge1)
	dp2 := rel.Dot(edge2)

	denom := d11*d22 - d12*d12
	if denom == 0 {
		return 1, 0, 0
	}
	w1 = (d22*dp1 - d12*dp2) / denom
	w2 = (d11*dp2 - d12*dp1) / denom
	return 1 - w1 - w2, w1, w2
}

// NormalAt returns the shading normal facing against the incoming ray.
// When the owning mesh has interpolation enabled the vertex normals are blended
// with barycentric weights; a blend that cancels out falls back to the face normal.
func (t *Triangle) NormalAt(ray core.Ray, point core.Vec3) core.Vec3 {
	normal := t.normal
	if t.mesh != nil && t.mesh.interpolate {
		w0, w1, w2 := t.Barycentric(point)
		blended := t.mesh.vertexNormal(t.V0).Multiply(w0).
			Add(t.mesh.vertexNormal(t.V1).Multiply(w1)).
			Add(t.mesh.vertexNormal(t.V2).Multiply(w2)).
			Normalize()
		if !blended.IsZero() {
			normal = blended
		}
	}

	if normal.Dot(ray.Direction) > 0 {
		return normal.Negate()
	}
	return normal
}

// FaceNormal returns the triangle's unit face normal in winding orientation
func (t *Triangle) FaceNormal() core.Vec3 {
	return t.normal
}

// Properties returns the shading properties
func (t *Triangle) Properties() material.Properties {
	return t.props
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Centroid returns the mean of the three vertices
func (t *Triangle) Centroid() core.Vec3 {
	return core.FromR3(t.r3().Centroid())
}

// Validate rejects triangles whose vertices are (nearly) collinear
func (t *Triangle) Validate() error {
	if t.r3().IsDegenerate(degenerateTolerance) || t.normal.IsZero() {
		return ErrDegenerateTriangle
	}
	return nil
}

func (t *Triangle) r3() r3.Triangle {
	return r3.Triangle{t.V0.R3(), t.V1.R3(), t.V2.R3()}
}
