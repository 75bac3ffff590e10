package geometry

import (
	"fmt"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// Mesh is a set of triangles plus the vertex adjacency used for normal smoothing.
// It is built once and read-only afterwards, so it can be shared across render workers.
type Mesh struct {
	triangles     []*Triangle
	adjacency     map[core.Vec3][]*Triangle // vertex -> incident triangles
	vertexNormals map[core.Vec3]core.Vec3
	interpolate   bool
	skipped       int // degenerate facets dropped at construction
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Normals     []core.Vec3 // Optional face normals (one per triangle)
	Offset      core.Vec3   // Translation applied to every vertex
	FlipNormals bool        // Reverse the winding of every face
}

// NewMesh creates a mesh from triangles and builds the vertex adjacency map.
// Degenerate triangles are dropped and counted; an empty result is ErrEmptyMesh.
func NewMesh(triangles []*Triangle) (*Mesh, error) {
	m := &Mesh{
		adjacency: make(map[core.Vec3][]*Triangle),
	}

	for _, triangle := range triangles {
		if err := triangle.Validate(); err != nil {
			m.skipped++
			continue
		}
		triangle.mesh = m
		m.triangles = append(m.triangles, triangle)
		for _, vertex := range triangle.Vertices() {
			m.adjacency[vertex] = append(m.adjacency[vertex], triangle)
		}
	}

	if len(m.triangles) == 0 {
		return nil, ErrEmptyMesh
	}
	return m, nil
}

// NewTriangleMesh creates a mesh from vertices and face indices
// vertices: array of 3D points
// faces: array of triangle indices (each group of 3 indices forms a triangle)
// options: optional parameters (can be nil for basic mesh)
func NewTriangleMesh(vertices []core.Vec3, faces []int, props material.Properties, options *TriangleMeshOptions) (*Mesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}

	numTriangles := len(faces) / 3
	if options == nil {
		options = &TriangleMeshOptions{}
	}
	if options.Normals != nil && len(options.Normals) != numTriangles {
		return nil, fmt.Errorf("number of normals (%d) must match number of triangles (%d)", len(options.Normals), numTriangles)
	}

	triangles := make([]*Triangle, 0, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			return nil, fmt.Errorf("face %d index out of bounds", i)
		}

		v0 := vertices[i0].Add(options.Offset)
		v1 := vertices[i1].Add(options.Offset)
		v2 := vertices[i2].Add(options.Offset)
		if options.FlipNormals {
			v1, v2 = v2, v1
		}

		if options.Normals != nil {
			normal := options.Normals[i]
			if options.FlipNormals {
				normal = normal.Negate()
			}
			triangles = append(triangles, NewTriangleWithNormal(v0, v1, v2, normal, props))
		} else {
			triangles = append(triangles, NewTriangle(v0, v1, v2, props))
		}
	}

	return NewMesh(triangles)
}

// SetInterpolation enables or disables vertex-normal smoothing.
// Must be called before rendering starts.
func (m *Mesh) SetInterpolation(enabled bool) {
	m.interpolate = enabled
	if !enabled {
		m.vertexNormals = nil
		return
	}

	m.vertexNormals = make(map[core.Vec3]core.Vec3, len(m.adjacency))
	for vertex, incident := range m.adjacency {
		var sum core.Vec3
		for _, triangle := range incident {
			sum = sum.Add(triangle.normal)
		}
		m.vertexNormals[vertex] = sum.Normalize()
	}
}

// vertexNormal returns the smoothed normal at a mesh vertex, zero if unknown
func (m *Mesh) vertexNormal(vertex core.Vec3) core.Vec3 {
	return m.vertexNormals[vertex]
}

// Triangles returns the mesh facets
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Incident returns the triangles sharing the given vertex
func (m *Mesh) Incident(vertex core.Vec3) []*Triangle {
	return m.adjacency[vertex]
}

// Surfaces returns the facets as surfaces for indexing
func (m *Mesh) Surfaces() []Surface {
	surfaces := make([]Surface, len(m.triangles))
	for i, triangle := range m.triangles {
		surfaces[i] = triangle
	}
	return surfaces
}

// Skipped returns the number of degenerate facets dropped at construction
func (m *Mesh) Skipped() int {
	return m.skipped
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (m *Mesh) BoundingBox() core.AABB {
	bbox := m.triangles[0].BoundingBox()
	for _, triangle := range m.triangles[1:] {
		bbox = bbox.Union(triangle.BoundingBox())
	}
	return bbox
}
