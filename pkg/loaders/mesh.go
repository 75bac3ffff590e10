package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// LoadMesh reads an STL or PLY file into a mesh, translated by offset.
// Degenerate facets are dropped and logged; a file without usable facets is an error.
func LoadMesh(path string, offset core.Vec3, flipNormals bool, props material.Properties, logger core.Logger) (*geometry.Mesh, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	start := time.Now()

	vertices, faces, normals, err := readMeshFile(path)
	if err != nil {
		return nil, err
	}

	mesh, err := geometry.NewTriangleMesh(vertices, faces, props, &geometry.TriangleMeshOptions{
		Normals:     normals,
		Offset:      offset,
		FlipNormals: flipNormals,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}

	if mesh.Skipped() > 0 {
		logger.Printf("Mesh %s: skipped %d degenerate facets\n", filepath.Base(path), mesh.Skipped())
	}
	bounds := mesh.BoundingBox()
	logger.Printf("Loaded mesh %s: %d triangles in %v, bounds %v to %v\n",
		filepath.Base(path), len(mesh.Triangles()), time.Since(start), bounds.Min, bounds.Max)

	return mesh, nil
}

// readMeshFile dispatches on the file extension
func readMeshFile(path string) (vertices []core.Vec3, faces []int, normals []core.Vec3, err error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		data, err := LoadSTL(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mesh %s: %w", path, err)
		}
		faces := make([]int, len(data.Vertices))
		for i := range faces {
			faces[i] = i
		}
		return data.Vertices, faces, data.Normals, nil
	case ".ply":
		data, err := LoadPLY(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mesh %s: %w", path, err)
		}
		return data.Vertices, data.Faces, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("mesh %s: unsupported extension %q", path, ext)
	}
}
