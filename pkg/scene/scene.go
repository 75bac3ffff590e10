package scene

import (
	"fmt"
	"time"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
	"github.com/study-game-engines/raytracer-hacker/pkg/integrator"
	"github.com/study-game-engines/raytracer-hacker/pkg/lights"
	"github.com/study-game-engines/raytracer-hacker/pkg/loaders"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
	"github.com/study-game-engines/raytracer-hacker/pkg/renderer"
)

// Scene contains all the elements needed for rendering.
// It is read-only once New returns.
type Scene struct {
	Config   Config
	Surfaces []geometry.Surface // Every primitive, mesh facets included
	Meshes   []*geometry.Mesh
	Lights   []*lights.PointLight
	Index    geometry.Index
}

// New validates the config, loads meshes and builds the spatial index.
// Malformed geometry fails here, before any render pass starts.
func New(cfg Config, logger core.Logger) (*Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{Config: cfg}

	for _, light := range cfg.Lights {
		s.Lights = append(s.Lights, light.Build())
	}

	for i, sphereCfg := range cfg.Spheres {
		props, err := buildMaterial(fmt.Sprintf("sphere %d", i), sphereCfg.Material)
		if err != nil {
			return nil, err
		}
		sphere := geometry.NewSphere(sphereCfg.Center.Vec3(), sphereCfg.Radius, props)
		if err := sphere.Validate(); err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		s.Surfaces = append(s.Surfaces, sphere)
	}

	for i, triangleCfg := range cfg.Triangles {
		props, err := buildMaterial(fmt.Sprintf("triangle %d", i), triangleCfg.Material)
		if err != nil {
			return nil, err
		}
		v := triangleCfg.Vertices
		triangle := geometry.NewTriangle(v[0].Vec3(), v[1].Vec3(), v[2].Vec3(), props)
		if err := triangle.Validate(); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, err)
		}
		s.Surfaces = append(s.Surfaces, triangle)
	}

	if cfg.Floor != nil {
		props, err := buildMaterial("floor", cfg.Floor.Material)
		if err != nil {
			return nil, err
		}
		floor, err := geometry.NewFloor(cfg.Floor.Y, cfg.Floor.HalfSize, props)
		if err != nil {
			return nil, fmt.Errorf("floor: %w", err)
		}
		s.addMesh(floor)
	}

	for i, meshCfg := range cfg.Meshes {
		props, err := buildMaterial(fmt.Sprintf("mesh %d", i), meshCfg.Material)
		if err != nil {
			return nil, err
		}
		mesh, err := loaders.LoadMesh(meshCfg.Path, meshCfg.Offset.Vec3(), meshCfg.FlipNormals, props, logger)
		if err != nil {
			return nil, err
		}
		s.addMesh(mesh)
	}

	logger.Printf("Rendering %d objects ...\n", len(s.Surfaces))
	s.buildIndex(logger)

	return s, nil
}

// buildMaterial converts a material config, naming the object on failure
func buildMaterial(label string, m MaterialConfig) (material.Properties, error) {
	props, err := m.Build()
	if err != nil {
		return props, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, label, err)
	}
	return props, nil
}

// addMesh registers the facets of a mesh and applies the interpolation setting
func (s *Scene) addMesh(mesh *geometry.Mesh) {
	mesh.SetInterpolation(s.Config.Interpolation)
	s.Meshes = append(s.Meshes, mesh)
	s.Surfaces = append(s.Surfaces, mesh.Surfaces()...)
}

// buildIndex creates the KD-tree, or a linear index when the tree is disabled
func (s *Scene) buildIndex(logger core.Logger) {
	if !s.Config.KDTree {
		s.Index = geometry.NewLinearIndex(s.Surfaces)
		return
	}

	start := time.Now()
	tree := geometry.BuildKDTree(s.Surfaces)
	stats := tree.Stats()
	logger.Printf("kd-tree generation: %v (%d nodes, %d leaves, depth %d, %.1f surfaces/leaf)\n",
		time.Since(start), stats.TotalNodes, stats.LeafNodes, stats.MaxDepth, stats.AvgLeafSize)
	s.Index = tree
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Surfaces)
}

// IntegratorOptions returns the shading settings from the config
func (s *Scene) IntegratorOptions() integrator.Options {
	return integrator.Options{
		Ambience:   s.Config.Ambience,
		MaxDepth:   s.Config.MaxDepth,
		Reflection: s.Config.Reflection,
		Background: s.Config.Background.Vec3(),
	}
}

// RendererConfig returns the sampling and scheduling settings from the config
func (s *Scene) RendererConfig() renderer.Config {
	return renderer.Config{
		Antialiasing: s.Config.Antialiasing,
		Subdivisions: s.Config.Subdivisions,
		RMSWidth:     s.Config.RMSWidth,
		NumWorkers:   s.Config.NumWorkers,
		Seed:         s.Config.Seed,
	}
}

// NewCamera returns the camera described by the config
func (s *Scene) NewCamera() *renderer.Camera {
	camera := renderer.NewCamera(s.Config.Camera.Vec3(), s.Config.Width, s.Config.Height)
	camera.SetRotation(s.Config.Rotation.Build())
	return camera
}

// NewRaytracer wires the camera, a Whitted integrator and a fresh framebuffer
func (s *Scene) NewRaytracer(logger core.Logger) *renderer.Raytracer {
	shader := integrator.NewWhitted(s.Index, s.Lights, s.IntegratorOptions())
	fb := renderer.NewFramebuffer(s.Config.Width, s.Config.Height)
	return renderer.NewRaytracer(s.NewCamera(), shader, fb, s.RendererConfig(), logger)
}
