package scene

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
)

// recordingLogger keeps every formatted message
type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) contains(substring string) bool {
	for _, message := range l.messages {
		if strings.Contains(message, substring) {
			return true
		}
	}
	return false
}

func writeTetrahedronSTL(t *testing.T, dir string) string {
	t.Helper()
	facets := [][4][3]float32{
		{{0, 0, -1}, {0, 0, 0}, {0, 1, 0}, {1, 0, 0}},
		{{0, -1, 0}, {0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		{{-1, 0, 0}, {0, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(facets)))
	for _, facet := range facets {
		binary.Write(&buf, binary.LittleEndian, facet)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}

	path := filepath.Join(dir, "tetra.stl")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_DefaultScene(t *testing.T) {
	logger := &recordingLogger{}
	s, err := New(DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Three spheres plus two floor triangles
	if s.GetPrimitiveCount() != 5 {
		t.Errorf("Expected 5 primitives, got %d", s.GetPrimitiveCount())
	}
	if _, ok := s.Index.(*geometry.KDTree); !ok {
		t.Errorf("Expected a KD-tree index, got %T", s.Index)
	}
	if !logger.contains("kd-tree generation") || !logger.contains("Rendering 5 objects") {
		t.Errorf("Expected build logs, got %v", logger.messages)
	}

	// The middle mirror sphere sits on the camera axis at z = 6
	ray := core.NewRay(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 1))
	hit := s.Index.Nearest(ray)
	if _, ok := hit.Surface.(*geometry.Sphere); !ok || math.Abs(hit.Distance-6) > 1e-9 {
		t.Errorf("Expected sphere hit at distance 6, got %+v", hit)
	}
}

func TestNew_LinearIndexWhenKDTreeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KDTree = false

	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := s.Index.(*geometry.LinearIndex); !ok {
		t.Errorf("Expected a linear index, got %T", s.Index)
	}
}

func TestNew_Mesh(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Meshes = []MeshConfig{{
		Path:     writeTetrahedronSTL(t, t.TempDir()),
		Offset:   Vec{0, -1, 2},
		Material: MaterialConfig{Color: RGB{140, 21, 21}, Class: "shiny", Reflectivity: 0.3},
	}}

	s, err := New(cfg, core.NopLogger{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.GetPrimitiveCount() != 9 || len(s.Meshes) != 2 {
		t.Errorf("Expected floor and tetrahedron meshes, got %d primitives in %d meshes", s.GetPrimitiveCount(), len(s.Meshes))
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"invalid config", func(c *Config) { c.Width = 0 }, ErrInvalidConfig},
		{"zero radius sphere", func(c *Config) { c.Spheres[0].Radius = 0 }, geometry.ErrInvalidSphere},
		{"degenerate triangle", func(c *Config) {
			c.Triangles = []TriangleConfig{{Vertices: [3]Vec{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}}}
		}, geometry.ErrDegenerateTriangle},
		{"missing mesh", func(c *Config) {
			c.Meshes = []MeshConfig{{Path: filepath.Join(t.TempDir(), "none.stl")}}
		}, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg, nil); !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestScene_NewRaytracer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 24, 16
	cfg.Background = RGB{0, 0, 255}
	cfg.NumWorkers = 2

	s, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	rt := s.NewRaytracer(core.NopLogger{})

	stats, err := rt.RenderPass(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !stats.Complete(24, 16) {
		t.Errorf("Expected a complete pass, got %+v", stats)
	}
	if stats.Rays.Reflection == 0 {
		t.Error("Expected mirror reflections in the default scene")
	}

	// The top row looks above the horizon at the background
	if got := rt.Framebuffer().At(0, 0); got.B != 255 || got.R != 0 {
		t.Errorf("Expected background in the top-left corner, got %v", got)
	}
}

func TestBuildMaterial(t *testing.T) {
	props, err := buildMaterial("sphere 0", MaterialConfig{Class: "shiny", Reflectivity: 0.4})
	if err != nil || props.Reflectivity != 0.4 {
		t.Fatalf("Unexpected result %+v, %v", props, err)
	}

	tests := []struct {
		label    string
		material MaterialConfig
	}{
		{"sphere 2", MaterialConfig{Class: "glass"}},
		{"floor", MaterialConfig{Reflectivity: 2}},
		{"mesh 1", MaterialConfig{Transparency: -1}},
	}
	for _, tt := range tests {
		_, err := buildMaterial(tt.label, tt.material)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.label, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.label) {
			t.Errorf("Expected error to name %q, got %v", tt.label, err)
		}
	}
}
