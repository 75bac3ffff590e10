package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/lights"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// ErrInvalidConfig is wrapped by every configuration validation failure
var ErrInvalidConfig = errors.New("invalid scene config")

// Vec is a JSON [x, y, z] triple
type Vec [3]float64

// Vec3 converts to a core vector
func (v Vec) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// RGB is a JSON [r, g, b] color with 0-255 channels
type RGB [3]uint8

// Vec3 converts to a linear 0-1 color
func (c RGB) Vec3() core.Vec3 {
	return material.FromRGB8(c[0], c[1], c[2])
}

// MaterialConfig describes surface properties
type MaterialConfig struct {
	Color        RGB     `json:"color"`
	Class        string  `json:"class"` // "opaque", "shiny" or "shiny-transparent"
	Reflectivity float64 `json:"reflectivity"`
	Transparency float64 `json:"transparency,omitempty"`
}

// Build validates and converts to material properties
func (m MaterialConfig) Build() (material.Properties, error) {
	class, err := material.ParseClass(m.Class)
	if err != nil {
		return material.Properties{}, err
	}
	if m.Reflectivity < 0 || m.Reflectivity > 1 {
		return material.Properties{}, fmt.Errorf("reflectivity %v outside [0, 1]", m.Reflectivity)
	}
	if m.Transparency < 0 || m.Transparency > 1 {
		return material.Properties{}, fmt.Errorf("transparency %v outside [0, 1]", m.Transparency)
	}
	return material.NewProperties(m.Color.Vec3(), class, m.Reflectivity, m.Transparency), nil
}

// SphereConfig describes one sphere
type SphereConfig struct {
	Center   Vec            `json:"center"`
	Radius   float64        `json:"radius"`
	Material MaterialConfig `json:"material"`
}

// TriangleConfig describes one standalone triangle
type TriangleConfig struct {
	Vertices [3]Vec         `json:"vertices"`
	Material MaterialConfig `json:"material"`
}

// MeshConfig describes a mesh file placed in the scene
type MeshConfig struct {
	Path        string         `json:"path"` // .stl or .ply; relative paths resolve against the config file
	Offset      Vec            `json:"offset"`
	FlipNormals bool           `json:"flipNormals,omitempty"`
	Material    MaterialConfig `json:"material"`
}

// FloorConfig describes the two-triangle ground plane
type FloorConfig struct {
	Y        float64        `json:"y"`
	HalfSize float64        `json:"halfSize"`
	Material MaterialConfig `json:"material"`
}

// LightConfig describes a point light
type LightConfig struct {
	Position Vec     `json:"position"`
	Ambient  float64 `json:"ambient"`
	Diffuse  float64 `json:"diffuse"`
	Specular float64 `json:"specular"`
	Hardness float64 `json:"hardness"`
}

// Build converts to a point light
func (l LightConfig) Build() *lights.PointLight {
	return lights.NewPointLight(l.Position.Vec3(), l.Ambient, l.Diffuse, l.Specular, l.Hardness)
}

// RotationConfig rotates the image plane about an axis through the origin
type RotationConfig struct {
	Enabled  bool    `json:"enabled"`
	AngleDeg float64 `json:"angleDeg"`
	Axis     Vec     `json:"axis"`
}

// Build returns the rotation, or nil when disabled
func (r RotationConfig) Build() *core.Rotation {
	if !r.Enabled {
		return nil
	}
	rotation := core.NewRotation(r.AngleDeg*math.Pi/180, r.Axis.Vec3())
	return &rotation
}

// Config is the complete description of a scene and how to render it
type Config struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Camera Vec `json:"camera"`

	KDTree        bool           `json:"kdTree"`
	Reflection    bool           `json:"reflection"`
	Interpolation bool           `json:"interpolation"`
	Antialiasing  bool           `json:"antialiasing"`
	Subdivisions  int            `json:"subdivisions"`
	RMSWidth      float64        `json:"rmsWidth"`
	MaxDepth      int            `json:"maxDepth"`
	Ambience      float64        `json:"ambience"`
	Background    RGB            `json:"background"`
	Rotation      RotationConfig `json:"rotation"`
	NumWorkers    int            `json:"numWorkers,omitempty"` // 0 uses every logical CPU
	Seed          int64          `json:"seed"`

	Lights    []LightConfig    `json:"lights"`
	Spheres   []SphereConfig   `json:"spheres"`
	Triangles []TriangleConfig `json:"triangles"`
	Meshes    []MeshConfig     `json:"meshes"`
	Floor     *FloorConfig     `json:"floor"` // null removes the floor
}

// DefaultConfig returns the classic scene: a reflective gray floor, three mirror spheres and one light
func DefaultConfig() Config {
	mirror := MaterialConfig{Color: RGB{192, 192, 192}, Class: "shiny", Reflectivity: 0.7, Transparency: 1}

	return Config{
		Name:          "Mirror Spheres",
		Description:   "Three mirror spheres on a reflective floor",
		Width:         800,
		Height:        600,
		Camera:        Vec{0, 0.25, -1},
		KDTree:        true,
		Reflection:    true,
		Interpolation: true,
		Antialiasing:  true,
		Subdivisions:  3,
		RMSWidth:      1,
		MaxDepth:      6,
		Ambience:      0.1,
		Background:    RGB{0, 0, 0},
		Rotation: RotationConfig{
			Enabled:  false,
			AngleDeg: 2 * math.Atan(0.2) * 180 / math.Pi, // unit quaternion (5, 0, 1, 0)
			Axis:     Vec{0, 1, 0},
		},
		Seed: 42,
		Lights: []LightConfig{
			{Position: Vec{0, 4, -3}, Ambient: 0.5, Diffuse: 0.9, Specular: 1.0, Hardness: 1000},
		},
		Spheres: []SphereConfig{
			{Center: Vec{-3, 0, 6}, Radius: 1, Material: mirror},
			{Center: Vec{0, 0, 6}, Radius: 1, Material: mirror},
			{Center: Vec{3, 0, 6}, Radius: 1, Material: mirror},
		},
		Floor: &FloorConfig{
			Y:        -1,
			HalfSize: 10000,
			Material: MaterialConfig{Color: RGB{128, 128, 128}, Class: "shiny", Reflectivity: 0.2, Transparency: 1},
		},
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Meshes {
		if cfg.Meshes[i].Path != "" && !filepath.IsAbs(cfg.Meshes[i].Path) {
			cfg.Meshes[i].Path = filepath.Join(base, cfg.Meshes[i].Path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and materials; geometry itself is checked by New
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Width <= 0 || c.Height <= 0 {
		return invalid("image size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Subdivisions < 1 {
		return invalid("subdivisions %d must be at least 1", c.Subdivisions)
	}
	if c.RMSWidth <= 0 {
		return invalid("rmsWidth %v must be positive", c.RMSWidth)
	}
	if c.MaxDepth < 0 {
		return invalid("maxDepth %d must not be negative", c.MaxDepth)
	}
	if c.Ambience < 0 {
		return invalid("ambience %v must not be negative", c.Ambience)
	}
	if c.Rotation.Enabled && c.Rotation.Axis.Vec3().IsZero() {
		return invalid("rotation axis must not be zero")
	}

	for i, light := range c.Lights {
		if light.Hardness < 0 || light.Diffuse < 0 || light.Specular < 0 {
			return invalid("light %d has negative power", i)
		}
	}
	for i, sphere := range c.Spheres {
		if _, err := sphere.Material.Build(); err != nil {
			return invalid("sphere %d: %v", i, err)
		}
	}
	for i, triangle := range c.Triangles {
		if _, err := triangle.Material.Build(); err != nil {
			return invalid("triangle %d: %v", i, err)
		}
	}
	for i, mesh := range c.Meshes {
		if mesh.Path == "" {
			return invalid("mesh %d has no path", i)
		}
		if _, err := mesh.Material.Build(); err != nil {
			return invalid("mesh %d: %v", i, err)
		}
	}
	if c.Floor != nil {
		if c.Floor.HalfSize <= 0 {
			return invalid("floor halfSize %v must be positive", c.Floor.HalfSize)
		}
		if _, err := c.Floor.Material.Build(); err != nil {
			return invalid("floor: %v", err)
		}
	}

	return nil
}
