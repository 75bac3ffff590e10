package material

import (
	"fmt"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// Class categorises how a surface interacts with reflected light
type Class int

const (
	Opaque Class = iota
	Shiny
	ShinyAndTransparent
)

// String returns the config name of the class
func (c Class) String() string {
	switch c {
	case Opaque:
		return "opaque"
	case Shiny:
		return "shiny"
	case ShinyAndTransparent:
		return "shiny-transparent"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ParseClass converts a config name into a Class
func ParseClass(name string) (Class, error) {
	switch name {
	case "", "opaque":
		return Opaque, nil
	case "shiny":
		return Shiny, nil
	case "shiny-transparent", "shiny_and_transparent":
		return ShinyAndTransparent, nil
	default:
		return Opaque, fmt.Errorf("unknown material class %q", name)
	}
}

// IsReflective reports whether surfaces of this class spawn mirror rays
func (c Class) IsReflective() bool {
	return c == Shiny || c == ShinyAndTransparent
}

// Properties holds the shading parameters of a surface
type Properties struct {
	Color        core.Vec3 // Base color, components in [0, 1]
	Class        Class
	Reflectivity float64 // Weight of the mirrored contribution (0-1)
	Transparency float64 // Reserved for refraction, not used by the shader
}

// NewProperties creates surface properties
func NewProperties(color core.Vec3, class Class, reflectivity, transparency float64) Properties {
	return Properties{
		Color:        color,
		Class:        class,
		Reflectivity: reflectivity,
		Transparency: transparency,
	}
}

// FromRGB8 converts 0-255 color components into a normalized color
func FromRGB8(r, g, b uint8) core.Vec3 {
	return core.NewVec3(float64(r)/255.0, float64(g)/255.0, float64(b)/255.0)
}
