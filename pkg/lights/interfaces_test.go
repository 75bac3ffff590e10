package lights

import (
	"math"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

func TestPointLight_Geometry(t *testing.T) {
	light := NewPointLight(core.NewVec3(0, 4, -3), 0.5, 0.9, 1.0, 1000)
	point := core.NewVec3(0, 0, 0)

	if d := light.DistanceFrom(point); math.Abs(d-5) > 1e-12 {
		t.Errorf("Expected distance 5, got %f", d)
	}

	dir := light.DirectionFrom(point)
	if dir.Subtract(core.NewVec3(0, 0.8, -0.6)).Length() > 1e-12 {
		t.Errorf("Unexpected direction %v", dir)
	}

	ray := light.ShadowRay(point)
	if ray.Origin != point || ray.At(5).Subtract(light.Position).Length() > 1e-12 {
		t.Errorf("Shadow ray should reach the light at its distance, got %v", ray.At(5))
	}
}
