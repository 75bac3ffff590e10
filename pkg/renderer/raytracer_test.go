package renderer

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
	"github.com/study-game-engines/raytracer-hacker/pkg/integrator"
	"github.com/study-game-engines/raytracer-hacker/pkg/lights"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
)

// MockIntegrator shades rays with a fixed function
type MockIntegrator struct {
	shadeFn func(ray core.Ray, depth int) core.Vec3
}

func (m MockIntegrator) Shade(ray core.Ray, depth int) core.Vec3 {
	return m.shadeFn(ray, depth)
}

func constantIntegrator(c core.Vec3) MockIntegrator {
	return MockIntegrator{shadeFn: func(core.Ray, int) core.Vec3 { return c }}
}

// directionIntegrator maps ray direction to color so sample placement is visible
func directionIntegrator() MockIntegrator {
	return MockIntegrator{shadeFn: func(ray core.Ray, depth int) core.Vec3 {
		return core.NewVec3(ray.Direction.X+0.5, ray.Direction.Y+0.5, 0.5)
	}}
}

func newTestRaytracer(width, height int, shader integrator.Integrator, config Config) *Raytracer {
	camera := NewCamera(core.NewVec3(0, 0, -1), width, height)
	return NewRaytracer(camera, shader, NewFramebuffer(width, height), config, core.NopLogger{})
}

func TestRaytracer_SingleSubdivisionMatchesSingleSample(t *testing.T) {
	single := DefaultConfig()
	single.Antialiasing = false

	oneByOne := DefaultConfig()
	oneByOne.Subdivisions = 1

	a := newTestRaytracer(16, 12, directionIntegrator(), single)
	b := newTestRaytracer(16, 12, directionIntegrator(), oneByOne)

	// Jitter is never consulted for a 1x1 grid, so even different samplers agree
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			ca := a.PixelColor(x, y, core.ConstantSampler{Value: core.NewVec2(0.1, 0.9)})
			cb := b.PixelColor(x, y, core.ConstantSampler{Value: core.NewVec2(0.7, 0.2)})
			if ca != cb {
				t.Fatalf("Pixel (%d, %d): %v vs %v", x, y, ca, cb)
			}
		}
	}
	if a.SamplesPerPixel() != 1 || b.SamplesPerPixel() != 1 {
		t.Errorf("Expected one sample per pixel, got %d and %d", a.SamplesPerPixel(), b.SamplesPerPixel())
	}
}

func TestRaytracer_SupersampleConstant(t *testing.T) {
	c := core.NewVec3(0.25, 0.5, 0.75)
	rt := newTestRaytracer(8, 8, constantIntegrator(c), DefaultConfig())

	got := rt.PixelColor(3, 4, core.ConstantSampler{Value: core.NewVec2(0.5, 0.5)})
	if got.Subtract(c).Length() > 1e-12 {
		t.Errorf("Expected normalized weights to preserve %v, got %v", c, got)
	}
	if rt.SamplesPerPixel() != 9 {
		t.Errorf("Expected 9 samples per pixel, got %d", rt.SamplesPerPixel())
	}
}

func TestRaytracer_SupersampleStaysInPixel(t *testing.T) {
	var rays []core.Ray
	recorder := MockIntegrator{shadeFn: func(ray core.Ray, depth int) core.Vec3 {
		rays = append(rays, ray)
		return core.Vec3{}
	}}
	rt := newTestRaytracer(10, 10, recorder, DefaultConfig())
	camera := rt.camera

	for _, jitter := range []core.Vec2{{X: 0, Y: 0}, {X: 0.999, Y: 0.999}} {
		rays = rays[:0]
		rt.PixelColor(5, 5, core.ConstantSampler{Value: jitter})
		if len(rays) != 9 {
			t.Fatalf("Expected 9 rays, got %d", len(rays))
		}

		centre := camera.PlanePoint(5, 5)
		half := camera.Scale() / 2
		for _, ray := range rays {
			// Eye is at z = -1, so the plane point is origin + direction / direction.Z
			hit := ray.At(1 / ray.Direction.Z)
			if hit.X < centre.X-half-1e-12 || hit.X > centre.X+half+1e-12 ||
				hit.Y < centre.Y-half-1e-12 || hit.Y > centre.Y+half+1e-12 {
				t.Errorf("Sample %v outside pixel footprint around %v", hit, centre)
			}
		}
	}
}

func TestRaytracer_RenderPassStats(t *testing.T) {
	rt := newTestRaytracer(8, 6, constantIntegrator(core.NewVec3(1, 1, 1)), DefaultConfig())

	stats, err := rt.RenderPass(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !stats.Complete(8, 6) || stats.TotalSamples != 8*6*9 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if got := rt.Framebuffer().At(7, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white, got %v", got)
	}
}

func TestRaytracer_RenderPassCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rt := newTestRaytracer(8, 8, constantIntegrator(core.Vec3{}), DefaultConfig())
	stats, err := rt.RenderPass(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !stats.Cancelled {
		t.Error("Expected cancelled stats")
	}
}

func TestRaytracer_SphereScene(t *testing.T) {
	background := core.NewVec3(0.2, 0.4, 0.6)
	gray := material.NewProperties(core.NewVec3(0.5, 0.5, 0.5), material.Opaque, 0, 0)

	floor, err := geometry.NewFloor(-1, 1000, gray)
	if err != nil {
		t.Fatal(err)
	}
	surfaces := append(floor.Surfaces(), geometry.NewSphere(core.NewVec3(0, 0, 4), 1, gray))

	options := integrator.DefaultOptions()
	options.Background = background
	whitted := integrator.NewWhitted(
		geometry.BuildKDTree(surfaces),
		[]*lights.PointLight{lights.NewPointLight(core.NewVec3(0, 4, -3), 0.5, 0.9, 1.0, 1000)},
		options,
	)

	config := DefaultConfig()
	config.NumWorkers = 4
	rt := newTestRaytracer(32, 32, whitted, config)

	stats, err := rt.RenderPass(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.Rays.Primary != 32*32*9 || stats.Rays.Shadow == 0 {
		t.Errorf("Unexpected ray counts %+v", stats.Rays)
	}

	fb := rt.Framebuffer()
	if centre := fb.At(16, 16); centre.R == 0 && centre.G == 0 && centre.B == 0 {
		t.Error("Expected the sphere to be visible in the centre pixel")
	}
	if corner := fb.At(0, 0); corner != ToRGBA(background) {
		t.Errorf("Expected background %v in the corner, got %v", ToRGBA(background), corner)
	}
}
