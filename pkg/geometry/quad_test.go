package geometry

import (
	"math"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

func TestNewFloor_HitFromAbove(t *testing.T) {
	floor, err := NewFloor(-1, 100, testProps())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(floor.Triangles()) != 2 {
		t.Fatalf("Expected 2 triangles, got %d", len(floor.Triangles()))
	}

	index := NewLinearIndex(floor.Surfaces())
	ray := core.RayBetween(core.NewVec3(0, 0, 0), core.NewVec3(0.3, -1, 0.7))
	hit := index.Nearest(ray)
	if !hit.Ok() {
		t.Fatal("Expected floor hit")
	}

	point := ray.At(hit.Distance)
	if math.Abs(point.Y+1) > 1e-9 {
		t.Errorf("Expected hit at y=-1, got %v", point)
	}

	normal := hit.Surface.NormalAt(ray, point)
	if normal.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-9 {
		t.Errorf("Expected upward normal facing the viewer, got %v", normal)
	}
}

func TestNewQuad_Degenerate(t *testing.T) {
	_, err := NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(2, 0, 0), testProps())
	if err != ErrEmptyMesh {
		t.Errorf("Expected ErrEmptyMesh for collinear edges, got %v", err)
	}
}
