package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

func unitTriangle() *Triangle {
	return NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		testProps(),
	)
}

func TestTriangle_Intersect_Parallel(t *testing.T) {
	triangle := unitTriangle()

	tests := []core.Ray{
		core.NewRay(core.NewVec3(-1, 0.2, 0), core.NewVec3(1, 0, 0)), // in plane
		core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(1, 1, 0)),    // above plane
	}

	for _, ray := range tests {
		if d, ok := triangle.Intersect(ray); ok {
			t.Errorf("Expected miss for parallel ray %v, got t=%f", ray, d)
		}
	}
}

func TestTriangle_Intersect_OutsideBounds(t *testing.T) {
	triangle := unitTriangle()

	tests := []struct {
		name string
		x, y float64
	}{
		{"u negative", -0.1, 0.5},
		{"v negative", 0.5, -0.1},
		{"u+v above one", 0.6, 0.6},
		{"far away", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(core.NewVec3(tt.x, tt.y, 2), core.NewVec3(0, 0, -1))
			if d, ok := triangle.Intersect(ray); ok {
				t.Errorf("Expected miss, got t=%f", d)
			}
		})
	}
}

// directIntersection intersects the triangle's plane and checks barycentric bounds
func directIntersection(tri *Triangle, ray core.Ray) (float64, bool) {
	n := tri.V1.Subtract(tri.V0).Cross(tri.V2.Subtract(tri.V0))
	denom := n.Dot(ray.Direction)
	if math.Abs(n.Normalize().Dot(ray.Direction)) < 1e-3 {
		// Grazing rays are too ill-conditioned to compare
		return 0, false
	}
	dist := n.Dot(tri.V0.Subtract(ray.Origin)) / denom
	if dist <= MinHitDistance {
		return 0, false
	}
	w0, w1, w2 := tri.Barycentric(ray.At(dist))
	const eps = 1e-9
	if w0 < -eps || w1 < -eps || w2 < -eps {
		return 0, false
	}
	return dist, true
}

func TestTriangle_Intersect_MatchesBarycentric(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	randomPoint := func() core.Vec3 {
		return core.NewVec3(random.Float64()*4-2, random.Float64()*4-2, random.Float64()*4-2)
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		tri := NewTriangle(randomPoint(), randomPoint(), randomPoint(), testProps())
		if tri.Validate() != nil {
			continue
		}

		// Aim at a point inside the triangle from a random origin
		a, b := random.Float64(), random.Float64()
		if a+b > 1 {
			a, b = 1-a, 1-b
		}
		target := tri.V0.Multiply(1 - a - b).Add(tri.V1.Multiply(a)).Add(tri.V2.Multiply(b))
		origin := core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, 6)
		ray := core.RayBetween(origin, target)

		got, ok := tri.Intersect(ray)
		want, wantOk := directIntersection(tri, ray)
		if !wantOk {
			continue
		}
		if !ok {
			// Grazing rays can fall just outside under rounding
			if math.Min(math.Min(a, b), 1-a-b) > 1e-6 {
				t.Fatalf("Expected hit for interior target %v", target)
			}
			continue
		}
		hits++
		if math.Abs(got-want) > 1e-6*math.Max(1, want) {
			t.Fatalf("Distance mismatch: Möller-Trumbore %f vs barycentric %f", got, want)
		}
	}

	if hits == 0 {
		t.Fatal("Expected some hits")
	}
}

func TestTriangle_NormalFacesRay(t *testing.T) {
	triangle := unitTriangle() // winding normal +Z
	point := core.NewVec3(0.2, 0.2, 0)

	fromAbove := core.NewRay(core.NewVec3(0.2, 0.2, 1), core.NewVec3(0, 0, -1))
	if n := triangle.NormalAt(fromAbove, point); n != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected +Z from above, got %v", n)
	}

	fromBelow := core.NewRay(core.NewVec3(0.2, 0.2, -1), core.NewVec3(0, 0, 1))
	if n := triangle.NormalAt(fromBelow, point); n != core.NewVec3(0, 0, -1) {
		t.Errorf("Expected -Z from below, got %v", n)
	}
}

func TestTriangle_WithNormal(t *testing.T) {
	tri := NewTriangleWithNormal(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, -2), testProps())
	if tri.FaceNormal() != core.NewVec3(0, 0, -1) {
		t.Errorf("Expected provided normal to be normalized, got %v", tri.FaceNormal())
	}

	zero := NewTriangleWithNormal(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 0), testProps())
	if zero.FaceNormal() != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected winding normal fallback, got %v", zero.FaceNormal())
	}
}

func TestTriangle_Validate(t *testing.T) {
	if err := unitTriangle().Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	collinear := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), core.NewVec3(2, 2, 2), testProps())
	if err := collinear.Validate(); err != ErrDegenerateTriangle {
		t.Errorf("Expected ErrDegenerateTriangle, got %v", err)
	}

	repeated := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), testProps())
	if err := repeated.Validate(); err != ErrDegenerateTriangle {
		t.Errorf("Expected ErrDegenerateTriangle, got %v", err)
	}
}

func TestTriangle_Barycentric(t *testing.T) {
	tri := unitTriangle()
	w0, w1, w2 := tri.Barycentric(core.NewVec3(0.25, 0.5, 0))

	if math.Abs(w0-0.25) > 1e-12 || math.Abs(w1-0.25) > 1e-12 || math.Abs(w2-0.5) > 1e-12 {
		t.Errorf("Unexpected weights %f %f %f", w0, w1, w2)
	}
}
