package core

import "math/rand"

// Vec2 represents a 2D sample or image-plane coordinate
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for supersampling jitter.
// Can be swapped out for deterministic testing.
type Sampler interface {
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// ConstantSampler always returns the same sample
type ConstantSampler struct {
	Value Vec2
}

// Get2D returns the fixed sample
func (c ConstantSampler) Get2D() Vec2 {
	return c.Value
}
