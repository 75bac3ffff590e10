package renderer

import "math"

// Filter holds normalized reconstruction weights for an N x N sample grid
type Filter struct {
	size    int
	weights []float64
}

// NewGaussianFilter creates an N x N Gaussian filter with the given RMS width.
// Weights are centred on the middle of the grid and sum to one.
func NewGaussianFilter(size int, rms float64) *Filter {
	if size < 1 {
		size = 1
	}
	if rms <= 0 {
		rms = 1
	}

	mid := float64(size-1) / 2
	weights := make([]float64, size*size)
	sum := 0.0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			di, dj := float64(i)-mid, float64(j)-mid
			w := math.Exp(-(di*di + dj*dj) / (2 * rms * rms))
			weights[i*size+j] = w
			sum += w
		}
	}
	for k := range weights {
		weights[k] /= sum
	}

	return &Filter{size: size, weights: weights}
}

// Size returns N
func (f *Filter) Size() int {
	return f.size
}

// Weight returns the weight of sub-cell (i, j)
func (f *Filter) Weight(i, j int) float64 {
	return f.weights[i*f.size+j]
}
