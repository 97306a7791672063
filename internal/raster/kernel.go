package raster

import (
	"errors"
	"fmt"
)

// ErrInvalidKernel is wrapped by every NewKernel failure.
var ErrInvalidKernel = errors.New("invalid convolution kernel")

// Kernel is an odd-sized square matrix of weights.
type Kernel struct {
	size    int
	weights []float64
}

// SharpenKernel boosts the centre and subtracts the four direct neighbours.
// Its weights sum to 1, so flat regions pass through unchanged.
var SharpenKernel = MustKernel([][]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
})

// NewKernel copies rows into a Kernel, rejecting empty, even-sized and
// non-square matrices.
func NewKernel(rows [][]float64) (Kernel, error) {
	size := len(rows)
	if size == 0 {
		return Kernel{}, fmt.Errorf("%w: kernel is empty", ErrInvalidKernel)
	}
	if size%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: size %d is even", ErrInvalidKernel, size)
	}

	weights := make([]float64, 0, size*size)
	for i, row := range rows {
		if len(row) != size {
			return Kernel{}, fmt.Errorf("%w: row %d has %d weights, want %d", ErrInvalidKernel, i, len(row), size)
		}
		weights = append(weights, row...)
	}
	return Kernel{size: size, weights: weights}, nil
}

// MustKernel is NewKernel that panics on invalid input.
func MustKernel(rows [][]float64) Kernel {
	k, err := NewKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

// Size is the number of rows (and columns).
func (k Kernel) Size() int {
	return k.size
}

// Radius is the offset from the kernel centre to its edge.
func (k Kernel) Radius() int {
	return k.size / 2
}

// At returns the weight in column kx of row ky.
func (k Kernel) At(kx, ky int) float64 {
	return k.weights[ky*k.size+kx]
}
