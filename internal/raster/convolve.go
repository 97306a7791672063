package raster

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// minRowsPerBand keeps small images from being split into many tiny tasks.
const minRowsPerBand = 16

// Sharpen applies SharpenKernel using every available CPU.
func Sharpen(img *Image) (*Image, error) {
	return Convolve(context.Background(), img, SharpenKernel, runtime.NumCPU())
}

// Convolve runs kernel over the RGB channels of img and returns a new image.
// Taps that fall outside the image contribute nothing, so border pixels see a
// partial sum. Alpha is copied unchanged. Rows are split into bands handled by
// at most workers goroutines; a cancelled ctx stops the remaining rows and the
// partial output is discarded.
func Convolve(ctx context.Context, img *Image, kernel Kernel, workers int) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if kernel.Size() == 0 || kernel.Size()%2 == 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidKernel, kernel.Size())
	}
	if workers < 1 {
		workers = 1
	}

	out := &Image{
		Width:  img.Width,
		Height: img.Height,
		Pix:    make([]uint8, len(img.Pix)),
	}

	bandRows := (img.Height + workers - 1) / workers
	if bandRows < minRowsPerBand {
		bandRows = minRowsPerBand
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for start := 0; start < img.Height; start += bandRows {
		y0, y1 := start, min(start+bandRows, img.Height)
		p.Go(func(ctx context.Context) error {
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				convolveRow(img, out, kernel, y)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func convolveRow(src, dst *Image, kernel Kernel, y int) {
	size := kernel.Size()
	radius := kernel.Radius()

	for x := 0; x < src.Width; x++ {
		var r, g, b float64
		for ky := 0; ky < size; ky++ {
			py := y + ky - radius
			if py < 0 || py >= src.Height {
				continue
			}
			for kx := 0; kx < size; kx++ {
				px := x + kx - radius
				if px < 0 || px >= src.Width {
					continue
				}
				w := kernel.At(kx, ky)
				if w == 0 {
					continue
				}
				i := src.offset(px, py)
				r += float64(src.Pix[i]) * w
				g += float64(src.Pix[i+1]) * w
				b += float64(src.Pix[i+2]) * w
			}
		}

		o := dst.offset(x, y)
		dst.Pix[o] = clampChannel(r)
		dst.Pix[o+1] = clampChannel(g)
		dst.Pix[o+2] = clampChannel(b)
		dst.Pix[o+3] = src.Pix[o+3]
	}
}

func clampChannel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
