package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharpenUniformGray(t *testing.T) {
	img := filled(t, 3, 3, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	out, err := Sharpen(img)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, pixel(out, 1, 1), "centre sees all taps")
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if x == 1 && y == 1 {
				continue
			}
			// Missing neighbours leave the sum above 128, which clamps to 255.
			assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, pixel(out, x, y), "border pixel (%d,%d)", x, y)
		}
	}
}

func TestSharpenSingleBrightPixel(t *testing.T) {
	img := filled(t, 5, 5, color.NRGBA{A: 255})
	setPixel(img, 2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out, err := Sharpen(img)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, pixel(out, 2, 2))
	for _, p := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		assert.Equal(t, color.NRGBA{A: 255}, pixel(out, p[0], p[1]))
	}
}

func TestSharpenPartialBorderSum(t *testing.T) {
	img := filled(t, 2, 1, color.NRGBA{R: 40, G: 10, B: 0, A: 255})

	out, err := Sharpen(img)
	require.NoError(t, err)

	// 5*40 - 40 for the only in-bounds neighbour.
	assert.Equal(t, uint8(160), pixel(out, 0, 0).R)
	assert.Equal(t, uint8(40), pixel(out, 1, 0).G)
}

func TestSharpenPreservesAlphaAndDimensions(t *testing.T) {
	img := randomImage(t, 37, 23, 7)

	out, err := Sharpen(img)
	require.NoError(t, err)

	require.Equal(t, img.Width, out.Width)
	require.Equal(t, img.Height, out.Height)
	require.Len(t, out.Pix, len(img.Pix))
	for i := 3; i < len(img.Pix); i += 4 {
		assert.Equal(t, img.Pix[i], out.Pix[i], "alpha at byte %d", i)
	}
}

func TestSharpenDoesNotMutateInput(t *testing.T) {
	img := randomImage(t, 16, 16, 3)
	before := append([]uint8(nil), img.Pix...)

	_, err := Sharpen(img)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}

func TestConvolveWorkerCountDoesNotChangeOutput(t *testing.T) {
	img := randomImage(t, 64, 97, 11)

	single, err := Convolve(context.Background(), img, SharpenKernel, 1)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		parallel, err := Convolve(context.Background(), img, SharpenKernel, workers)
		require.NoError(t, err)
		assert.Equal(t, single.Pix, parallel.Pix, "workers=%d", workers)
	}
}

func TestConvolveIdentityKernel(t *testing.T) {
	img := randomImage(t, 9, 5, 5)
	identity := MustKernel([][]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	out, err := Convolve(context.Background(), img, identity, 4)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestConvolveCancelled(t *testing.T) {
	img := randomImage(t, 32, 32, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Convolve(ctx, img, SharpenKernel, 2)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestSharpenRejectsInvalidImages(t *testing.T) {
	tests := []struct {
		name string
		img  *Image
	}{
		{name: "nil", img: nil},
		{name: "zero width", img: &Image{Width: 0, Height: 2, Pix: nil}},
		{name: "zero height", img: &Image{Width: 2, Height: 0, Pix: nil}},
		{name: "short buffer", img: &Image{Width: 2, Height: 2, Pix: make([]uint8, 15)}},
		{name: "long buffer", img: &Image{Width: 2, Height: 2, Pix: make([]uint8, 17)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Sharpen(tc.img)
			require.Error(t, err)
			assert.Nil(t, out)

			var invalid *InvalidImageError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestNewKernelValidation(t *testing.T) {
	_, err := NewKernel(nil)
	require.ErrorIs(t, err, ErrInvalidKernel)

	_, err = NewKernel([][]float64{{1, 0}, {0, 1}})
	require.ErrorIs(t, err, ErrInvalidKernel)

	_, err = NewKernel([][]float64{{0, 0, 0}, {0, 1}, {0, 0, 0}})
	require.ErrorIs(t, err, ErrInvalidKernel)

	k, err := NewKernel([][]float64{{2}})
	require.NoError(t, err)
	assert.Equal(t, 1, k.Size())
	assert.Equal(t, 0, k.Radius())
	assert.Equal(t, 1, SharpenKernel.Radius())
}

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 14, 23))
	src.Set(10, 20, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	src.Set(13, 22, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, pixel(img, 0, 0))
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, pixel(img, 3, 2))

	nrgba := img.NRGBA()
	assert.Equal(t, image.Rect(0, 0, 4, 3), nrgba.Bounds())
}

func filled(t *testing.T, w, h int, c color.NRGBA) *Image {
	t.Helper()

	img, err := New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			setPixel(img, x, y, c)
		}
	}
	return img
}

func randomImage(t *testing.T, w, h int, seed int64) *Image {
	t.Helper()

	img, err := New(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func setPixel(img *Image, x, y int, c color.NRGBA) {
	i := img.offset(x, y)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
}

func pixel(img *Image, x, y int) color.NRGBA {
	i := img.offset(x, y)
	return color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
}
