// Package raster holds the flat RGBA image model and the convolution filters
// that run on it.
package raster

import (
	"fmt"
	"image"
	"image/draw"
)

// Image is a non-premultiplied RGBA raster stored row-major, four bytes per
// pixel.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// InvalidImageError reports a raster whose dimensions and buffer disagree.
type InvalidImageError struct {
	Width  int
	Height int
	PixLen int
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image %dx%d (buffer=%d): %s", e.Width, e.Height, e.PixLen, e.Reason)
}

// New allocates a zeroed raster.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidImageError{Width: width, Height: height, Reason: "dimensions must be positive"}
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}, nil
}

// Validate returns an *InvalidImageError unless the dimensions are positive
// and Pix holds exactly Width*Height*4 bytes.
func (img *Image) Validate() error {
	if img == nil {
		return &InvalidImageError{Reason: "image is nil"}
	}
	if img.Width <= 0 || img.Height <= 0 {
		return &InvalidImageError{Width: img.Width, Height: img.Height, PixLen: len(img.Pix), Reason: "dimensions must be positive"}
	}
	if len(img.Pix) != img.Width*img.Height*4 {
		return &InvalidImageError{Width: img.Width, Height: img.Height, PixLen: len(img.Pix), Reason: "buffer length must equal width*height*4"}
	}
	return nil
}

func (img *Image) offset(x, y int) int {
	return (y*img.Width + x) * 4
}

// FromImage copies any decoded image into a raster anchored at (0, 0).
func FromImage(src image.Image) (*Image, error) {
	bounds := src.Bounds()
	out, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			start := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(out.Pix[y*out.Width*4:(y+1)*out.Width*4], nrgba.Pix[start:start+out.Width*4])
		}
		return out, nil
	}

	dst := &image.NRGBA{Pix: out.Pix, Stride: out.Width * 4, Rect: image.Rect(0, 0, out.Width, out.Height)}
	draw.Draw(dst, dst.Rect, src, bounds.Min, draw.Src)
	return out, nil
}

// NRGBA exposes the raster as an image.Image without copying.
func (img *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}
