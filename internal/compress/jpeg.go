// Package compress shrinks encoded images toward a byte budget.
package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024

	minQuality = 5
	maxQuality = 92
)

// Result is the compressed payload and its dimensions.
type Result struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// JPEGCompressor fits the image inside MaxDimension and searches for the
// highest JPEG quality whose output stays within the target size.
type JPEGCompressor struct {
	Filter imaging.ResampleFilter
}

func NewJPEGCompressor() JPEGCompressor {
	return JPEGCompressor{Filter: imaging.Lanczos}
}

// Compress returns the input untouched when it already fits the budget and
// needs no downscaling. When no quality reaches the target, the smallest
// attempt is returned.
func (c JPEGCompressor) Compress(ctx context.Context, input []byte, targetSizeBytes int64, maxDimension int) (Result, error) {
	if len(input) == 0 {
		return Result{}, errors.New("compress: input is empty")
	}
	if targetSizeBytes <= 0 {
		return Result{}, fmt.Errorf("compress: target size must be positive, got %d", targetSizeBytes)
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode source image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Result{}, errors.New("source image has invalid dimensions")
	}

	_, srcFormat, _ := image.DecodeConfig(bytes.NewReader(input))

	resized := bounds.Dx() > maxDimension || bounds.Dy() > maxDimension
	if !resized && int64(len(input)) <= targetSizeBytes {
		return Result{Data: input, Format: normalizeFormat(srcFormat), Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	img := src
	if resized {
		img = imaging.Fit(src, maxDimension, maxDimension, c.filter())
	}

	best, err := c.search(ctx, img, targetSizeBytes)
	if err != nil {
		return Result{}, err
	}

	if !resized && len(best) >= len(input) {
		return Result{Data: input, Format: normalizeFormat(srcFormat), Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	out := img.Bounds()
	return Result{Data: best, Format: "jpeg", Width: out.Dx(), Height: out.Dy()}, nil
}

// search binary-searches quality. It keeps the best fitting encoding, or the
// smallest one if nothing fits.
func (c JPEGCompressor) search(ctx context.Context, img image.Image, target int64) ([]byte, error) {
	var (
		fitting  []byte
		smallest []byte
	)

	lo, hi := minQuality, maxQuality
	for lo <= hi {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := (lo + hi) / 2
		data, err := encodeJPEG(img, q)
		if err != nil {
			return nil, err
		}

		if smallest == nil || len(data) < len(smallest) {
			smallest = data
		}
		if int64(len(data)) <= target {
			fitting = data
			lo = q + 1
		} else {
			hi = q - 1
		}
	}

	if fitting != nil {
		return fitting, nil
	}
	return smallest, nil
}

func (c JPEGCompressor) filter() imaging.ResampleFilter {
	if c.Filter.Kernel == nil {
		return imaging.Lanczos
	}
	return c.Filter
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg quality=%d: %w", quality, err)
	}
	return buf.Bytes(), nil
}

func normalizeFormat(format string) string {
	switch format {
	case "jpg", "":
		return "jpeg"
	default:
		return format
	}
}
