package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/dunamismax/pixelpress/internal/raster"
)

func (t imageTransformer) compress(ctx context.Context, input []byte, step domain.PipelineStep) (Rendered, error) {
	target, err := t.sizing.TargetSizeBytes(int64(len(input)), step.Strength)
	if err != nil {
		return Rendered{}, fmt.Errorf("target size: %w", err)
	}

	maxDimension := step.MaxDimension
	if maxDimension <= 0 {
		maxDimension = t.maxDimension
	}

	res, err := t.compressor.Compress(ctx, input, target, maxDimension)
	if err != nil {
		return Rendered{}, fmt.Errorf("compress: %w", err)
	}

	out := Rendered{
		Data:        res.Data,
		Format:      res.Format,
		Width:       res.Width,
		Height:      res.Height,
		TargetBytes: target,
	}

	// Re-encode only when the compressor's container differs from the one
	// requested, or is one we cannot emit (an untouched GIF source).
	if want := t.formatFor(step, normalizeOutputFormat(res.Format)); want != out.Format {
		img, _, err := decodeImage(res.Data)
		if err != nil {
			return Rendered{}, err
		}
		data, err := t.encoder.Encode(img, want, step.Quality)
		if err != nil {
			return Rendered{}, err
		}
		out.Data, out.Format = data, want
	}
	return out, nil
}

func (t imageTransformer) sharpen(ctx context.Context, input []byte, step domain.PipelineStep) (Rendered, error) {
	src, _, err := decodeImage(input)
	if err != nil {
		return Rendered{}, err
	}

	img, err := raster.FromImage(src)
	if err != nil {
		return Rendered{}, err
	}

	sharpened, err := raster.Convolve(ctx, img, raster.SharpenKernel, t.workers)
	if err != nil {
		return Rendered{}, fmt.Errorf("sharpen: %w", err)
	}

	format := t.formatFor(step, t.outputFormat)
	data, err := t.encoder.Encode(sharpened.NRGBA(), format, step.Quality)
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{
		Data:   data,
		Format: format,
		Width:  sharpened.Width,
		Height: sharpened.Height,
	}, nil
}

func (t imageTransformer) removeBackground(ctx context.Context, input []byte, step domain.PipelineStep) (Rendered, error) {
	if t.remover == nil {
		return Rendered{}, fmt.Errorf("remove background: no remover configured")
	}

	cutout, err := t.remover.RemoveBackground(ctx, input)
	if err != nil {
		return Rendered{}, fmt.Errorf("remove background: %w", err)
	}

	cfg, srcFormat, err := image.DecodeConfig(bytes.NewReader(cutout))
	if err != nil {
		return Rendered{}, fmt.Errorf("decode background removal output: %w", err)
	}

	format := t.formatFor(step, "png")
	if normalizeOutputFormat(srcFormat) == format {
		return Rendered{Data: cutout, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := decodeImage(cutout)
	if err != nil {
		return Rendered{}, err
	}
	data, err := t.encoder.Encode(img, format, step.Quality)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
