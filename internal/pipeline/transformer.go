package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"runtime"
	"strings"

	"github.com/dunamismax/pixelpress/internal/compress"
	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/dunamismax/pixelpress/internal/sizing"
	_ "golang.org/x/image/webp"
)

// DefaultOutputFormat is used whenever a step does not ask for one.
const DefaultOutputFormat = "jpeg"

type Compressor interface {
	Compress(ctx context.Context, input []byte, targetSizeBytes int64, maxDimension int) (compress.Result, error)
}

type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, input []byte) ([]byte, error)
}

type Options struct {
	Compressor   Compressor
	Remover      BackgroundRemover
	Sizing       sizing.Policy
	MaxDimension int
	OutputFormat string
	Workers      int
}

// Input carries the original upload next to the output of the previous step.
type Input struct {
	Source  []byte
	Current []byte
}

type Rendered struct {
	Data        []byte
	Format      string
	Width       int
	Height      int
	TargetBytes int64
}

type Transformer interface {
	Transform(ctx context.Context, in Input, step domain.PipelineStep) (Rendered, error)
}

type imageTransformer struct {
	compressor   Compressor
	remover      BackgroundRemover
	sizing       sizing.Policy
	encoder      Encoder
	maxDimension int
	outputFormat string
	workers      int
}

func NewTransformer(opts Options) (Transformer, error) {
	encoder, err := newEncoder()
	if err != nil {
		return nil, err
	}

	t := imageTransformer{
		compressor:   opts.Compressor,
		remover:      opts.Remover,
		sizing:       opts.Sizing,
		encoder:      encoder,
		maxDimension: opts.MaxDimension,
		outputFormat: normalizeOutputFormat(opts.OutputFormat),
		workers:      opts.Workers,
	}
	if t.compressor == nil {
		t.compressor = compress.NewJPEGCompressor()
	}
	if t.sizing.MinTargetSizeBytes <= 0 {
		t.sizing = sizing.DefaultPolicy
	}
	if t.maxDimension <= 0 {
		t.maxDimension = compress.DefaultMaxDimension
	}
	if strings.TrimSpace(opts.OutputFormat) == "" {
		t.outputFormat = DefaultOutputFormat
	}
	if t.workers <= 0 {
		t.workers = runtime.NumCPU()
	}
	return t, nil
}

func (t imageTransformer) Transform(ctx context.Context, in Input, step domain.PipelineStep) (Rendered, error) {
	select {
	case <-ctx.Done():
		return Rendered{}, ctx.Err()
	default:
	}

	switch domain.NormalizeAction(step.Action) {
	case domain.ActionCompress:
		return t.compress(ctx, in.Current, step)
	case domain.ActionSharpen:
		return t.sharpen(ctx, in.Current, step)
	case domain.ActionRemoveBackground:
		return t.removeBackground(ctx, in.Current, step)
	case domain.ActionCompare:
		return t.compare(ctx, in, step)
	default:
		return Rendered{}, fmt.Errorf("%w: %q", ErrInvalidStepAction, step.Action)
	}
}

func (t imageTransformer) formatFor(step domain.PipelineStep, fallback string) string {
	if strings.TrimSpace(step.Format) != "" {
		return normalizeOutputFormat(step.Format)
	}
	return fallback
}

func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

func normalizeOutputFormat(format string) string {
	switch format = strings.ToLower(strings.TrimSpace(format)); format {
	case "jpg":
		return "jpeg"
	case "jpeg", "png", "webp":
		return format
	default:
		return "png"
	}
}
