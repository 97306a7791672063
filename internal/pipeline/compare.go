package pipeline

import (
	"context"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	defaultCompareSplit  = 50
	defaultOriginalLabel = "Original"
	defaultModifiedLabel = "Compressed"

	labelPad     = 12
	labelPadding = 4
	dividerWidth = 2
)

var (
	labelBackground = color.NRGBA{A: 128}
	labelForeground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	dividerColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// compare renders the current image with the source drawn over the columns
// left of the split, a divider on the split, and a label on each side.
func (t imageTransformer) compare(ctx context.Context, in Input, step domain.PipelineStep) (Rendered, error) {
	current, _, err := decodeImage(in.Current)
	if err != nil {
		return Rendered{}, err
	}
	source, _, err := decodeImage(in.Source)
	if err != nil {
		return Rendered{}, err
	}
	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}

	opts := step.Compare
	if opts == nil {
		opts = &domain.Compare{Split: defaultCompareSplit}
	}

	bounds := current.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if sb := source.Bounds(); sb.Dx() != w || sb.Dy() != h {
		source = resize.Resize(uint(w), uint(h), source, resize.Lanczos3)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), current, bounds.Min, xdraw.Src)

	splitX := splitColumn(w, opts.Split)
	if splitX > 0 {
		xdraw.Draw(dst, image.Rect(0, 0, splitX, h), source, source.Bounds().Min, xdraw.Src)
	}
	drawDivider(dst, splitX)

	drawLabel(dst, labelOr(opts.OriginalLabel, defaultOriginalLabel), "northwest")
	drawLabel(dst, labelOr(opts.ModifiedLabel, defaultModifiedLabel), "northeast")

	format := t.formatFor(step, t.outputFormat)
	data, err := t.encoder.Encode(dst, format, step.Quality)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Data: data, Format: format, Width: w, Height: h}, nil
}

func splitColumn(width int, split float64) int {
	if split < 0 {
		split = 0
	}
	if split > 100 {
		split = 100
	}
	return int(math.Round(float64(width) * split / 100))
}

func drawDivider(dst *image.NRGBA, x int) {
	b := dst.Bounds()
	x0 := clamp(x-dividerWidth/2, b.Min.X, b.Max.X)
	x1 := clamp(x0+dividerWidth, b.Min.X, b.Max.X)
	xdraw.Draw(dst, image.Rect(x0, b.Min.Y, x1, b.Max.Y), image.NewUniform(dividerColor), image.Point{}, xdraw.Over)
}

func drawLabel(dst *image.NRGBA, text, gravity string) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := metrics.Height.Ceil()

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelForeground),
		Face: face,
	}
	width := drawer.MeasureString(text).Ceil()

	x, baseline := labelPosition(dst.Bounds(), width, ascent, gravity)
	box := image.Rect(x-labelPadding, baseline-ascent-labelPadding, x+width+labelPadding, baseline-ascent+height+labelPadding)
	xdraw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(labelBackground), image.Point{}, xdraw.Over)

	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func labelPosition(bounds image.Rectangle, textWidth, ascent int, gravity string) (int, int) {
	minX, minY := bounds.Min.X, bounds.Min.Y
	maxX, maxY := bounds.Max.X, bounds.Max.Y

	baseline := clamp(minY+labelPad+ascent, minY+ascent, maxY)
	switch strings.ToLower(strings.TrimSpace(gravity)) {
	case "northeast":
		return clamp(maxX-textWidth-labelPad, minX, maxX), baseline
	default:
		return clamp(minX+labelPad, minX, maxX), baseline
	}
}

func labelOr(label, fallback string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return fallback
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
