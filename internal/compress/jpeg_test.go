package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressFitsTargetAndMaxDimension(t *testing.T) {
	src := noisyPNG(t, 1600, 900)

	res, err := NewJPEGCompressor().Compress(context.Background(), src, 120_000, 800)
	require.NoError(t, err)

	assert.Equal(t, "jpeg", res.Format)
	assert.Equal(t, 800, res.Width)
	assert.Equal(t, 450, res.Height)
	assert.Less(t, len(res.Data), len(src))

	decoded, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
}

func TestCompressLowerTargetNeverGrowsOutput(t *testing.T) {
	src := noisyPNG(t, 400, 300)
	c := NewJPEGCompressor()

	loose, err := c.Compress(context.Background(), src, 200_000, 1024)
	require.NoError(t, err)
	tight, err := c.Compress(context.Background(), src, 10_000, 1024)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(tight.Data), len(loose.Data))
}

func TestCompressReturnsInputWhenAlreadySmall(t *testing.T) {
	src := noisyPNG(t, 20, 20)

	res, err := NewJPEGCompressor().Compress(context.Background(), src, int64(len(src))+1, 1024)
	require.NoError(t, err)
	assert.Equal(t, src, res.Data)
	assert.Equal(t, "png", res.Format)
	assert.Equal(t, 20, res.Width)
}

func TestCompressRejectsBadInput(t *testing.T) {
	c := NewJPEGCompressor()

	_, err := c.Compress(context.Background(), nil, 1000, 100)
	require.Error(t, err)

	_, err = c.Compress(context.Background(), []byte("not an image"), 1000, 100)
	require.Error(t, err)

	_, err = c.Compress(context.Background(), noisyPNG(t, 4, 4), 0, 100)
	require.Error(t, err)
}

func TestCompressHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJPEGCompressor().Compress(ctx, noisyPNG(t, 300, 200), 1_000, 100)
	require.ErrorIs(t, err, context.Canceled)
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8(rng.Intn(256)),
				B: uint8((y * 255) / h),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
