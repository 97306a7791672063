package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunamismax/pixelpress/internal/domain"
	"github.com/dunamismax/pixelpress/internal/sizing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProcessor_CompressSharpenCompare(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.png")
	outputDir := filepath.Join(tmp, "out")

	srcBytes := buildTestPNG(t, 240, 120)
	require.NoError(t, os.WriteFile(inputPath, srcBytes, 0o644))

	processor, err := NewLocalProcessor(outputDir, Options{})
	require.NoError(t, err)

	result, err := processor.Process(context.Background(), Request{
		JobID:      "job-local-1",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline: []domain.PipelineStep{
			{ID: "compressed", Action: domain.ActionCompress, Strength: 80, MaxDimension: 120},
			{ID: "sharpened", Action: domain.ActionSharpen},
			{ID: "slider", Action: domain.ActionCompare, Format: "png", Compare: &domain.Compare{Split: 25}},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Outputs, 3)
	assert.Equal(t, len(srcBytes), result.SourceBytes)

	compressed := result.Outputs[0]
	assert.Equal(t, "jpeg", compressed.Format)
	assert.Equal(t, 120, compressed.Width)
	assert.Equal(t, 60, compressed.Height)
	wantTarget, err := sizing.TargetSizeBytes(int64(len(srcBytes)), 80)
	require.NoError(t, err)
	assert.Equal(t, wantTarget, compressed.TargetBytes)
	verifyImageSize(t, compressed.Path, 120, 60)

	sharpened := result.Outputs[1]
	assert.Equal(t, "jpeg", sharpened.Format, "sharpened output keeps the fixed default format")
	verifyImageSize(t, sharpened.Path, 120, 60)

	slider := result.Outputs[2]
	assert.Equal(t, "png", slider.Format)
	verifyImageSize(t, slider.Path, 120, 60)
}

func TestLocalProcessor_SharpenPreservesAlphaInPNG(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.png")

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 90, B: 90, A: uint8(x * 30)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(inputPath, buf.Bytes(), 0o644))

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"), Options{Workers: 2})
	require.NoError(t, err)

	result, err := processor.Process(context.Background(), Request{
		JobID:      "job-alpha",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "sharp", Action: domain.ActionSharpen, Format: "png"}},
	})
	require.NoError(t, err)

	f, err := os.Open(result.Outputs[0].Path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)

	for x := 0; x < 8; x++ {
		_, _, _, a := decoded.At(x, 3).RGBA()
		assert.Equal(t, uint32(x*30), a>>8, "alpha at x=%d", x)
	}
}

func TestLocalProcessor_RemoveBackground(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.png")
	require.NoError(t, os.WriteFile(inputPath, buildTestPNG(t, 30, 20), 0o644))

	remover := &fakeRemover{out: buildTestPNG(t, 30, 20)}
	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"), Options{Remover: remover})
	require.NoError(t, err)

	result, err := processor.Process(context.Background(), Request{
		JobID:      "job-bg",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "cutout", Action: domain.ActionRemoveBackground}},
	})
	require.NoError(t, err)
	require.True(t, remover.called)

	cutout := result.Outputs[0]
	assert.Equal(t, "png", cutout.Format)
	assert.Equal(t, 30, cutout.Width)
	assert.Equal(t, 20, cutout.Height)
}

func TestLocalProcessor_RemoveBackgroundWithoutRemover(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.png")
	require.NoError(t, os.WriteFile(inputPath, buildTestPNG(t, 10, 10), 0o644))

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"), Options{})
	require.NoError(t, err)

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-bg-missing",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "cutout", Action: domain.ActionRemoveBackground}},
	})
	require.Error(t, err)
}

func TestLocalProcessor_UnsupportedSourceType(t *testing.T) {
	processor, err := NewLocalProcessor(t.TempDir(), Options{})
	require.NoError(t, err)

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-unsupported",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/job/source",
		Pipeline:   []domain.PipelineStep{{ID: "small", Action: domain.ActionCompress, Strength: 50}},
	})
	require.ErrorIs(t, err, ErrUnsupportedSourceType)
}

func TestLocalProcessor_InvalidAction(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "input.png")
	require.NoError(t, os.WriteFile(inputPath, buildTestPNG(t, 10, 10), 0o644))

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"), Options{})
	require.NoError(t, err)

	_, err = processor.Process(context.Background(), Request{
		JobID:      "job-bad-action",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Pipeline:   []domain.PipelineStep{{ID: "wm", Action: "watermark"}},
	})
	require.ErrorIs(t, err, ErrInvalidStepAction)
}

func TestObjectStoreStages(t *testing.T) {
	store := &memoryObjects{objects: map[string][]byte{"uploads/job-9/source": buildTestPNG(t, 64, 32)}}

	processor, err := NewObjectStoreProcessor(
		ObjectStoreFetcher{Storage: store},
		ObjectStoreEmitter{Storage: store, OutputPrefix: "/results/"},
		Options{},
	)
	require.NoError(t, err)

	result, err := processor.Process(context.Background(), Request{
		JobID:      "job-9",
		SourceType: domain.SourceTypeS3Presigned,
		ObjectKey:  "uploads/job-9/source",
		Pipeline:   []domain.PipelineStep{{ID: "crisp", Action: domain.ActionSharpen}},
	})
	require.NoError(t, err)

	out := result.Outputs[0]
	assert.Equal(t, "results/job-9/crisp.jpeg", out.Path)
	assert.Equal(t, "image/jpeg", store.contentTypes[out.Path])
	assert.NotEmpty(t, store.objects[out.Path])
}

func TestSplitColumn(t *testing.T) {
	assert.Equal(t, 0, splitColumn(200, -5))
	assert.Equal(t, 50, splitColumn(200, 25))
	assert.Equal(t, 100, splitColumn(200, 50))
	assert.Equal(t, 200, splitColumn(200, 140))
}

type fakeRemover struct {
	out    []byte
	called bool
}

func (f *fakeRemover) RemoveBackground(_ context.Context, _ []byte) ([]byte, error) {
	f.called = true
	return f.out, nil
}

type memoryObjects struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func (m *memoryObjects) ReadObject(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *memoryObjects) WriteObject(_ context.Context, key string, data []byte, contentType string) error {
	if m.contentTypes == nil {
		m.contentTypes = make(map[string]string)
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func buildTestPNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func verifyImageSize(t *testing.T, path string, wantW, wantH int) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, wantW, img.Bounds().Dx())
	assert.Equal(t, wantH, img.Bounds().Dy())
}
