package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

const defaultJPEGQuality = 80

// Encoder turns a decoded image into a container format.
type Encoder interface {
	Encode(img image.Image, format string, quality int) ([]byte, error)
}

type stdlibEncoder struct{}

func (stdlibEncoder) Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch normalizeOutputFormat(format) {
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = defaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		return nil, errors.New("webp export requires govips build tag")
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return buf.Bytes(), nil
}
