package imagerender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for display output
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Format is the encoding used for display output
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Options controls how a rendered page is encoded for a display surface
type Options struct {
	Format    Format
	Quality   int
	ColorMode ColorMode
}

// ContentType returns the MIME type for the configured format
func (o Options) ContentType() string {
	if o.Format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode converts a rendered page into bytes for display.
// Returns encoded bytes, width, height, error
func Encode(img image.Image, opts Options) ([]byte, int, int, error) {
	if img == nil {
		return nil, 0, 0, fmt.Errorf("no image to encode")
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var finalImg image.Image = img
	if opts.ColorMode == ColorGray {
		finalImg = imaging.Grayscale(img)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		if err := png.Encode(&buf, finalImg); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to encode PNG: %w", err)
		}
	}

	log.Debug().
		Int("width", width).
		Int("height", height).
		Str("format", string(opts.Format)).
		Str("color", string(opts.ColorMode)).
		Int("bytes", buf.Len()).
		Msg("encoded page for display")

	return buf.Bytes(), width, height, nil
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL returns an inline image URL for HTML output
func DataURL(data []byte, opts Options) string {
	return "data:" + opts.ContentType() + ";base64," + EncodeToBase64(data)
}
