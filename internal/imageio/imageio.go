// Package imageio decodes page images and encodes panel crops.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"panel-segmenter/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used for panel crops.
const DefaultQuality = 75

// ErrEmptyInput is returned when there is no image data to decode.
var ErrEmptyInput = errors.New("no input data provided")

// DecodeBase64 decodes a base64 image. A data URL prefix
// ("data:image/png;base64,") and surrounding whitespace are accepted.
func DecodeBase64(s string) (image.Image, string, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, "", ErrEmptyInput
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients strip the padding.
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, "", fmt.Errorf("failed to decode base64: %w", err)
		}
	}
	return Decode(data)
}

// Decode decodes image bytes in any registered format.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyInput
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Extract copies region r (relative to img.Bounds().Min) into a new RGBA
// image with origin (0,0). The region is clamped to the image.
func Extract(img image.Image, r geometry.RectInt) *image.RGBA {
	b := img.Bounds()
	src := r.ImageRect().Add(b.Min).Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	return dst
}

// EncodeJPEG encodes img as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// CropBase64 extracts region r from img and returns it as base64 JPEG.
func CropBase64(img image.Image, r geometry.RectInt, quality int) (string, error) {
	sub := Extract(img, r)
	if sub.Bounds().Empty() {
		return "", fmt.Errorf("empty region %dx%d at (%d,%d)", r.Width, r.Height, r.X, r.Y)
	}
	data, err := EncodeJPEG(sub, quality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
