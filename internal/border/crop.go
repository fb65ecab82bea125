// Package border strips uniform dark margins from a page scan.
package border

import (
	"image"
	"image/color"

	"panel-segmenter/internal/imageio"
	"panel-segmenter/pkg/geometry"
)

// Params configures border cropping.
type Params struct {
	BlackThreshold uint8 `yaml:"black_threshold"` // Luminance at or below this is treated as margin
	Padding        int   `yaml:"padding"`         // Pixels kept around the detected content
}

// DefaultParams returns the border cropping defaults.
func DefaultParams() Params {
	return Params{
		BlackThreshold: 15,
		Padding:        5,
	}
}

// CropInfo locates the working region inside the original image.
type CropInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the crop region as a RectInt.
func (c CropInfo) Rect() geometry.RectInt {
	return geometry.RectInt{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// Full reports whether the crop covers an image of the given size entirely.
func (c CropInfo) Full(width, height int) bool {
	return c.X == 0 && c.Y == 0 && c.Width == width && c.Height == height
}

// Crop removes dark margins from img. The returned image always has its
// origin at (0,0); CropInfo is relative to img.Bounds().Min.
//
// If no pixel is brighter than the threshold, img is returned unchanged
// with a full-extent CropInfo.
func Crop(img image.Image, p Params) (image.Image, CropInfo) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	content, ok := ContentBounds(img, p.BlackThreshold)
	if !ok {
		return img, CropInfo{Width: w, Height: h}
	}

	// Padding is applied on every side; the far edges are exclusive.
	x1 := max(0, content.X-p.Padding)
	y1 := max(0, content.Y-p.Padding)
	x2 := min(w, content.Right()+p.Padding)
	y2 := min(h, content.Bottom()+p.Padding)

	info := CropInfo{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	return imageio.Extract(img, info.Rect()), info
}

// ContentBounds returns the inclusive bounding box (as a RectInt whose
// Width/Height count pixels) of all pixels with luminance above threshold,
// relative to img.Bounds().Min. ok is false when every pixel is dark.
func ContentBounds(img image.Image, threshold uint8) (geometry.RectInt, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	minX, minY := w, h
	maxX, maxY := -1, -1

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if luminance(img.At(b.Min.X+x, b.Min.Y+y)) <= threshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return geometry.RectInt{}, false
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, true
}

// luminance uses the ITU-R 601 weights, the same as OpenCV's RGB2GRAY.
func luminance(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}
