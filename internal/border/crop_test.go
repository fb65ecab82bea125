package border

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-segmenter/pkg/geometry"
)

func canvas(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func TestCropRemovesDarkMargin(t *testing.T) {
	img := canvas(600, 400, color.Black)
	fill(img, image.Rect(50, 50, 551, 351), color.White)

	cropped, info := Crop(img, DefaultParams())

	assert.Equal(t, CropInfo{X: 45, Y: 45, Width: 511, Height: 311}, info)
	assert.Equal(t, image.Rect(0, 0, 511, 311), cropped.Bounds())

	// Content ends at column 550 and row 350; five pixels of padding follow.
	r, _, _, _ := cropped.At(505, 305).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = cropped.At(506, 306).RGBA()
	assert.Zero(t, r)

	// Pixel (5,5) of the crop is original (50,50): first white pixel.
	r, _, _, _ = cropped.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = cropped.At(0, 0).RGBA()
	assert.Zero(t, r)
}

func TestCropAllBlackReturnsInput(t *testing.T) {
	img := canvas(120, 90, color.Black)

	cropped, info := Crop(img, DefaultParams())

	assert.Same(t, img, cropped)
	assert.Equal(t, CropInfo{Width: 120, Height: 90}, info)
	assert.True(t, info.Full(120, 90))
}

func TestCropThresholdIsExclusive(t *testing.T) {
	img := canvas(50, 50, color.Gray{Y: 15})
	_, info := Crop(img, DefaultParams())
	assert.True(t, info.Full(50, 50), "luminance equal to the threshold counts as black")

	fill(img, image.Rect(20, 20, 21, 21), color.Gray{Y: 16})
	_, info = Crop(img, DefaultParams())
	assert.Equal(t, CropInfo{X: 15, Y: 15, Width: 11, Height: 11}, info)
}

func TestCropNeverGrowsPastImage(t *testing.T) {
	sizes := []image.Rectangle{
		image.Rect(0, 0, 100, 80),   // content touches every edge
		image.Rect(2, 3, 10, 10),    // near top-left
		image.Rect(95, 70, 100, 80), // bottom-right corner
	}
	for _, content := range sizes {
		img := canvas(100, 80, color.Black)
		fill(img, content, color.White)

		cropped, info := Crop(img, DefaultParams())

		assert.GreaterOrEqual(t, info.X, 0)
		assert.GreaterOrEqual(t, info.Y, 0)
		assert.LessOrEqual(t, info.X+info.Width, 100)
		assert.LessOrEqual(t, info.Y+info.Height, 80)
		assert.Equal(t, info.Width, cropped.Bounds().Dx())
		assert.Equal(t, info.Height, cropped.Bounds().Dy())
	}
}

func TestCropHonorsNonZeroOrigin(t *testing.T) {
	base := canvas(200, 200, color.Black)
	fill(base, image.Rect(120, 130, 150, 160), color.White)
	sub := base.SubImage(image.Rect(100, 100, 200, 200))

	cropped, info := Crop(sub, DefaultParams())

	assert.Equal(t, CropInfo{X: 15, Y: 25, Width: 40, Height: 40}, info)
	require.Equal(t, image.Point{}, cropped.Bounds().Min)
}

func TestCropWithoutPaddingKeepsContent(t *testing.T) {
	img := canvas(60, 40, color.Black)
	fill(img, image.Rect(0, 0, 1, 1), color.White)

	cropped, info := Crop(img, Params{BlackThreshold: 15})

	assert.Equal(t, CropInfo{Width: 1, Height: 1}, info)
	assert.Equal(t, image.Rect(0, 0, 1, 1), cropped.Bounds())

	fill(img, image.Rect(10, 20, 30, 25), color.White)
	_, info = Crop(img, Params{BlackThreshold: 15})
	assert.Equal(t, CropInfo{Width: 30, Height: 25}, info)
}

func TestContentBounds(t *testing.T) {
	img := canvas(40, 30, color.Black)
	fill(img, image.Rect(10, 5, 20, 25), color.White)

	r, ok := ContentBounds(img, 15)
	require.True(t, ok)
	assert.Equal(t, geometry.RectInt{X: 10, Y: 5, Width: 10, Height: 20}, r)
}
