// Package cv implements the image primitives of the segmenter with OpenCV.
package cv

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"panel-segmenter/internal/contour"
	"panel-segmenter/internal/gridcut"
	"panel-segmenter/pkg/geometry"
)

// Params holds the mask construction settings for contour extraction.
type Params struct {
	EdgeLow     float32 `yaml:"edge_low"`     // Canny thresholds for the edge mask (0-255)
	EdgeHigh    float32 `yaml:"edge_high"`    // Canny high threshold
	DilateSize  int     `yaml:"dilate_size"`  // Square kernel joining edge fragments
	CloseSize   int     `yaml:"close_size"`   // Square kernel closing panel borders
	BlurSize    int     `yaml:"blur_size"`    // Gaussian kernel before adaptive threshold (odd)
	CleanupSize int     `yaml:"cleanup_size"` // Close/open kernel on threshold masks
}

// DefaultParams returns the mask settings.
func DefaultParams() Params {
	return Params{
		EdgeLow:     80,
		EdgeHigh:    200,
		DilateSize:  2,
		CloseSize:   5,
		BlurSize:    5,
		CleanupSize: 7,
	}
}

// Validate rejects settings OpenCV would abort on.
func (p Params) Validate() error {
	if p.EdgeLow < 0 || p.EdgeHigh < p.EdgeLow {
		return fmt.Errorf("cv: edge thresholds %g..%g out of order", p.EdgeLow, p.EdgeHigh)
	}
	if p.BlurSize <= 0 || p.BlurSize%2 == 0 {
		return fmt.Errorf("cv: blur size %d must be odd and positive", p.BlurSize)
	}
	for name, size := range map[string]int{
		"dilate_size":  p.DilateSize,
		"close_size":   p.CloseSize,
		"cleanup_size": p.CleanupSize,
	} {
		if size <= 0 {
			return fmt.Errorf("cv: %s %d must be positive", name, size)
		}
	}
	return nil
}

// OpenCV extracts contours and line segments using gocv. It keeps no
// state between calls and is safe for concurrent use.
type OpenCV struct {
	params Params
}

// New creates an OpenCV extractor.
func New(params Params) *OpenCV {
	return &OpenCV{params: params}
}

// EdgeContours returns external contours of the dilated, closed Canny
// edge mask.
func (o *OpenCV) EdgeContours(img image.Image) ([]contour.Contour, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, o.params.EdgeLow, o.params.EdgeHigh)

	dilateKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{o.params.DilateSize, o.params.DilateSize})
	defer dilateKernel.Close()
	gocv.Dilate(edges, &edges, dilateKernel)

	closeKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{o.params.CloseSize, o.params.CloseSize})
	defer closeKernel.Close()
	gocv.MorphologyEx(edges, &edges, gocv.MorphClose, closeKernel)

	return externalContours(edges), nil
}

// ThresholdContours returns external contours of an inverted Gaussian
// adaptive threshold mask, cleaned by a close and an open.
func (o *OpenCV) ThresholdContours(img image.Image, blockSize, bias int) ([]contour.Contour, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size %d must be odd and >= 3", blockSize)
	}

	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{o.params.BlurSize, o.params.BlurSize}, 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, blockSize, float32(bias))

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{o.params.CleanupSize, o.params.CleanupSize})
	defer kernel.Close()
	gocv.MorphologyEx(thresh, &thresh, gocv.MorphClose, kernel)
	gocv.MorphologyEx(thresh, &thresh, gocv.MorphOpen, kernel)

	return externalContours(thresh), nil
}

// DetectLines runs a smoothed Canny edge pass and a probabilistic Hough
// transform. Canny thresholds in p are on a 0-1 scale.
func (o *OpenCV) DetectLines(img image.Image, p gridcut.Params) ([]geometry.Segment, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	src := gray
	if p.CannySigma > 0 {
		blurred := gocv.NewMat()
		defer blurred.Close()
		k := kernelSize(p.CannySigma)
		gocv.GaussianBlur(gray, &blurred, image.Point{k, k}, p.CannySigma, p.CannySigma, gocv.BorderDefault)
		src = blurred
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, float32(p.CannyLow*255), float32(p.CannyHigh*255))

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, p.HoughThreshold,
		float32(p.HoughLineLength), float32(p.HoughLineGap))

	segs := make([]geometry.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, geometry.Seg(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return segs, nil
}

// kernelSize returns the odd Gaussian kernel covering +-3 sigma.
func kernelSize(sigma float64) int {
	k := int(math.Ceil(sigma*3))*2 + 1
	if k < 3 {
		k = 3
	}
	return k
}

func externalContours(mask gocv.Mat) []contour.Contour {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]contour.Contour, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		out = append(out, contour.Contour{
			Area:   gocv.ContourArea(c),
			Bounds: geometry.FromImageRect(gocv.BoundingRect(c)),
		})
	}
	return out
}

// grayMat converts img to a single channel 8-bit Mat.
func grayMat(img image.Image) (gocv.Mat, error) {
	bgr, err := imageToMat(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

// imageToMat converts img to a BGR Mat.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image %dx%d", w, h)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
