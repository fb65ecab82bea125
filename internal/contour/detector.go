// Package contour turns externally extracted contours into panel rectangles.
package contour

import (
	"fmt"
	"image"
	"sort"

	"panel-segmenter/pkg/geometry"
)

// Contour is a closed boundary reduced to what the detector needs.
type Contour struct {
	Area   float64          `json:"area"`   // Enclosed area (pixels)
	Bounds geometry.RectInt `json:"bounds"` // Axis-aligned bounding box
}

// Source extracts contours from an image. Implementations wrap an image
// processing library; see package cv.
type Source interface {
	// EdgeContours returns the external contours of the image's edge mask.
	EdgeContours(img image.Image) ([]Contour, error)
	// ThresholdContours returns the external contours of an adaptive
	// threshold mask computed with the given block size and bias.
	ThresholdContours(img image.Image, blockSize, bias int) ([]Contour, error)
}

// Stats records how the detector reached its result.
type Stats struct {
	Primary   int // Boxes accepted by the edge pass
	Secondary int // Boxes added by the threshold pass
	Dropped   int // Boxes removed by overlap resolution
}

// Detector finds panel boxes from contours.
type Detector struct {
	src    Source
	params Params
}

// NewDetector creates a Detector reading contours from src.
func NewDetector(src Source, params Params) *Detector {
	return &Detector{src: src, params: params}
}

// Detect returns panel boxes in img coordinates, largest first.
func (d *Detector) Detect(img image.Image) ([]geometry.RectInt, Stats, error) {
	var stats Stats
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	edges, err := d.src.EdgeContours(img)
	if err != nil {
		return nil, stats, fmt.Errorf("edge contours: %w", err)
	}

	var boxes []geometry.RectInt
	for _, c := range edges {
		if d.params.acceptPrimary(c, w, h) {
			boxes = append(boxes, c.Bounds)
		}
	}
	stats.Primary = len(boxes)

	if len(boxes) < d.params.MinPrimary {
		boxes, err = d.secondary(img, boxes, w, h)
		if err != nil {
			return nil, stats, err
		}
		stats.Secondary = len(boxes) - stats.Primary
	}

	kept := Resolve(boxes, d.params.DedupOverlap)
	stats.Dropped = len(boxes) - len(kept)
	return kept, stats, nil
}

// secondary scans adaptive-threshold masks for additional boxes, skipping
// any box that mostly repeats one already accepted.
func (d *Detector) secondary(img image.Image, boxes []geometry.RectInt, w, h int) ([]geometry.RectInt, error) {
	for _, block := range d.params.BlockSizes {
		for _, bias := range d.params.Biases {
			contours, err := d.src.ThresholdContours(img, block, bias)
			if err != nil {
				return nil, fmt.Errorf("threshold contours (block %d, bias %d): %w", block, bias, err)
			}

			for _, c := range contours {
				if !d.params.acceptShape(c, w, h) {
					continue
				}
				if duplicates(c.Bounds, boxes, d.params.DuplicateOverlap) {
					continue
				}
				boxes = append(boxes, c.Bounds)
			}

			if len(boxes) >= d.params.EnoughCandidates {
				return boxes, nil
			}
		}
	}
	return boxes, nil
}

// Resolve keeps boxes largest first, dropping any box that overlaps an
// already kept box by more than maxOverlap of its own area.
//
// This is a greedy heuristic. It does not search for the best
// non-overlapping subset.
func Resolve(boxes []geometry.RectInt, maxOverlap float64) []geometry.RectInt {
	sorted := make([]geometry.RectInt, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Width*sorted[i].Height > sorted[j].Width*sorted[j].Height
	})

	var kept []geometry.RectInt
	for _, box := range sorted {
		if !duplicates(box, kept, maxOverlap) {
			kept = append(kept, box)
		}
	}
	return kept
}

// duplicates reports whether box overlaps any of others by more than
// frac of box's own area.
func duplicates(box geometry.RectInt, others []geometry.RectInt, frac float64) bool {
	own := float64(box.Width * box.Height)
	for _, o := range others {
		if float64(box.OverlapArea(o)) > own*frac {
			return true
		}
	}
	return false
}
