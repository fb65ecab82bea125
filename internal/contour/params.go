package contour

import "fmt"

// Params holds the contour filter and overlap thresholds.
type Params struct {
	// Area bounds as fractions of the image area (exclusive)
	MinAreaFraction float64 `yaml:"min_area_fraction"`
	MaxAreaFraction float64 `yaml:"max_area_fraction"`

	MinPanelSize int     `yaml:"min_panel_size"` // Width and height must exceed this (pixels)
	MinAspect    float64 `yaml:"min_aspect"`     // Width/height lower bound (exclusive)
	MaxAspect    float64 `yaml:"max_aspect"`     // Width/height upper bound (exclusive)

	// A primary box must touch the edge margin or be large.
	EdgeMargin        int     `yaml:"edge_margin"`
	LargeAreaFraction float64 `yaml:"large_area_fraction"`

	DuplicateOverlap float64 `yaml:"duplicate_overlap"` // Threshold pass: skip boxes covered beyond this
	DedupOverlap     float64 `yaml:"dedup_overlap"`     // Final pass: drop boxes covered beyond this

	// Adaptive threshold sweep
	BlockSizes       []int `yaml:"block_sizes"`
	Biases           []int `yaml:"biases"`
	MinPrimary       int   `yaml:"min_primary"`       // Run the sweep below this many edge boxes
	EnoughCandidates int   `yaml:"enough_candidates"` // Stop the sweep at this many boxes
}

// DefaultParams returns the contour detection defaults.
func DefaultParams() Params {
	return Params{
		MinAreaFraction: 0.02,
		MaxAreaFraction: 0.9,

		MinPanelSize: 100,
		MinAspect:    0.2,
		MaxAspect:    10,

		EdgeMargin:        20,
		LargeAreaFraction: 0.05,

		DuplicateOverlap: 0.5,
		DedupOverlap:     0.3,

		BlockSizes:       []int{15, 21},
		Biases:           []int{5, 10},
		MinPrimary:       2,
		EnoughCandidates: 3,
	}
}

// Validate checks that the parameters describe a usable filter.
func (p Params) Validate() error {
	if p.MinAreaFraction < 0 || p.MaxAreaFraction <= p.MinAreaFraction {
		return fmt.Errorf("contour: area fractions out of order: %g..%g", p.MinAreaFraction, p.MaxAreaFraction)
	}
	if p.MinAspect < 0 || p.MaxAspect <= p.MinAspect {
		return fmt.Errorf("contour: aspect bounds out of order: %g..%g", p.MinAspect, p.MaxAspect)
	}
	for _, b := range p.BlockSizes {
		if b < 3 || b%2 == 0 {
			return fmt.Errorf("contour: block size %d must be odd and >= 3", b)
		}
	}
	return nil
}

// acceptShape applies the area, size and aspect filters.
func (p Params) acceptShape(c Contour, w, h int) bool {
	imgArea := float64(w * h)
	if c.Area <= imgArea*p.MinAreaFraction || c.Area >= imgArea*p.MaxAreaFraction {
		return false
	}
	r := c.Bounds
	if r.Width <= p.MinPanelSize || r.Height <= p.MinPanelSize {
		return false
	}
	aspect := r.AspectRatio()
	return aspect > p.MinAspect && aspect < p.MaxAspect
}

// acceptPrimary adds the edge-or-large test on top of acceptShape.
func (p Params) acceptPrimary(c Contour, w, h int) bool {
	if !p.acceptShape(c, w, h) {
		return false
	}
	r := c.Bounds
	m := p.EdgeMargin
	nearEdge := r.X < m || r.Y < m || r.Right() > w-m || r.Bottom() > h-m
	large := c.Area > float64(w*h)*p.LargeAreaFraction
	return nearEdge || large
}
