package gridcut

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Params holds line detection and grid construction parameters.
// Size-dependent values are stored as fractions of the image size and
// resolved by Derive.
type Params struct {
	// Line detector settings, passed through to the line source
	HoughThreshold  int     `yaml:"hough_threshold"`   // Accumulator votes required
	HoughLineLength int     `yaml:"hough_line_length"` // Minimum segment length (pixels)
	HoughLineGap    int     `yaml:"hough_line_gap"`    // Maximum gap joined into one segment (pixels)
	CannySigma      float64 `yaml:"canny_sigma"`       // Gaussian smoothing before edge detection
	CannyLow        float64 `yaml:"canny_low"`         // Hysteresis thresholds on a 0-1 intensity scale
	CannyHigh       float64 `yaml:"canny_high"`

	AngleDeviation float64 `yaml:"angle_deviation"` // Degrees from horizontal/vertical still accepted
	MergeDistance  int     `yaml:"merge_distance"`  // Largest gap bridged by a collinear merge

	// Cuts closer to the page edge than these fractions are ignored
	WidthBorderFactor  float64 `yaml:"width_border_factor"`
	HeightBorderFactor float64 `yaml:"height_border_factor"`

	// Minimum cutting line length as a fraction of width/height
	HorLineLengthFactor float64 `yaml:"hor_line_length_factor"`
	VerLineLengthFactor float64 `yaml:"ver_line_length_factor"`

	// Parallel cuts closer than factor*mean(width,height), capped, collapse
	ParallelMergeFactor float64 `yaml:"parallel_merge_factor"`
	ParallelMergeCap    int     `yaml:"parallel_merge_cap"`
}

// DefaultParams returns the tolerant parameter set used after the border
// crop and contour pass.
func DefaultParams() Params {
	return Params{
		HoughThreshold:  50,
		HoughLineLength: 30,
		HoughLineGap:    5,
		CannySigma:      1.5,
		CannyLow:        0.1,
		CannyHigh:       0.2,

		AngleDeviation: 5,
		MergeDistance:  math.MaxInt32, // any two collinear segments merge

		WidthBorderFactor:  0.05,
		HeightBorderFactor: 0.05,

		HorLineLengthFactor: 0.2,
		VerLineLengthFactor: 0.15,

		ParallelMergeFactor: 0.15,
		ParallelMergeCap:    80,
	}
}

// ClassicParams returns the strict parameter set: exact orthogonals only,
// long lines, wide page borders.
func ClassicParams() Params {
	return Params{
		HoughThreshold:  70,
		HoughLineLength: 60,
		HoughLineGap:    1,
		CannySigma:      1,
		CannyLow:        0.1,
		CannyHigh:       0.2,

		AngleDeviation: 0,
		MergeDistance:  math.MaxInt32,

		WidthBorderFactor:  0.1,
		HeightBorderFactor: 0.09,

		HorLineLengthFactor: 0.4,
		VerLineLengthFactor: 0.22,

		ParallelMergeFactor: 0.1,
		ParallelMergeCap:    50,
	}
}

// WithAngleDeviation returns a copy of params with a new angle tolerance.
func (p Params) WithAngleDeviation(deg float64) Params {
	p.AngleDeviation = deg
	return p
}

// WithMergeDistance returns a copy of params with a finite collinear merge gap.
func (p Params) WithMergeDistance(px int) Params {
	p.MergeDistance = px
	return p
}

// Validate rejects parameters that cannot produce a grid or that the line
// detector would refuse.
func (p Params) Validate() error {
	if p.HoughThreshold <= 0 {
		return fmt.Errorf("gridcut: hough threshold %d must be positive", p.HoughThreshold)
	}
	if p.HoughLineLength < 0 || p.HoughLineGap < 0 {
		return fmt.Errorf("gridcut: negative hough line length %d or gap %d", p.HoughLineLength, p.HoughLineGap)
	}
	if p.CannySigma < 0 {
		return fmt.Errorf("gridcut: negative canny sigma %g", p.CannySigma)
	}
	if p.CannyLow < 0 || p.CannyLow > p.CannyHigh || p.CannyHigh > 1 {
		return fmt.Errorf("gridcut: canny thresholds %g..%g must satisfy 0 <= low <= high <= 1", p.CannyLow, p.CannyHigh)
	}
	if p.AngleDeviation < 0 || p.AngleDeviation >= 45 {
		return fmt.Errorf("gridcut: angle deviation %g must be in [0, 45)", p.AngleDeviation)
	}
	if p.MergeDistance < 0 {
		return fmt.Errorf("gridcut: negative merge distance %d", p.MergeDistance)
	}
	for name, f := range map[string]float64{
		"width_border_factor":    p.WidthBorderFactor,
		"height_border_factor":   p.HeightBorderFactor,
		"hor_line_length_factor": p.HorLineLengthFactor,
		"ver_line_length_factor": p.VerLineLengthFactor,
		"parallel_merge_factor":  p.ParallelMergeFactor,
	} {
		if f < 0 || f >= 1 {
			return fmt.Errorf("gridcut: %s %g must be in [0, 1)", name, f)
		}
	}
	if p.ParallelMergeCap < 0 {
		return fmt.Errorf("gridcut: negative parallel merge cap %d", p.ParallelMergeCap)
	}
	return nil
}

// Limits are Params resolved against a concrete image size (pixels).
type Limits struct {
	WidthBorder  int
	HeightBorder int
	HorLength    int
	VerLength    int
	MergeDst     int
}

// Derive resolves the size-relative parameters for a width x height image.
func (p Params) Derive(width, height int) Limits {
	mean := stat.Mean([]float64{float64(width), float64(height)}, nil)
	return Limits{
		WidthBorder:  int(p.WidthBorderFactor * float64(width)),
		HeightBorder: int(p.HeightBorderFactor * float64(height)),
		HorLength:    int(p.HorLineLengthFactor * float64(width)),
		VerLength:    int(p.VerLineLengthFactor * float64(height)),
		MergeDst:     min(int(p.ParallelMergeFactor*mean), p.ParallelMergeCap),
	}
}
