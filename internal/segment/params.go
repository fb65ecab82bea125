package segment

import (
	"errors"
	"fmt"
	"sort"

	"panel-segmenter/internal/border"
	"panel-segmenter/internal/contour"
	"panel-segmenter/internal/gridcut"
	"panel-segmenter/internal/imageio"
	"panel-segmenter/internal/order"
)

// Preset names.
const (
	PresetImproved = "improved"
	PresetClassic  = "classic"
)

// ErrUnknownPreset is returned by Preset for an unregistered name.
var ErrUnknownPreset = errors.New("unknown preset")

// Params bundles every threshold used by the pipeline.
type Params struct {
	Name    string         `yaml:"preset"`
	Border  border.Params  `yaml:"border"`
	Contour contour.Params `yaml:"contour"`
	Lines   gridcut.Params `yaml:"lines"`

	ContourDetection bool `yaml:"contour_detection"`  // Try contours before the line grid
	MinContourPanels int  `yaml:"min_contour_panels"` // Contour result is used from this many panels

	Direction   order.Direction `yaml:"-"`
	JPEGQuality int             `yaml:"jpeg_quality"`
}

// ImprovedParams crops borders, tries contour detection first and falls
// back to a tolerant line grid.
func ImprovedParams() Params {
	return Params{
		Name:             PresetImproved,
		Border:           border.DefaultParams(),
		Contour:          contour.DefaultParams(),
		Lines:            gridcut.DefaultParams(),
		ContourDetection: true,
		MinContourPanels: 2,
		Direction:        order.RightToLeft,
		JPEGQuality:      imageio.DefaultQuality,
	}
}

// ClassicParams uses the strict line grid only.
func ClassicParams() Params {
	p := ImprovedParams()
	p.Name = PresetClassic
	p.Lines = gridcut.ClassicParams()
	p.ContourDetection = false
	return p
}

var presets = map[string]func() Params{
	PresetImproved: ImprovedParams,
	PresetClassic:  ClassicParams,
}

// Preset returns the parameters registered under name. An empty name
// selects the improved preset.
func Preset(name string) (Params, error) {
	if name == "" {
		name = PresetImproved
	}
	fn, ok := presets[name]
	if !ok {
		return Params{}, fmt.Errorf("%w %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	return fn(), nil
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WithDirection returns a copy of params reading in the given direction.
func (p Params) WithDirection(d order.Direction) Params {
	p.Direction = d
	return p
}

// WithJPEGQuality returns a copy of params with a new crop quality.
func (p Params) WithJPEGQuality(q int) Params {
	p.JPEGQuality = q
	return p
}

// Validate checks all component parameters.
func (p Params) Validate() error {
	if p.ContourDetection {
		if err := p.Contour.Validate(); err != nil {
			return err
		}
	}
	if err := p.Lines.Validate(); err != nil {
		return err
	}
	if p.Border.Padding < 0 {
		return fmt.Errorf("border: negative padding %d", p.Border.Padding)
	}
	if p.MinContourPanels < 1 {
		return fmt.Errorf("min contour panels %d must be positive", p.MinContourPanels)
	}
	if p.JPEGQuality < 1 || p.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d must be in [1, 100]", p.JPEGQuality)
	}
	return nil
}
