// Package segment runs the panel segmentation pipeline: border crop,
// contour detection, line-grid fallback and reading order.
package segment

import (
	"errors"
	"fmt"
	"image"
	"log"

	"panel-segmenter/internal/border"
	"panel-segmenter/internal/contour"
	"panel-segmenter/internal/gridcut"
	"panel-segmenter/internal/imageio"
	"panel-segmenter/internal/order"
	"panel-segmenter/pkg/geometry"
)

// ErrNoExtractor is returned by New when no image collaborator is given.
var ErrNoExtractor = errors.New("segment: no extractor configured")

// LineDetector finds straight line segments in an image.
type LineDetector interface {
	DetectLines(img image.Image, p gridcut.Params) ([]geometry.Segment, error)
}

// Extractor provides every low-level primitive the pipeline needs.
type Extractor interface {
	contour.Source
	LineDetector
}

// Pipeline segments page images. It holds no per-call state and is safe
// for concurrent use when its Extractor is.
type Pipeline struct {
	ex        Extractor
	params    Params
	contours  *contour.Detector
	grid      *gridcut.Builder
	logger    *log.Logger
	boxesOnly bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger logs stage decisions to l.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithBoxesOnly skips encoding panel images; ImageData stays empty.
func WithBoxesOnly() Option {
	return func(p *Pipeline) { p.boxesOnly = true }
}

// New creates a Pipeline. A missing extractor or invalid parameters are
// reported here rather than per image.
func New(ex Extractor, params Params, opts ...Option) (*Pipeline, error) {
	if ex == nil {
		return nil, ErrNoExtractor
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s parameters: %w", params.Name, err)
	}

	p := &Pipeline{
		ex:       ex,
		params:   params,
		contours: contour.NewDetector(ex, params.Contour),
		grid:     gridcut.NewBuilder(params.Lines),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Params returns the pipeline parameters.
func (p *Pipeline) Params() Params {
	return p.params
}

// SegmentBase64 decodes a base64 image and segments it. Failures are
// returned inside the Result, never as a panic.
func (p *Pipeline) SegmentBase64(data string) *Result {
	img, format, err := imageio.DecodeBase64(data)
	if err != nil {
		return ErrorResult(err)
	}
	p.logf("decoded %s image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return p.SegmentImage(img)
}

// SegmentImage segments a decoded image.
func (p *Pipeline) SegmentImage(img image.Image) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res = ErrorResult(fmt.Errorf("segmentation panicked: %v", r))
		}
	}()

	res, err := p.segment(img)
	if err != nil {
		return ErrorResult(err)
	}
	return res
}

func (p *Pipeline) segment(img image.Image) (*Result, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty image %dx%d", width, height)
	}
	page := geometry.RectInt{Width: width, Height: height}

	cropped, info := border.Crop(img, p.params.Border)
	p.logf("crop: offset (%d,%d) size %dx%d", info.X, info.Y, info.Width, info.Height)

	if p.params.ContourDetection {
		boxes, stats, err := p.contours.Detect(cropped)
		if err != nil {
			return nil, err
		}
		p.logf("contour: %d primary, %d secondary, %d dropped, %d kept",
			stats.Primary, stats.Secondary, stats.Dropped, len(boxes))

		if len(boxes) >= p.params.MinContourPanels {
			rects := remap(boxes, info, page)
			order.ByTopRight(rects, p.params.Direction)
			return p.build(img, rects, StrategyContour)
		}
	}

	segs, err := p.ex.DetectLines(cropped, p.params.Lines)
	if err != nil {
		return nil, fmt.Errorf("line detection: %w", err)
	}
	layout := p.grid.Build(info.Width, info.Height, segs)
	p.logf("lines: %d segments, %d cutting lines, rows %v, %d columns, %d cells skipped",
		len(segs), len(layout.Cutting), layout.Rows, len(layout.Columns), layout.Skipped)

	rects := remap(layout.Panels, info, page)
	order.ByCenter(rects, p.params.Direction)
	if len(rects) > 0 {
		res, err := p.build(img, rects, StrategyLines)
		if err != nil {
			return nil, err
		}
		if res.TotalPanels > 0 {
			return res, nil
		}
	}

	p.logf("no panels found, returning the whole page")
	return p.build(img, []geometry.RectInt{page}, StrategyWholePage)
}

// remap moves working-image boxes into original coordinates and clips
// them to the page.
func remap(boxes []geometry.RectInt, info border.CropInfo, page geometry.RectInt) []geometry.RectInt {
	out := make([]geometry.RectInt, 0, len(boxes))
	for _, r := range boxes {
		r = r.Translate(info.X, info.Y).Intersect(page)
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// build assembles the envelope for ordered boxes. Boxes whose crop cannot
// be encoded are skipped.
func (p *Pipeline) build(img image.Image, rects []geometry.RectInt, s Strategy) (*Result, error) {
	panels := make([]Panel, 0, len(rects))
	for _, r := range rects {
		var data string
		if !p.boxesOnly {
			var err error
			data, err = imageio.CropBase64(img, r, p.params.JPEGQuality)
			if err != nil {
				if s == StrategyWholePage {
					return nil, err
				}
				p.logf("skipping panel %+v: %v", r, err)
				continue
			}
		}
		i := len(panels)
		panels = append(panels, Panel{
			ID:                fmt.Sprintf("panel_%d", i),
			BoundingBox:       r,
			ImageData:         data,
			ReadingOrderIndex: i,
		})
	}

	b := img.Bounds()
	return &Result{
		Panels:        panels,
		TotalPanels:   len(panels),
		OriginalImage: Size{Width: b.Dx(), Height: b.Dy()},
		ReadingOrder:  order.Sequence(len(panels)),
		Strategy:      s,
	}, nil
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf("segment: "+format, args...)
	}
}
