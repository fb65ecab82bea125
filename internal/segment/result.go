package segment

import "panel-segmenter/pkg/geometry"

// Strategy records which detection path produced the panels.
type Strategy string

const (
	StrategyContour   Strategy = "contour"
	StrategyLines     Strategy = "lines"
	StrategyWholePage Strategy = "whole-page"
)

// Panel is one detected panel in original image coordinates.
type Panel struct {
	ID                string           `json:"id"`
	BoundingBox       geometry.RectInt `json:"boundingBox"`
	ImageData         string           `json:"imageData"` // Base64 JPEG of the panel
	ReadingOrderIndex int              `json:"readingOrderIndex"`
}

// Size is an image size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the segmentation envelope. On failure Error is set and the
// panel list is empty.
type Result struct {
	Panels        []Panel  `json:"panels"`
	TotalPanels   int      `json:"totalPanels"`
	OriginalImage Size     `json:"originalImage"`
	ReadingOrder  []int    `json:"readingOrder"`
	Strategy      Strategy `json:"strategy,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Failed reports whether the result carries an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// ErrorResult builds the failure envelope for err.
func ErrorResult(err error) *Result {
	return &Result{
		Panels:       []Panel{},
		ReadingOrder: []int{},
		Error:        err.Error(),
	}
}
