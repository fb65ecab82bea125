// Package gridcut builds a panel grid from straight cutting lines.
//
// It is the fallback used when contour detection cannot find panels: long
// horizontal lines split the page into row bands, and vertical lines that
// span a band split it into columns.
package gridcut

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"panel-segmenter/pkg/geometry"
)

// VerticalCut is a column cut covering rows [Lower, Upper].
type VerticalCut struct {
	X     int `json:"x"`
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Covers reports whether the cut spans the whole band [top, bottom].
func (v VerticalCut) Covers(top, bottom int) bool {
	return v.Lower <= top && v.Upper >= bottom
}

// Layout is the grid built for one page.
type Layout struct {
	Panels  []geometry.RectInt // Row bands top to bottom, columns right to left
	Rows    []int              // Horizontal cut rows including 0 and height-1
	Columns []VerticalCut      // Merged vertical cuts
	Cutting []CuttingLine      // Lines that passed the filters
	Skipped int                // Degenerate cells dropped
}

// Builder turns line segments into a panel grid.
type Builder struct {
	params Params
}

// NewBuilder creates a Builder.
func NewBuilder(params Params) *Builder {
	return &Builder{params: params}
}

// Build computes the grid for a width x height page from raw segments.
func (b *Builder) Build(width, height int, segs []geometry.Segment) Layout {
	lim := b.params.Derive(width, height)

	ortho := FilterOrthogonal(segs, b.params.AngleDeviation)
	merged := MergeCollinear(ortho, b.params.MergeDistance)
	cutting := CuttingLines(merged, lim)

	hpos, vcuts := positions(cutting, width, height, lim)
	if len(hpos) == 0 && len(vcuts) == 0 {
		// No cut at all: the page is not split, so nothing was detected.
		return Layout{Cutting: cutting}
	}
	rows := bandRows(hpos, height, lim.MergeDst)
	vcuts = clampSpans(vcuts, rows)
	vcuts = mergeColumns(vcuts, lim.MergeDst)

	panels, skipped := enumerate(rows, vcuts, width)
	return Layout{
		Panels:  panels,
		Rows:    rows,
		Columns: vcuts,
		Cutting: cutting,
		Skipped: skipped,
	}
}

// positions collects cut coordinates that lie clear of the page border.
func positions(lines []CuttingLine, width, height int, lim Limits) ([]int, []VerticalCut) {
	var hpos []int
	var vcuts []VerticalCut
	for _, l := range lines {
		if l.Orientation == Horizontal {
			y := l.P0.Y
			if y > lim.HeightBorder && y < height-lim.HeightBorder {
				hpos = append(hpos, y)
			}
			continue
		}
		x := l.P0.X
		if x > lim.WidthBorder && x < width-lim.WidthBorder {
			vcuts = append(vcuts, VerticalCut{
				X:     x,
				Lower: min(l.P0.Y, l.P1.Y),
				Upper: max(l.P0.Y, l.P1.Y),
			})
		}
	}
	return hpos, vcuts
}

// MergeParallel collapses sorted positions onto the current anchor while
// they stay within dst of it. The first anchor is 0, the page top or left.
func MergeParallel(pos []int, dst int) []int {
	vals := uniqueSorted(pos)
	anchor := 0
	for i, v := range vals {
		if abs(v-anchor) <= dst {
			vals[i] = anchor
		} else {
			anchor = v
		}
	}
	return uniqueSorted(vals)
}

// bandRows merges horizontal positions and adds the top and bottom rows.
func bandRows(hpos []int, height, dst int) []int {
	rows := MergeParallel(hpos, dst)
	rows = append(rows, 0, height-1)
	return uniqueSorted(rows)
}

// clampSpans extends each vertical cut to the band edges it starts and
// ends in.
func clampSpans(vcuts []VerticalCut, rows []int) []VerticalCut {
	out := make([]VerticalCut, len(vcuts))
	for i, v := range vcuts {
		for k := 0; k+1 < len(rows); k++ {
			top, bottom := rows[k], rows[k+1]
			if v.Lower >= top && v.Lower < bottom {
				v.Lower = top
			}
			if v.Upper <= bottom && v.Upper > top {
				v.Upper = bottom
			}
		}
		out[i] = v
	}
	return out
}

// mergeColumns clusters cuts by column. A cut joins the open cluster while
// it is within dst of the cluster mean; every member then takes the
// truncated mean.
func mergeColumns(vcuts []VerticalCut, dst int) []VerticalCut {
	out := make([]VerticalCut, len(vcuts))
	copy(out, vcuts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })

	start := 0
	var xs []float64
	closeCluster := func(end int) {
		if len(xs) == 0 {
			return
		}
		x := int(stat.Mean(xs, nil))
		for k := start; k < end; k++ {
			out[k].X = x
		}
	}

	for i, v := range out {
		if len(xs) > 0 && !withinMean(xs, v.X, dst) {
			closeCluster(i)
			start = i
			xs = xs[:0]
		}
		xs = append(xs, float64(v.X))
	}
	closeCluster(len(out))
	return out
}

// withinMean reports whether x is within dst of the mean of xs.
func withinMean(xs []float64, x, dst int) bool {
	d := float64(x) - stat.Mean(xs, nil)
	if d < 0 {
		d = -d
	}
	return d <= float64(dst)
}

// enumerate emits one panel per grid cell. Columns are listed right to
// left within each band.
func enumerate(rows []int, vcuts []VerticalCut, width int) ([]geometry.RectInt, int) {
	var panels []geometry.RectInt
	skipped := 0

	emit := func(r geometry.RectInt) {
		if r.Empty() {
			skipped++
			return
		}
		panels = append(panels, r)
	}

	for k := 0; k+1 < len(rows); k++ {
		top, bottom := rows[k], rows[k+1]

		var cols []int
		for _, v := range vcuts {
			if v.Covers(top, bottom) {
				cols = append(cols, v.X)
			}
		}

		if len(cols) == 0 {
			emit(geometry.Corners(0, top, width-1, bottom))
			continue
		}

		xs := uniqueSorted(append(cols, 0, width-1))
		for j := len(xs) - 2; j >= 0; j-- {
			emit(geometry.Corners(xs[j], top, xs[j+1], bottom))
		}
	}
	return panels, skipped
}

func uniqueSorted(vals []int) []int {
	out := make([]int, 0, len(vals))
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
