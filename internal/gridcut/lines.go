package gridcut

import (
	"sort"

	"panel-segmenter/pkg/geometry"
)

// Orientation of a cutting line.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// OrientationOf classifies a segment by its angle: below 45 degrees is
// horizontal.
func OrientationOf(s geometry.Segment) Orientation {
	if s.Angle() < 45 {
		return Horizontal
	}
	return Vertical
}

// CuttingLine is a merged segment long enough to split the page.
type CuttingLine struct {
	geometry.Segment
	Orientation Orientation
}

// FilterOrthogonal keeps segments within dev degrees of horizontal or
// vertical.
func FilterOrthogonal(segs []geometry.Segment, dev float64) []geometry.Segment {
	var out []geometry.Segment
	for _, s := range segs {
		a := s.Angle()
		if a <= dev || 90-a <= dev {
			out = append(out, s)
		}
	}
	return out
}

// MergeCollinear joins collinear segments separated by at most maxGap.
// Horizontal segments are merged to a fixed point first, then vertical
// ones. The result is sorted and does not depend on input order.
func MergeCollinear(segs []geometry.Segment, maxGap int) []geometry.Segment {
	var hor, ver []geometry.Segment
	for _, s := range segs {
		s = s.Canonical()
		if OrientationOf(s) == Horizontal {
			hor = append(hor, s)
		} else {
			ver = append(ver, s)
		}
	}

	out := append(mergeFixedPoint(hor, Horizontal, maxGap), mergeFixedPoint(ver, Vertical, maxGap)...)
	sortSegments(out)
	return out
}

// mergeFixedPoint repeats merge passes over a sorted snapshot until a pass
// merges nothing. Every merge removes one segment, so it terminates.
func mergeFixedPoint(segs []geometry.Segment, o Orientation, maxGap int) []geometry.Segment {
	work := make([]geometry.Segment, len(segs))
	copy(work, segs)

	for {
		sortSegments(work)
		used := make([]bool, len(work))
		next := make([]geometry.Segment, 0, len(work))
		merged := false

		for i := range work {
			if used[i] {
				continue
			}
			cur := work[i]
			for j := i + 1; j < len(work); j++ {
				if used[j] || !inline(cur, work[j], o) || gap(cur, work[j], o) > maxGap {
					continue
				}
				cur = cur.Bounds(work[j]).Canonical()
				used[j] = true
				merged = true
			}
			next = append(next, cur)
		}

		work = next
		if !merged {
			return work
		}
	}
}

// inline reports whether two canonical segments lie on the same row
// (horizontal) or column (vertical), endpoint by endpoint.
func inline(a, b geometry.Segment, o Orientation) bool {
	if o == Horizontal {
		return a.P0.Y == b.P0.Y && a.P1.Y == b.P1.Y
	}
	return a.P0.X == b.P0.X && a.P1.X == b.P1.X
}

// gap returns the distance between the nearer ends of a and b along the
// run axis. Overlapping segments give a negative gap.
func gap(a, b geometry.Segment, o Orientation) int {
	aLo, aHi := span(a, o)
	bLo, bHi := span(b, o)
	return max(aLo, bLo) - min(aHi, bHi)
}

func span(s geometry.Segment, o Orientation) (lo, hi int) {
	if o == Horizontal {
		return min(s.P0.X, s.P1.X), max(s.P0.X, s.P1.X)
	}
	return min(s.P0.Y, s.P1.Y), max(s.P0.Y, s.P1.Y)
}

// CuttingLines keeps merged segments that reach the length thresholds.
func CuttingLines(segs []geometry.Segment, lim Limits) []CuttingLine {
	var out []CuttingLine
	for _, s := range segs {
		o := OrientationOf(s)
		switch {
		case o == Horizontal && s.Length() >= lim.HorLength:
		case o == Vertical && s.Length() >= lim.VerLength:
		default:
			continue
		}
		out = append(out, CuttingLine{Segment: s, Orientation: o})
	}
	return out
}

func sortSegments(segs []geometry.Segment) {
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].Less(segs[j])
	})
}
