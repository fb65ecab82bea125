// Package order assigns manga reading order (right to left, top to bottom)
// to panel rectangles.
//
// Reading positions are numbered from 0.
package order

import (
	"fmt"
	"sort"
	"strings"

	"panel-segmenter/pkg/geometry"
)

// Direction is the horizontal reading direction within a row.
type Direction int

const (
	// RightToLeft is manga order.
	RightToLeft Direction = iota
	// LeftToRight is western comic order.
	LeftToRight
)

func (d Direction) String() string {
	if d == LeftToRight {
		return "ltr"
	}
	return "rtl"
}

// ParseDirection accepts "rtl" or "ltr" in any case. An empty string is
// right to left.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rtl":
		return RightToLeft, nil
	case "ltr":
		return LeftToRight, nil
	}
	return RightToLeft, fmt.Errorf("unknown reading direction %q", s)
}

// ByTopRight sorts panels by top edge ascending, then by left edge in
// reading direction. Used for contour panels, whose boxes are independent.
func ByTopRight(panels []geometry.RectInt, dir Direction) {
	sort.SliceStable(panels, func(i, j int) bool {
		a, b := panels[i], panels[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return before(a.X, b.X, dir)
	})
}

// ByCenter sorts panels by center row ascending, then by center column in
// reading direction. Used for grid panels.
//
// Centers are compared doubled (2x+w) to stay in integers.
func ByCenter(panels []geometry.RectInt, dir Direction) {
	sort.SliceStable(panels, func(i, j int) bool {
		a, b := panels[i], panels[j]
		ay, by := 2*a.Y+a.Height, 2*b.Y+b.Height
		if ay != by {
			return ay < by
		}
		return before(2*a.X+a.Width, 2*b.X+b.Width, dir)
	})
}

func before(a, b int, dir Direction) bool {
	if dir == LeftToRight {
		return a < b
	}
	return a > b
}

// Sequence returns the reading order [0, 1, ..., n-1].
func Sequence(n int) []int {
	seq := make([]int, n)
	for i := range seq {
		seq[i] = i
	}
	return seq
}

// Valid reports whether seq is a permutation of [0, n).
func Valid(seq []int, n int) bool {
	if len(seq) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range seq {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
