package scouting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Position is an integer map-cell coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String implements fmt.Stringer.
func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Add returns p offset by o.
func (p Position) Add(o Position) Position { return Position{X: p.X + o.X, Y: p.Y + o.Y} }

// DistanceTo returns the Euclidean distance between p and o.
func (p Position) DistanceTo(o Position) float64 {
	return floats.Distance(
		[]float64{float64(p.X), float64(p.Y)},
		[]float64{float64(o.X), float64(o.Y)},
		2,
	)
}

// WorldPosition is a fine-grained world coordinate. It is carried on reports
// for diagnostics only; cell indexing uses the map position.
type WorldPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// CellIndex is the (x, y) index of a grid cell.
type CellIndex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SpatialIndex maps map positions onto a fixed-width cell grid.
// The zero value is not useful; build one with NewSpatialIndex.
type SpatialIndex struct {
	Min       Position
	CellWidth int
	Width     int
	Height    int
}

// NewSpatialIndex sizes a grid covering [min, max] at cellWidth. Each
// dimension is the rounded map extent divided by the cell width, never
// less than one cell.
func NewSpatialIndex(min, max Position, cellWidth int) (SpatialIndex, error) {
	if cellWidth <= 0 {
		return SpatialIndex{}, fmt.Errorf("%w: cell width must be positive, got %d", ErrInvalidConfig, cellWidth)
	}
	if max.X < min.X || max.Y < min.Y {
		return SpatialIndex{}, fmt.Errorf("%w: map max %v is below min %v", ErrInvalidConfig, max, min)
	}
	w := roundDiv(max.X-min.X, cellWidth)
	h := roundDiv(max.Y-min.Y, cellWidth)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return SpatialIndex{Min: min, CellWidth: cellWidth, Width: w, Height: h}, nil
}

// Index returns the cell containing pos. It always returns a valid index.
func (s SpatialIndex) Index(pos Position) CellIndex {
	x, y := CellIndexFor(pos, s.Min, s.CellWidth, s.Width, s.Height)
	return CellIndex{X: x, Y: y}
}

// RelativePosition is the canonical grid-relative position of a cell.
func (s SpatialIndex) RelativePosition(idx CellIndex) Position {
	return Position{X: idx.X * s.CellWidth, Y: idx.Y * s.CellWidth}
}

// MapPosition is the canonical map position of a cell.
func (s SpatialIndex) MapPosition(idx CellIndex) Position {
	return s.Min.Add(s.RelativePosition(idx))
}

// IndexOfRelative recovers the cell index from a canonical relative position.
func (s SpatialIndex) IndexOfRelative(rel Position) CellIndex {
	return CellIndex{
		X: clamp(roundDiv(rel.X, s.CellWidth), s.Width-1),
		Y: clamp(roundDiv(rel.Y, s.CellWidth), s.Height-1),
	}
}

// Neighborhood returns the 3x3 block of indices around idx, clamped at the
// grid edges, in x-major order.
func (s SpatialIndex) Neighborhood(idx CellIndex) []CellIndex {
	out := make([]CellIndex, 0, 9)
	for x := max(idx.X-1, 0); x <= min(idx.X+1, s.Width-1); x++ {
		for y := max(idx.Y-1, 0); y <= min(idx.Y+1, s.Height-1); y++ {
			out = append(out, CellIndex{X: x, Y: y})
		}
	}
	return out
}

// CellIndexFor rounds (pos-min)/cellWidth on each axis and clamps the result
// to [0, width-1] x [0, height-1]. Rounding keeps reports near a boundary
// assigned consistently; clamping absorbs map-edge jitter.
func CellIndexFor(pos, min Position, cellWidth, width, height int) (int, int) {
	x := clamp(roundDiv(pos.X-min.X, cellWidth), width-1)
	y := clamp(roundDiv(pos.Y-min.Y, cellWidth), height-1)
	return x, y
}

func roundDiv(v, width int) int {
	return int(math.Round(float64(v) / float64(width)))
}

// clamp bounds value to [0, hi].
func clamp(value, hi int) int {
	if value > hi {
		value = hi
	}
	if value < 0 {
		return 0
	}
	return value
}
