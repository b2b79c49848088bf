package scouting

import (
	"errors"
	"testing"
)

func TestCellIndexForRoundsAndClamps(t *testing.T) {
	min := Position{X: 0, Y: 0}
	tests := []struct {
		name         string
		pos          Position
		wantX, wantY int
	}{
		{"origin", Position{0, 0}, 0, 0},
		{"rounds down below half", Position{14, 24}, 1, 2},
		{"rounds half away from zero", Position{15, 25}, 2, 3},
		{"rounds up above half", Position{16, 26}, 2, 3},
		{"clamps past max", Position{1000, 1000}, 9, 9},
		{"clamps negative", Position{-40, -7}, 0, 0},
		{"last cell", Position{94, 90}, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := CellIndexFor(tt.pos, min, 10, 10, 10)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("CellIndexFor(%v) = (%d,%d), want (%d,%d)", tt.pos, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCellIndexForOffsetMin(t *testing.T) {
	x, y := CellIndexFor(Position{X: 36, Y: 12}, Position{X: 16, Y: 2}, 10, 5, 5)
	if x != 2 || y != 1 {
		t.Errorf("got (%d,%d), want (2,1)", x, y)
	}
}

func TestNewSpatialIndex(t *testing.T) {
	s, err := NewSpatialIndex(Position{0, 0}, Position{128, 64}, 10)
	if err != nil {
		t.Fatalf("NewSpatialIndex: %v", err)
	}
	if s.Width != 13 || s.Height != 6 {
		t.Errorf("dims = %dx%d, want 13x6", s.Width, s.Height)
	}

	tiny, err := NewSpatialIndex(Position{0, 0}, Position{2, 2}, 10)
	if err != nil {
		t.Fatalf("NewSpatialIndex tiny: %v", err)
	}
	if tiny.Width != 1 || tiny.Height != 1 {
		t.Errorf("tiny dims = %dx%d, want 1x1", tiny.Width, tiny.Height)
	}

	if _, err := NewSpatialIndex(Position{}, Position{10, 10}, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero width err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSpatialIndex(Position{10, 10}, Position{0, 0}, 5); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("inverted bounds err = %v, want ErrInvalidConfig", err)
	}
}

func TestSpatialIndexPositions(t *testing.T) {
	s, err := NewSpatialIndex(Position{X: 5, Y: 5}, Position{X: 105, Y: 105}, 10)
	if err != nil {
		t.Fatal(err)
	}
	idx := CellIndex{X: 3, Y: 7}
	if got := s.RelativePosition(idx); got != (Position{30, 70}) {
		t.Errorf("RelativePosition = %v", got)
	}
	if got := s.MapPosition(idx); got != (Position{35, 75}) {
		t.Errorf("MapPosition = %v", got)
	}
	if got := s.IndexOfRelative(s.RelativePosition(idx)); got != idx {
		t.Errorf("IndexOfRelative round trip = %v, want %v", got, idx)
	}
}

func TestNeighborhoodClampsAtCorners(t *testing.T) {
	s, _ := NewSpatialIndex(Position{}, Position{X: 50, Y: 50}, 10)

	corner := s.Neighborhood(CellIndex{0, 0})
	want := []CellIndex{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(corner) != len(want) {
		t.Fatalf("corner neighborhood = %v, want %v", corner, want)
	}
	for i := range want {
		if corner[i] != want[i] {
			t.Errorf("corner[%d] = %v, want %v", i, corner[i], want[i])
		}
	}

	if n := len(s.Neighborhood(CellIndex{2, 2})); n != 9 {
		t.Errorf("interior neighborhood size = %d, want 9", n)
	}
	if n := len(s.Neighborhood(CellIndex{4, 2})); n != 6 {
		t.Errorf("edge neighborhood size = %d, want 6", n)
	}
}

func TestDistanceTo(t *testing.T) {
	if d := (Position{0, 0}).DistanceTo(Position{3, 4}); d != 5 {
		t.Errorf("distance = %v, want 5", d)
	}
}
