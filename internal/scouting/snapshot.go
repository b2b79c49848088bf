package scouting

// Snapshot is one immutable published state of the grid. Every field is
// built before the snapshot becomes visible and nothing mutates it after.
type Snapshot struct {
	// Generation increases by one on every publish.
	Generation uint64
	// Tick is the simulation tick the pass evicted against.
	Tick int64
	// Best is the highest-fit cell, nil when the grid holds no live data.
	Best *AggregateCellData

	served  uint64
	index   SpatialIndex
	matrix  *ReportMatrix
	cells   []*AggregateCellData
	ordered []AggregateCellData
}

func emptySnapshot(index SpatialIndex) *Snapshot {
	return &Snapshot{
		index:  index,
		matrix: newReportMatrix(index.Width, index.Height),
		cells:  make([]*AggregateCellData, index.Width*index.Height),
	}
}

// buildSnapshot aggregates every cell of m. m must already be a clone the
// snapshot can own. Best is replaced only on a strictly greater fit so the
// first cell found in x-major order wins ties.
func buildSnapshot(index SpatialIndex, m *ReportMatrix, gen uint64, tick int64, served uint64) *Snapshot {
	s := &Snapshot{
		Generation: gen,
		Tick:       tick,
		served:     served,
		index:      index,
		matrix:     m,
		cells:      make([]*AggregateCellData, m.width*m.height),
	}
	for x := 0; x < m.width; x++ {
		for y := 0; y < m.height; y++ {
			idx := CellIndex{X: x, Y: y}
			agg, ok := Aggregate(idx, index.CellWidth, m.cells[m.offset(idx)])
			if !ok {
				continue
			}
			s.ordered = append(s.ordered, agg)
			if s.Best == nil || agg.Compare(*s.Best) > 0 {
				best := agg
				s.Best = &best
			}
		}
	}
	for i := range s.ordered {
		s.cells[m.offset(s.ordered[i].Index)] = &s.ordered[i]
	}
	return s
}

// Index returns the spatial index the snapshot was built with.
func (s *Snapshot) Index() SpatialIndex { return s.index }

// Matrix returns the snapshot's read-only clone of the report matrix.
func (s *Snapshot) Matrix() *ReportMatrix { return s.matrix }

// TotalReports counts the live reports in the snapshot.
func (s *Snapshot) TotalReports() int { return s.matrix.TotalReports() }

// Cell returns the aggregate at idx, or false if the cell is empty or out
// of range.
func (s *Snapshot) Cell(idx CellIndex) (AggregateCellData, bool) {
	if !s.matrix.inBounds(idx) {
		return AggregateCellData{}, false
	}
	c := s.cells[s.matrix.offset(idx)]
	if c == nil {
		return AggregateCellData{}, false
	}
	return *c, true
}

// Cells returns the non-empty aggregates in x-major order. The slice is a
// copy.
func (s *Snapshot) Cells() []AggregateCellData {
	return append([]AggregateCellData(nil), s.ordered...)
}

// Aggregate returns the flushable summary of s.
func (s *Snapshot) Aggregate() AggregateSnapshot {
	return AggregateSnapshot{Tick: s.Tick, Generation: s.Generation, Cells: s.Cells()}
}
