package scouting

// ReportMatrix is a width x height grid of report lists stored row-major
// by x. The worker owns one instance privately; the ones reachable from a
// Snapshot are clones and must be treated as read-only.
type ReportMatrix struct {
	width  int
	height int
	cells  [][]*ScoutReport
}

func newReportMatrix(width, height int) *ReportMatrix {
	return &ReportMatrix{
		width:  width,
		height: height,
		cells:  make([][]*ScoutReport, width*height),
	}
}

// Width returns the number of cells along x.
func (m *ReportMatrix) Width() int { return m.width }

// Height returns the number of cells along y.
func (m *ReportMatrix) Height() int { return m.height }

func (m *ReportMatrix) offset(idx CellIndex) int { return idx.X*m.height + idx.Y }

func (m *ReportMatrix) inBounds(idx CellIndex) bool {
	return idx.X >= 0 && idx.Y >= 0 && idx.X < m.width && idx.Y < m.height
}

// Reports returns a copy of the report list at idx. Out of range indices
// yield nil.
func (m *ReportMatrix) Reports(idx CellIndex) []*ScoutReport {
	if !m.inBounds(idx) {
		return nil
	}
	src := m.cells[m.offset(idx)]
	if len(src) == 0 {
		return nil
	}
	out := make([]*ScoutReport, len(src))
	copy(out, src)
	return out
}

// TotalReports counts reports across every cell.
func (m *ReportMatrix) TotalReports() int {
	total := 0
	for _, c := range m.cells {
		total += len(c)
	}
	return total
}

func (m *ReportMatrix) insert(idx CellIndex, r *ScoutReport) {
	off := m.offset(idx)
	m.cells[off] = append(m.cells[off], r)
}

// evict removes reports the policy considers expired at tick, keeping the
// relative order of survivors. It returns the number removed.
func (m *ReportMatrix) evict(policy DecayPolicy, tick int64) int {
	removed := 0
	for i, list := range m.cells {
		kept := list[:0]
		for _, r := range list {
			if policy.Expired(r, tick) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		// Drop references held past the new length.
		for j := len(kept); j < len(list); j++ {
			list[j] = nil
		}
		m.cells[i] = kept
	}
	return removed
}

// clone copies every cell list into fresh backing arrays. Reports
// themselves are immutable and shared.
func (m *ReportMatrix) clone() *ReportMatrix {
	c := newReportMatrix(m.width, m.height)
	for i, list := range m.cells {
		if len(list) == 0 {
			continue
		}
		c.cells[i] = append([]*ScoutReport(nil), list...)
	}
	return c
}
