package scouting

// Snapshot returns the latest published snapshot. It never returns nil.
func (g *Grid) Snapshot() *Snapshot { return g.w.snapshot() }

// BestCell returns the best-fit cell of the latest snapshot.
func (g *Grid) BestCell() (AggregateCellData, bool) {
	s := g.w.snapshot()
	if s.Best == nil {
		return AggregateCellData{}, false
	}
	return *s.Best, true
}

// BestCellExcluding returns the best-fit cell other than the one that
// contains pos.
func (g *Grid) BestCellExcluding(pos Position) (AggregateCellData, bool) {
	s := g.w.snapshot()
	skip := g.index.Index(pos)
	if s.Best != nil && s.Best.Index != skip {
		return *s.Best, true
	}
	var best *AggregateCellData
	for i := range s.ordered {
		c := &s.ordered[i]
		if c.Index == skip {
			continue
		}
		if best == nil || c.Compare(*best) > 0 {
			best = c
		}
	}
	if best == nil {
		return AggregateCellData{}, false
	}
	return *best, true
}

// CellAt returns the aggregate of the cell containing pos.
func (g *Grid) CellAt(pos Position) (AggregateCellData, bool) {
	return g.w.snapshot().Cell(g.index.Index(pos))
}

// Cells returns every non-empty aggregate of the latest snapshot.
func (g *Grid) Cells() []AggregateCellData {
	return g.w.snapshot().Cells()
}

// BestSurroundingCell scans the 3x3 block around cell, center included and
// clamped at the grid edges. A candidate replaces the running best only if
// it has at least the reward and at most the risk of the current best.
func (g *Grid) BestSurroundingCell(cell AggregateCellData) (AggregateCellData, bool) {
	s := g.w.snapshot()
	var best *AggregateCellData
	for _, idx := range g.index.Neighborhood(g.clampIndex(cell.Index)) {
		c, ok := s.Cell(idx)
		if !ok {
			continue
		}
		if best == nil || (c.AverageReward >= best.AverageReward && c.AverageRisk <= best.AverageRisk) {
			best = &c
		}
	}
	if best == nil {
		return AggregateCellData{}, false
	}
	return *best, true
}

// SafeCellBetween returns the map position of the neighbour of cell,
// closest to start, whose risk is zero or unknown. If no neighbour
// qualifies it returns start.
func (g *Grid) SafeCellBetween(cell AggregateCellData, start Position) Position {
	s := g.w.snapshot()
	found := false
	var bestPos Position
	var bestDist float64
	for _, idx := range g.index.Neighborhood(g.clampIndex(cell.Index)) {
		if c, ok := s.Cell(idx); ok && c.AverageRisk != 0 {
			continue
		}
		pos := g.index.MapPosition(idx)
		d := pos.DistanceTo(start)
		if !found || d < bestDist {
			found, bestPos, bestDist = true, pos, d
		}
	}
	if !found {
		return start
	}
	return bestPos
}

func (g *Grid) clampIndex(idx CellIndex) CellIndex {
	return CellIndex{X: clamp(idx.X, g.index.Width-1), Y: clamp(idx.Y, g.index.Height-1)}
}
