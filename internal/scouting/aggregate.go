package scouting

// AggregateCellData summarises the live reports of one cell. Values are
// rebuilt from scratch on every pass and never patched afterwards.
type AggregateCellData struct {
	Index      CellIndex `json:"index"`
	NumReports int       `json:"num_reports"`

	AverageRisk   int `json:"average_risk"`
	AverageReward int `json:"average_reward"`

	InfantryPercent float64 `json:"infantry_percent"`
	VehiclePercent  float64 `json:"vehicle_percent"`
	AirPercent      float64 `json:"air_percent"`

	AntiInfantryPercent float64 `json:"anti_infantry_percent"`
	AntiVehiclePercent  float64 `json:"anti_vehicle_percent"`
	AntiAirPercent      float64 `json:"anti_air_percent"`

	RelativePosition Position `json:"relative_position"`
}

// Fit is reward per unit of risk, or the raw reward when the cell carries
// no risk at all.
func (c AggregateCellData) Fit() float64 {
	if c.AverageRisk == 0 {
		return float64(c.AverageReward)
	}
	return float64(c.AverageReward) / float64(c.AverageRisk)
}

// Compare orders cells by Fit: -1 if c fits worse than o, 1 if better.
func (c AggregateCellData) Compare(o AggregateCellData) int {
	a, b := c.Fit(), o.Fit()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Aggregate folds the reports of the cell at index into one summary. It
// returns false when there is nothing to aggregate. Nil entries are ignored.
//
// Averages use integer floor division. A percentage group whose total is
// zero leaves all of its percentages at zero.
func Aggregate(index CellIndex, cellWidth int, reports []*ScoutReport) (AggregateCellData, bool) {
	var n, risk, reward int
	var infantry, vehicles, aircraft int
	var antiInf, antiVehicle, antiAir int
	for _, r := range reports {
		if r == nil {
			continue
		}
		n++
		risk += r.Risk
		reward += r.Reward
		infantry += r.Info.Infantry
		vehicles += r.Info.Vehicles
		aircraft += r.Info.Aircraft
		antiInf += r.Info.AntiInfantryDefenses
		antiVehicle += r.Info.AntiVehicleDefenses
		antiAir += r.Info.AntiAirDefenses
	}
	if n == 0 {
		return AggregateCellData{}, false
	}

	out := AggregateCellData{
		Index:            index,
		NumReports:       n,
		AverageRisk:      floorDiv(risk, n),
		AverageReward:    floorDiv(reward, n),
		RelativePosition: Position{X: index.X * cellWidth, Y: index.Y * cellWidth},
	}
	if units := infantry + vehicles + aircraft; units > 0 {
		out.InfantryPercent = float64(infantry) / float64(units)
		out.VehiclePercent = float64(vehicles) / float64(units)
		out.AirPercent = float64(aircraft) / float64(units)
	}
	if defenses := antiInf + antiVehicle + antiAir; defenses > 0 {
		out.AntiInfantryPercent = float64(antiInf) / float64(defenses)
		out.AntiVehiclePercent = float64(antiVehicle) / float64(defenses)
		out.AntiAirPercent = float64(antiAir) / float64(defenses)
	}
	return out, true
}

// floorDiv rounds toward negative infinity so negative scores stay floored.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// AggregateSnapshot is the flushed form of a published grid.
type AggregateSnapshot struct {
	Tick       int64               `json:"tick"`
	Generation uint64              `json:"generation"`
	Cells      []AggregateCellData `json:"cells"`
}

// Bounds returns the extreme average risk and reward across the snapshot's
// cells, or nil when it holds no cells.
func (s AggregateSnapshot) Bounds() *HistoricalBounds {
	if len(s.Cells) == 0 {
		return nil
	}
	b := &HistoricalBounds{
		LowestRisk:    s.Cells[0].AverageRisk,
		HighestRisk:   s.Cells[0].AverageRisk,
		LowestReward:  s.Cells[0].AverageReward,
		HighestReward: s.Cells[0].AverageReward,
	}
	for _, c := range s.Cells[1:] {
		b.include(c.AverageRisk, c.AverageReward)
	}
	return b
}
