package scouting

// ReportInput is an externally submitted observation before it becomes a
// ScoutReport. Explicit Reward and Risk bypass the composition scoring; an
// absent Tick means "now".
type ReportInput struct {
	Position      Position      `json:"position"`
	WorldPosition WorldPosition `json:"world_position"`
	Tick          *int64        `json:"tick,omitempty"`
	Importance    float64       `json:"importance,omitempty"`
	Reward        *int          `json:"reward,omitempty"`
	Risk          *int          `json:"risk,omitempty"`
	Info          ReportInfo    `json:"info"`
}

// Report builds the ScoutReport, stamping currentTick when no tick was given.
func (in ReportInput) Report(currentTick int64) *ScoutReport {
	tick := currentTick
	if in.Tick != nil {
		tick = *in.Tick
	}
	if in.Reward == nil && in.Risk == nil {
		return NewScoutReport(in.Info, in.Importance, in.WorldPosition, in.Position, tick)
	}
	var reward, risk int
	if in.Reward != nil {
		reward = *in.Reward
	}
	if in.Risk != nil {
		risk = *in.Risk
	}
	r := NewScoutReportWithScores(reward, risk, in.Position, tick, in.Info)
	r.WorldPosition = in.WorldPosition
	return r
}
