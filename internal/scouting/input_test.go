package scouting

import (
	"encoding/json"
	"testing"
)

func TestReportInputDerivesScores(t *testing.T) {
	var in ReportInput
	body := `{"position":{"x":12,"y":30},"importance":2,"info":{"power_plants":3,"infantry":1}}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	r := in.Report(500)
	if r.Tick != 500 {
		t.Errorf("Tick = %d, want current tick 500", r.Tick)
	}
	if r.Reward != 6 || r.Risk != 2 {
		t.Errorf("scores = %d/%d, want 6/2", r.Reward, r.Risk)
	}
	if !r.IsStatic() {
		t.Error("report with power plants should be static")
	}
	if r.MapPosition != (Position{X: 12, Y: 30}) {
		t.Errorf("MapPosition = %v", r.MapPosition)
	}
}

func TestReportInputExplicitScores(t *testing.T) {
	tick := int64(42)
	reward := 70
	in := ReportInput{
		Position:      Position{X: 1, Y: 1},
		WorldPosition: WorldPosition{X: 1024, Y: 1024, Z: 0},
		Tick:          &tick,
		Reward:        &reward,
		Info:          ReportInfo{Infantry: 50},
	}

	r := in.Report(9999)
	if r.Tick != 42 {
		t.Errorf("Tick = %d, want 42", r.Tick)
	}
	if r.Reward != 70 || r.Risk != 0 {
		t.Errorf("scores = %d/%d, want explicit 70/0", r.Reward, r.Risk)
	}
	if r.WorldPosition != in.WorldPosition {
		t.Errorf("WorldPosition = %v", r.WorldPosition)
	}
	if r.IsStatic() {
		t.Error("units only should stay transient")
	}
}
