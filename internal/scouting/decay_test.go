package scouting

import "testing"

func TestIsExpiredPerCategory(t *testing.T) {
	const static, transient = 2400, 800
	building := NewScoutReportWithScores(1, 0, Position{}, 100, ReportInfo{PowerPlants: 1})
	units := NewScoutReportWithScores(0, 1, Position{}, 100, ReportInfo{Infantry: 1})

	tests := []struct {
		name   string
		report *ScoutReport
		age    int64
		want   bool
	}{
		{"static fresh", building, 0, false},
		{"static just below timeout", building, static - 1, false},
		{"static at timeout", building, static, true},
		{"static past timeout", building, static + 500, true},
		{"transient just below timeout", units, transient - 1, false},
		{"transient at timeout", units, transient, true},
		{"transient is not static", units, static - 1, true},
		{"static outlives transient", building, transient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsExpired(tt.report, tt.report.Tick+tt.age, static, transient)
			if got != tt.want {
				t.Errorf("IsExpired(age=%d) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestDecayPolicyTimeout(t *testing.T) {
	p := DefaultDecayPolicy()
	if got := p.Timeout(scored(1, 1)); got != DefaultTransientTimeoutTicks {
		t.Errorf("transient timeout = %d", got)
	}
	static := NewScoutReportWithScores(1, 1, Position{}, 0, ReportInfo{OtherDefenses: 1})
	if got := p.Timeout(static); got != DefaultStaticTimeoutTicks {
		t.Errorf("static timeout = %d", got)
	}
}

func TestMatrixEvictKeepsOrder(t *testing.T) {
	m := newReportMatrix(2, 2)
	idx := CellIndex{X: 1, Y: 0}
	a := NewScoutReportWithScores(1, 0, Position{}, 900, ReportInfo{})
	old := NewScoutReportWithScores(2, 0, Position{}, 0, ReportInfo{})
	b := NewScoutReportWithScores(3, 0, Position{}, 950, ReportInfo{})
	m.insert(idx, a)
	m.insert(idx, old)
	m.insert(idx, b)

	clone := m.clone()
	if removed := m.evict(DefaultDecayPolicy(), 1000); removed != 1 {
		t.Fatalf("evicted %d, want 1", removed)
	}
	got := m.Reports(idx)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("survivors out of order: %v", got)
	}
	if clone.TotalReports() != 3 {
		t.Errorf("clone shares storage with the live matrix: total=%d", clone.TotalReports())
	}
}
