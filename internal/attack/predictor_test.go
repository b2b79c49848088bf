package attack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scoutgrid/internal/scouting"
)

var testBounds = &scouting.HistoricalBounds{LowestRisk: 10, HighestRisk: 90, LowestReward: 10, HighestReward: 90}

func TestRiskRewardStrength(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{})

	tests := []struct {
		name         string
		risk, reward int
		want         Strength
	}{
		{"below lowest risk and above highest reward", 5, 95, Overwhelming},
		{"high risk low reward", 95, 5, None},
		{"exactly at extremes", 10, 90, High},
		{"within half step", 30, 70, Medium},
		{"within full step", 50, 50, Low},
		{"risk just past full step", 51, 50, None},
		{"reward just short of full step", 50, 49, None},
		{"strictly better on one side only", 5, 90, High},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.RiskRewardStrength(tt.risk, tt.reward, testBounds))
		})
	}
}

func TestRiskRewardStrength_NoHistory(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{})
	assert.Equal(t, Medium, p.RiskRewardStrength(1000, 0, nil))
}

func TestLethalityStrength(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{MinimumLethality: 400, LethalityStep: 100})

	cases := map[float64]Strength{
		0:     None,
		399.9: None,
		400:   Low,
		499:   Low,
		500:   Medium,
		600:   High,
		699:   High,
		700:   Overwhelming,
		5000:  Overwhelming,
	}
	for lethality, want := range cases {
		assert.Equalf(t, want, p.LethalityStrength(lethality), "lethality %v", lethality)
	}
}

func TestPredict(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{})

	assert.Equal(t, Overwhelming, p.Predict(5, 95, 800, testBounds))
	assert.Equal(t, None, p.Predict(95, 5, 0, testBounds))

	// (None + Overwhelming) / 2 truncates to Medium.
	assert.Equal(t, Medium, p.Predict(95, 5, 800, testBounds))
	// (High + Low) / 2 truncates to Medium.
	assert.Equal(t, Medium, p.Predict(10, 90, 450, testBounds))
	// (Medium + Low) / 2 truncates to Low.
	assert.Equal(t, Low, p.Predict(0, 0, 450, nil))
}

func TestAssessKeepsSubScores(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{})

	got := p.Assess(95, 5, 800, testBounds)
	assert.Equal(t, Assessment{Strength: Medium, RiskReward: None, Lethality: Overwhelming}, got)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"strength":"medium","risk_reward":"none","lethality":"overwhelming"}`, string(b))
}

func TestPredictForCell(t *testing.T) {
	t.Parallel()
	p := NewPredictor(PredictorConfig{})
	cell := scouting.AggregateCellData{AverageRisk: 5, AverageReward: 95}
	assert.Equal(t, Overwhelming, p.PredictForCell(cell, 750, testBounds))
}

func TestNewPredictorDefaults(t *testing.T) {
	t.Parallel()
	got := NewPredictor(PredictorConfig{MinimumLethality: -1}).Config()
	assert.Equal(t, PredictorConfig{MinimumLethality: DefaultMinimumLethality, LethalityStep: DefaultLethalityStep}, got)
}

func TestStrengthText(t *testing.T) {
	t.Parallel()

	for s := None; s <= Overwhelming; s++ {
		parsed, err := ParseStrength(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "strength(9)", Strength(9).String())

	_, err := ParseStrength("colossal")
	assert.Error(t, err)

	b, err := json.Marshal(map[string]Strength{"verdict": High})
	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict":"high"}`, string(b))

	var out struct{ Verdict Strength }
	require.NoError(t, json.Unmarshal([]byte(`{"Verdict":"low"}`), &out))
	assert.Equal(t, Low, out.Verdict)
}
