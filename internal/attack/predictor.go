// Package attack turns grid intelligence plus friendly strength into a
// discrete attack-strength verdict.
package attack

import (
	"fmt"

	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// Strength is a discrete prediction of how an attack would go.
type Strength int

const (
	None Strength = iota
	Low
	Medium
	High
	Overwhelming
)

// String implements fmt.Stringer.
func (s Strength) String() string {
	switch s {
	case None:
		return "none"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Overwhelming:
		return "overwhelming"
	}
	return fmt.Sprintf("strength(%d)", int(s))
}

// ParseStrength is the inverse of Strength.String.
func ParseStrength(name string) (Strength, error) {
	for s := None; s <= Overwhelming; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("unknown attack strength %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strength) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strength) UnmarshalText(b []byte) error {
	v, err := ParseStrength(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

const (
	DefaultMinimumLethality = 400
	DefaultLethalityStep    = 100
)

// PredictorConfig sets the lethality buckets. Zero fields take defaults.
type PredictorConfig struct {
	// MinimumLethality is the force lethality below which no attack is
	// considered.
	MinimumLethality float64
	// LethalityStep is the width of each bucket above the minimum.
	LethalityStep float64
}

// Predictor scores attacks. It holds no mutable state and is safe for
// concurrent use.
type Predictor struct {
	minimum float64
	step    float64
}

// NewPredictor builds a Predictor from cfg.
func NewPredictor(cfg PredictorConfig) *Predictor {
	p := &Predictor{minimum: cfg.MinimumLethality, step: cfg.LethalityStep}
	if p.minimum <= 0 {
		p.minimum = DefaultMinimumLethality
	}
	if p.step <= 0 {
		p.step = DefaultLethalityStep
	}
	return p
}

// Config returns the effective configuration.
func (p *Predictor) Config() PredictorConfig {
	return PredictorConfig{MinimumLethality: p.minimum, LethalityStep: p.step}
}

// Predict averages the risk/reward and lethality sub-scores, truncating.
func (p *Predictor) Predict(risk, reward int, availableLethality float64, bounds *scouting.HistoricalBounds) Strength {
	return p.Assess(risk, reward, availableLethality, bounds).Strength
}

// PredictForCell predicts an attack on the aggregated cell.
func (p *Predictor) PredictForCell(cell scouting.AggregateCellData, availableLethality float64, bounds *scouting.HistoricalBounds) Strength {
	return p.Predict(cell.AverageRisk, cell.AverageReward, availableLethality, bounds)
}

// Assessment is a prediction together with the sub-scores it averaged.
type Assessment struct {
	Strength   Strength `json:"strength"`
	RiskReward Strength `json:"risk_reward"`
	Lethality  Strength `json:"lethality"`
}

// Assess is Predict with the intermediate sub-scores kept.
func (p *Predictor) Assess(risk, reward int, availableLethality float64, bounds *scouting.HistoricalBounds) Assessment {
	a := Assessment{
		RiskReward: p.RiskRewardStrength(risk, reward, bounds),
		Lethality:  p.LethalityStrength(availableLethality),
	}
	a.Strength = (a.RiskReward + a.Lethality) / 2
	return a
}

// RiskRewardStrength buckets risk and reward against the historical
// extremes. Without history it returns Medium so a fresh store does not
// veto every attack.
func (p *Predictor) RiskRewardStrength(risk, reward int, b *scouting.HistoricalBounds) Strength {
	if b == nil {
		return Medium
	}
	rewardStep := (b.HighestReward - b.LowestReward) / 2
	riskStep := (b.HighestRisk - b.LowestRisk) / 2

	switch {
	case risk < b.LowestRisk && reward > b.HighestReward:
		return Overwhelming
	case risk <= b.LowestRisk && reward >= b.HighestReward:
		return High
	case risk <= b.LowestRisk+riskStep/2 && reward >= b.HighestReward-rewardStep/2:
		return Medium
	case risk <= b.LowestRisk+riskStep && reward >= b.HighestReward-rewardStep:
		return Low
	}
	return None
}

// LethalityStrength buckets a force's lethality: below the minimum is None,
// then one level per step up to Overwhelming.
func (p *Predictor) LethalityStrength(lethality float64) Strength {
	switch {
	case lethality < p.minimum:
		return None
	case lethality < p.minimum+p.step:
		return Low
	case lethality < p.minimum+2*p.step:
		return Medium
	case lethality < p.minimum+3*p.step:
		return High
	}
	return Overwhelming
}
