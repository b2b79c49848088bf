package attack

import (
	"fmt"
	"strings"
)

// Combatant is the part of a friendly unit the lethality metrics read.
type Combatant struct {
	HitPoints int `json:"hit_points"`
	// Armaments lists, per weapon, the damage of each damaging warhead.
	Armaments [][]int `json:"armaments,omitempty"`
}

// LethalityMetric scores one combatant.
type LethalityMetric interface {
	Lethality(c Combatant) float64
}

// MetricFunc adapts a function to LethalityMetric.
type MetricFunc func(c Combatant) float64

// Lethality calls f(c).
func (f MetricFunc) Lethality(c Combatant) float64 { return f(c) }

// HitPointLethality scores a unit by its current hit points.
func HitPointLethality(c Combatant) float64 {
	if c.HitPoints < 0 {
		return 0
	}
	return float64(c.HitPoints)
}

// DamageLethality scores a unit by the mean damage of its warheads. Units
// without any warhead score zero.
func DamageLethality(c Combatant) float64 {
	total, n := 0, 0
	for _, warheads := range c.Armaments {
		for _, dmg := range warheads {
			total += dmg
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// TotalLethality sums metric over units. A nil metric uses HitPointLethality.
func TotalLethality(units []Combatant, metric LethalityMetric) float64 {
	if metric == nil {
		metric = MetricFunc(HitPointLethality)
	}
	total := 0.0
	for _, u := range units {
		total += metric.Lethality(u)
	}
	return total
}

// MetricByName resolves "hitpoints" (or "hp", or empty) and "damage".
func MetricByName(name string) (LethalityMetric, error) {
	switch strings.ToLower(name) {
	case "", "hitpoints", "hp":
		return MetricFunc(HitPointLethality), nil
	case "damage":
		return MetricFunc(DamageLethality), nil
	}
	return nil, fmt.Errorf("unknown lethality metric %q", name)
}
