package attack

import "testing"

func TestHitPointLethality(t *testing.T) {
	units := []Combatant{{HitPoints: 150}, {HitPoints: 250}, {HitPoints: -20}}
	if got := TotalLethality(units, nil); got != 400 {
		t.Errorf("TotalLethality(hp) = %v, want 400", got)
	}
	if got := TotalLethality(nil, MetricFunc(HitPointLethality)); got != 0 {
		t.Errorf("empty force lethality = %v, want 0", got)
	}
}

func TestDamageLethality(t *testing.T) {
	tank := Combatant{HitPoints: 400, Armaments: [][]int{{40, 60}, {80}}}
	if got := DamageLethality(tank); got != 60 {
		t.Errorf("DamageLethality = %v, want 60", got)
	}

	unarmed := Combatant{HitPoints: 100, Armaments: [][]int{{}}}
	if got := DamageLethality(unarmed); got != 0 {
		t.Errorf("unarmed DamageLethality = %v, want 0", got)
	}

	force := []Combatant{tank, unarmed, {Armaments: [][]int{{10}}}}
	if got := TotalLethality(force, MetricFunc(DamageLethality)); got != 70 {
		t.Errorf("TotalLethality(damage) = %v, want 70", got)
	}
}

func TestPredictWithHitPointForce(t *testing.T) {
	p := NewPredictor(PredictorConfig{})
	force := []Combatant{{HitPoints: 300}, {HitPoints: 300}}
	// 600 hp is High; history-free risk/reward is Medium.
	if got := p.Predict(0, 0, TotalLethality(force, nil), nil); got != Medium {
		t.Errorf("Predict = %v, want medium", got)
	}
}

func TestMetricByName(t *testing.T) {
	tank := Combatant{HitPoints: 400, Armaments: [][]int{{40, 60}}}
	for name, want := range map[string]float64{"": 400, "HP": 400, "hitpoints": 400, "damage": 50} {
		m, err := MetricByName(name)
		if err != nil {
			t.Fatalf("MetricByName(%q): %v", name, err)
		}
		if got := m.Lethality(tank); got != want {
			t.Errorf("MetricByName(%q) lethality = %v, want %v", name, got, want)
		}
	}
	if _, err := MetricByName("morale"); err == nil {
		t.Error("MetricByName(morale) should fail")
	}
}
