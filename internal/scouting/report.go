package scouting

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidConfig is wrapped by every constructor in this package that
// rejects its configuration.
var ErrInvalidConfig = errors.New("scouting: invalid config")

// ReportInfo counts the enemy assets visible when a report was taken.
type ReportInfo struct {
	PowerPlants         int `json:"power_plants,omitempty"`
	AdvancedPowerPlants int `json:"advanced_power_plants,omitempty"`

	AntiInfantryDefenses int `json:"anti_infantry_defenses,omitempty"`
	AntiVehicleDefenses  int `json:"anti_vehicle_defenses,omitempty"`
	AntiAirDefenses      int `json:"anti_air_defenses,omitempty"`
	OtherDefenses        int `json:"other_defenses,omitempty"`

	Infantry   int `json:"infantry,omitempty"`
	Harvesters int `json:"harvesters,omitempty"`
	Vehicles   int `json:"vehicles,omitempty"`
	Aircraft   int `json:"aircraft,omitempty"`

	OreRefineries  int `json:"ore_refineries,omitempty"`
	OtherBuildings int `json:"other_buildings,omitempty"`
}

// OffensiveUnits is the count of units that can fight back.
func (i ReportInfo) OffensiveUnits() int {
	return i.Infantry + i.Vehicles + i.Aircraft
}

// Buildings is the count of non-defensive structures.
func (i ReportInfo) Buildings() int {
	return i.PowerPlants + i.AdvancedPowerPlants + i.OreRefineries + i.OtherBuildings
}

// DefensiveStructures is the count of all defensive structures.
func (i ReportInfo) DefensiveStructures() int {
	return i.AntiInfantryDefenses + i.AntiVehicleDefenses + i.AntiAirDefenses + i.OtherDefenses
}

// reward weights power first (advanced plants count double), then
// refineries and everything else that is a building.
func (i ReportInfo) reward(importance float64) int {
	power := int(float64(i.PowerPlants+2*i.AdvancedPowerPlants) * importance)
	refineries := int(float64(i.OreRefineries) * importance)
	other := int(float64(i.OtherBuildings) * importance)
	return power + refineries + other
}

func (i ReportInfo) risk(importance float64) int {
	return int(float64(i.OffensiveUnits()+i.DefensiveStructures()) * importance)
}

// ScoutReport is one timestamped observation of enemy risk and reward.
// Reports are immutable once created.
type ScoutReport struct {
	ID            uuid.UUID     `json:"id"`
	Reward        int           `json:"reward"`
	Risk          int           `json:"risk"`
	WorldPosition WorldPosition `json:"world_position"`
	MapPosition   Position      `json:"map_position"`
	Tick          int64         `json:"tick"`
	Info          ReportInfo    `json:"info"`
}

// NewScoutReport derives reward and risk from the observed composition.
// importance scales both scores; values <= 0 are treated as 1.
func NewScoutReport(info ReportInfo, importance float64, world WorldPosition, pos Position, tick int64) *ScoutReport {
	if importance <= 0 {
		importance = 1
	}
	return &ScoutReport{
		ID:            uuid.New(),
		Reward:        info.reward(importance),
		Risk:          info.risk(importance),
		WorldPosition: world,
		MapPosition:   pos,
		Tick:          tick,
		Info:          info,
	}
}

// NewScoutReportWithScores builds a report whose scores were computed by the
// caller. The report is transient unless info says otherwise.
func NewScoutReportWithScores(reward, risk int, pos Position, tick int64, info ReportInfo) *ScoutReport {
	return &ScoutReport{
		ID:          uuid.New(),
		Reward:      reward,
		Risk:        risk,
		MapPosition: pos,
		Tick:        tick,
		Info:        info,
	}
}

// IsStatic reports whether the observation includes buildings or defensive
// structures. Static reports decay on the slower timeout.
func (r *ScoutReport) IsStatic() bool {
	return r.Info.Buildings() > 0 || r.Info.DefensiveStructures() > 0
}
