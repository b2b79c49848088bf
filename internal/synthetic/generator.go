// Package synthetic produces scouting reports and tick pulses for demos and
// tests when no simulation is attached.
package synthetic

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// HotspotKind selects the composition a hotspot reports.
type HotspotKind int

const (
	// Base is a defended production site.
	Base HotspotKind = iota
	// Expansion is a lightly defended refinery with harvesters.
	Expansion
	// Army is a roaming force with no buildings, so its reports are transient.
	Army
)

func (k HotspotKind) String() string {
	switch k {
	case Base:
		return "base"
	case Expansion:
		return "expansion"
	case Army:
		return "army"
	}
	return "unknown"
}

// Hotspot is a region that keeps producing reports of one kind.
type Hotspot struct {
	Center scouting.Position
	Radius int
	Kind   HotspotKind
	// Size scales the unit and building counts.
	Size int
}

// Generator emits reports clustered around hotspots plus uniform noise.
// It is not safe for concurrent use except for Generated.
type Generator struct {
	generated atomic.Uint64

	// Configuration
	MapMin         scouting.Position
	MapMax         scouting.Position
	Hotspots       []Hotspot
	ReportsPerTick int     // reports emitted by Batch
	NoiseFraction  float64 // share of reports scattered over the whole map

	// Internal state
	rng *rand.Rand
}

// NewGenerator creates a generator over [lo, hi] with three hotspots
// placed from seed. Equal seeds give equal report sequences.
func NewGenerator(lo, hi scouting.Position, seed int64) *Generator {
	g := &Generator{
		MapMin:         lo,
		MapMax:         hi,
		ReportsPerTick: 4,
		NoiseFraction:  0.1,
		rng:            rand.New(rand.NewSource(seed)),
	}
	radius := int(math.Max(1, float64(hi.X-lo.X)/16))
	for _, k := range []HotspotKind{Base, Expansion, Army} {
		g.Hotspots = append(g.Hotspots, Hotspot{
			Center: g.uniformPosition(),
			Radius: radius,
			Kind:   k,
			Size:   2 + g.rng.Intn(4),
		})
	}
	return g
}

// Generated returns the number of reports produced so far.
func (g *Generator) Generated() uint64 { return g.generated.Load() }

// Next returns one report stamped with tick.
func (g *Generator) Next(tick int64) scouting.ReportInput {
	g.generated.Add(1)
	t := tick
	in := scouting.ReportInput{Tick: &t, Importance: 1}
	if len(g.Hotspots) == 0 || g.rng.Float64() < g.NoiseFraction {
		in.Position = g.uniformPosition()
		in.Info = g.noise()
	} else {
		h := g.Hotspots[g.rng.Intn(len(g.Hotspots))]
		in.Position = g.around(h)
		in.Info = g.composition(h)
	}
	in.WorldPosition = scouting.WorldPosition{X: in.Position.X * 1024, Y: in.Position.Y * 1024}
	return in
}

// Batch returns ReportsPerTick reports stamped with tick.
func (g *Generator) Batch(tick int64) []scouting.ReportInput {
	out := make([]scouting.ReportInput, g.ReportsPerTick)
	for i := range out {
		out[i] = g.Next(tick)
	}
	return out
}

func (g *Generator) uniformPosition() scouting.Position {
	return scouting.Position{
		X: g.MapMin.X + g.rng.Intn(g.MapMax.X-g.MapMin.X+1),
		Y: g.MapMin.Y + g.rng.Intn(g.MapMax.Y-g.MapMin.Y+1),
	}
}

// around samples a point in the hotspot's disc, clamped to the map.
func (g *Generator) around(h Hotspot) scouting.Position {
	angle := g.rng.Float64() * 2 * math.Pi
	dist := g.rng.Float64() * float64(h.Radius)
	p := scouting.Position{
		X: h.Center.X + int(math.Round(dist*math.Cos(angle))),
		Y: h.Center.Y + int(math.Round(dist*math.Sin(angle))),
	}
	p.X = min(max(p.X, g.MapMin.X), g.MapMax.X)
	p.Y = min(max(p.Y, g.MapMin.Y), g.MapMax.Y)
	return p
}

func (g *Generator) upTo(n int) int { return g.rng.Intn(n + 1) }

func (g *Generator) composition(h Hotspot) scouting.ReportInfo {
	n := h.Size
	switch h.Kind {
	case Base:
		return scouting.ReportInfo{
			PowerPlants:          g.upTo(n),
			AdvancedPowerPlants:  g.upTo(n / 2),
			OreRefineries:        g.upTo(n / 2),
			OtherBuildings:       g.upTo(n),
			AntiInfantryDefenses: g.upTo(n / 2),
			AntiVehicleDefenses:  g.upTo(n / 2),
			AntiAirDefenses:      g.upTo(n / 2),
			Infantry:             g.upTo(n),
		}
	case Expansion:
		return scouting.ReportInfo{
			OreRefineries:  1 + g.upTo(n/3),
			Harvesters:     g.upTo(n),
			PowerPlants:    g.upTo(1),
			OtherDefenses:  g.upTo(1),
			Infantry:       g.upTo(n / 2),
			OtherBuildings: g.upTo(1),
		}
	default:
		return scouting.ReportInfo{
			Infantry: g.upTo(3 * n),
			Vehicles: g.upTo(2 * n),
			Aircraft: g.upTo(n / 2),
		}
	}
}

// noise is a stray sighting: a few units or nothing at all.
func (g *Generator) noise() scouting.ReportInfo {
	return scouting.ReportInfo{Infantry: g.upTo(2), Vehicles: g.upTo(1)}
}
