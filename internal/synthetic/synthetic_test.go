package synthetic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/testutil"
	"github.com/banshee-data/scoutgrid/internal/timeutil"
)

var (
	mapMin = scouting.Position{X: 0, Y: 0}
	mapMax = scouting.Position{X: 127, Y: 127}
)

func TestGeneratorDeterministicBySeed(t *testing.T) {
	a := NewGenerator(mapMin, mapMax, 42)
	b := NewGenerator(mapMin, mapMax, 42)
	c := NewGenerator(mapMin, mapMax, 43)

	if diff := cmp.Diff(a.Hotspots, b.Hotspots); diff != "" {
		t.Fatalf("hotspots differ for equal seeds (-a +b):\n%s", diff)
	}

	sameAsC := true
	for tick := int64(1); tick <= 20; tick++ {
		ba, bb, bc := a.Batch(tick), b.Batch(tick), c.Batch(tick)
		if diff := cmp.Diff(ba, bb); diff != "" {
			t.Fatalf("tick %d: batches differ for equal seeds (-a +b):\n%s", tick, diff)
		}
		if !cmp.Equal(ba, bc) {
			sameAsC = false
		}
	}
	assert.False(t, sameAsC, "different seeds should give different reports")
	assert.Equal(t, uint64(80), a.Generated())
}

func TestGeneratorStaysOnMap(t *testing.T) {
	g := NewGenerator(mapMin, mapMax, 7)
	g.Hotspots = append(g.Hotspots, Hotspot{Center: mapMax, Radius: 20, Kind: Army, Size: 3})
	for i := 0; i < 2000; i++ {
		in := g.Next(5)
		require.GreaterOrEqual(t, in.Position.X, mapMin.X)
		require.LessOrEqual(t, in.Position.X, mapMax.X)
		require.GreaterOrEqual(t, in.Position.Y, mapMin.Y)
		require.LessOrEqual(t, in.Position.Y, mapMax.Y)
		require.NotNil(t, in.Tick)
		require.Equal(t, int64(5), *in.Tick)
	}
}

func TestHotspotCompositions(t *testing.T) {
	g := NewGenerator(mapMin, mapMax, 1)
	for i := 0; i < 200; i++ {
		army := g.composition(Hotspot{Kind: Army, Size: 4})
		assert.Zero(t, army.Buildings()+army.DefensiveStructures(), "army reports carry no structures")

		exp := g.composition(Hotspot{Kind: Expansion, Size: 4})
		assert.GreaterOrEqual(t, exp.OreRefineries, 1, "expansions always show a refinery")
	}
	assert.Equal(t, "base", Base.String())
	assert.Equal(t, "unknown", HotspotKind(9).String())
}

type recordingGrid struct {
	mu      sync.Mutex
	tick    int64
	ticks   []int64
	reports []*scouting.ScoutReport
}

func (g *recordingGrid) Tick(currentTick int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tick = currentTick
	g.ticks = append(g.ticks, currentTick)
}

func (g *recordingGrid) CurrentTick() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

func (g *recordingGrid) SubmitReport(r *scouting.ScoutReport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reports = append(g.reports, r)
}

func TestDriverTicksAndSubmits(t *testing.T) {
	grid := &recordingGrid{tick: 100}
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	gen := NewGenerator(mapMin, mapMax, 3)
	gen.ReportsPerTick = 2

	d, err := NewDriver(DriverConfig{
		Grid:       grid,
		Generator:  gen,
		TickRate:   time.Second,
		StatsEvery: 1,
		Clock:      clock,
		Logger:     testutil.QuietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return grid.CurrentTick() >= 103
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))

	grid.mu.Lock()
	defer grid.mu.Unlock()
	assert.Equal(t, []int64{101, 102, 103}, grid.ticks[:3], "ticks continue from the grid's current tick")
	assert.Equal(t, uint64(len(grid.reports)), d.Submitted())
	assert.Equal(t, 2*len(grid.ticks), len(grid.reports))
	assert.Equal(t, int64(101), grid.reports[0].Tick)
}

func TestDriverWithoutGenerator(t *testing.T) {
	g := testutil.StartGrid(t, nil)

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	d, err := NewDriver(DriverConfig{Grid: g, Clock: clock, Logger: testutil.QuietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		clock.Advance(DefaultTickRate)
		return g.CurrentTick() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, d.Submitted())
}

func TestNewDriverRequiresGrid(t *testing.T) {
	_, err := NewDriver(DriverConfig{})
	assert.Error(t, err)
}
