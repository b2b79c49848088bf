// Package testutil provides grid fixtures shared by the service packages'
// tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// MapMax is the upper map corner of grids built by StartGrid.
var MapMax = scouting.Position{X: 100, Y: 100}

// QuietLogger discards everything written to it.
func QuietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// StartGrid starts a 100x100 grid with flushing disabled and stops it when
// the test ends. mutate, if non-nil, adjusts the config first.
func StartGrid(t testing.TB, mutate func(*scouting.Config)) *scouting.Grid {
	t.Helper()
	cfg := scouting.Config{
		MapMax:             MapMax,
		FlushIntervalTicks: -1,
		Logger:             QuietLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := scouting.New(cfg)
	if err != nil {
		t.Fatalf("scouting.New: %v", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(g.Stop)
	return g
}

// Scored is a report with explicit scores at a map position.
type Scored struct {
	Pos          scouting.Position
	Reward, Risk int
}

// Seed submits reports and waits for a snapshot containing them.
func Seed(t testing.TB, g *scouting.Grid, reports ...Scored) *scouting.Snapshot {
	t.Helper()
	for _, r := range reports {
		g.SubmitReport(scouting.NewScoutReportWithScores(r.Reward, r.Risk, r.Pos, g.CurrentTick(), scouting.ReportInfo{}))
	}
	snap, err := g.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return snap
}

// ThreeCells is a fixture with one clear winner: (1,1) fit 10, (5,5) fit 2
// and the risk-free (2,1) with fit 4.
var ThreeCells = []Scored{
	{Pos: scouting.Position{X: 10, Y: 10}, Reward: 100, Risk: 10},
	{Pos: scouting.Position{X: 50, Y: 50}, Reward: 20, Risk: 10},
	{Pos: scouting.Position{X: 20, Y: 10}, Reward: 4, Risk: 0},
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
