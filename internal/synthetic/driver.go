package synthetic

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/timeutil"
)

// DefaultTickRate approximates a game running at normal speed.
const DefaultTickRate = 40 * time.Millisecond

// Grid is the part of scouting.Grid the driver feeds.
type Grid interface {
	Tick(currentTick int64)
	CurrentTick() int64
	SubmitReport(r *scouting.ScoutReport)
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	Grid Grid
	// Generator is optional. Without one the driver only advances ticks.
	Generator *Generator
	// TickRate defaults to DefaultTickRate.
	TickRate time.Duration
	// StatsEvery logs a summary every n ticks. Zero disables it.
	StatsEvery int64
	// Clock defaults to timeutil.RealClock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Driver stands in for a simulation loop: every tick it advances the
// grid's clock and, with a generator, submits a batch of reports.
type Driver struct {
	cfg       DriverConfig
	submitted atomic.Uint64
}

// NewDriver validates cfg and fills its defaults.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Grid == nil {
		return nil, errors.New("synthetic: grid is required")
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Driver{cfg: cfg}, nil
}

// Submitted returns the number of reports the driver has submitted.
func (d *Driver) Submitted() uint64 { return d.submitted.Load() }

// Run ticks until ctx is done. It always returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	ticker := d.cfg.Clock.NewTicker(d.cfg.TickRate)
	defer ticker.Stop()

	tick := d.cfg.Grid.CurrentTick()
	d.cfg.Logger.Printf("[Synthetic] driving grid from tick %d every %v (reports=%t)", tick, d.cfg.TickRate, d.cfg.Generator != nil)
	for {
		select {
		case <-ctx.Done():
			d.cfg.Logger.Printf("[Synthetic] stopped at tick %d after %d reports", tick, d.submitted.Load())
			return ctx.Err()
		case <-ticker.C():
			tick++
			d.step(tick)
		}
	}
}

func (d *Driver) step(tick int64) {
	if d.cfg.Generator != nil {
		for _, in := range d.cfg.Generator.Batch(tick) {
			d.cfg.Grid.SubmitReport(in.Report(tick))
			d.submitted.Add(1)
		}
	}
	d.cfg.Grid.Tick(tick)
	if d.cfg.StatsEvery > 0 && tick%d.cfg.StatsEvery == 0 {
		d.cfg.Logger.Printf("[Synthetic] tick=%d reports=%d", tick, d.submitted.Load())
	}
}
