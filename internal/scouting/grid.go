package scouting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultCellWidth is the edge length of a grid cell in map cells.
	DefaultCellWidth = 10
	// DefaultRebuildIntervalTicks is the number of tick pulses between
	// wake signals.
	DefaultRebuildIntervalTicks = 40
	// DefaultFlushIntervalTicks is the number of tick pulses between
	// flushes to the historical store.
	DefaultFlushIntervalTicks = 2400
	// DefaultBoundsQueryTimeout caps each asynchronous bounds refresh.
	DefaultBoundsQueryTimeout = 5 * time.Second
)

var (
	// ErrNotRunning is returned by Rebuild when the worker is not running.
	ErrNotRunning = errors.New("scouting: grid worker not running")
	// ErrClosed is returned by Start after Stop.
	ErrClosed = errors.New("scouting: grid closed")
)

// Config contains the construction parameters of a Grid.
type Config struct {
	// MapMin and MapMax bound the playable map in map cells.
	MapMin Position
	MapMax Position
	// CellWidth defaults to DefaultCellWidth when zero.
	CellWidth int

	// Decay lifetimes; zero fields take the defaults.
	StaticTimeoutTicks    int64
	TransientTimeoutTicks int64

	// RebuildIntervalTicks defaults to DefaultRebuildIntervalTicks.
	RebuildIntervalTicks int
	// FlushIntervalTicks defaults to DefaultFlushIntervalTicks. Negative
	// disables flushing.
	FlushIntervalTicks int

	// Bounds is optional. Without it the cached bounds stay nil.
	Bounds             BoundsProvider
	BoundsQueryTimeout time.Duration

	// Listeners are called on the worker goroutine after every publish.
	Listeners []UpdateListener

	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Grid is the scouting intelligence grid. Submissions and tick pulses are
// safe from any goroutine; queries read the latest published Snapshot.
type Grid struct {
	index  SpatialIndex
	decay  DecayPolicy
	logger *log.Logger

	bounds       BoundsProvider
	boundsTO     time.Duration
	cachedBounds atomic.Pointer[HistoricalBounds]
	refreshing   atomic.Bool
	flushes      atomic.Uint64

	rebuildInterval int64
	flushInterval   int64
	rebuildCount    atomic.Int64
	flushCount      atomic.Int64
	tick            atomic.Int64

	w *worker

	mu      sync.Mutex
	running bool
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	bg      sync.WaitGroup
}

// New validates cfg and builds a stopped grid.
func New(cfg Config) (*Grid, error) {
	width := cfg.CellWidth
	if width == 0 {
		width = DefaultCellWidth
	}
	index, err := NewSpatialIndex(cfg.MapMin, cfg.MapMax, width)
	if err != nil {
		return nil, fmt.Errorf("new grid: %w", err)
	}

	decay := DefaultDecayPolicy()
	if cfg.StaticTimeoutTicks != 0 {
		decay.StaticTimeoutTicks = cfg.StaticTimeoutTicks
	}
	if cfg.TransientTimeoutTicks != 0 {
		decay.TransientTimeoutTicks = cfg.TransientTimeoutTicks
	}
	if decay.StaticTimeoutTicks < 0 || decay.TransientTimeoutTicks < 0 {
		return nil, fmt.Errorf("new grid: %w: negative decay timeout", ErrInvalidConfig)
	}

	rebuild := int64(cfg.RebuildIntervalTicks)
	if rebuild == 0 {
		rebuild = DefaultRebuildIntervalTicks
	}
	if rebuild < 0 {
		return nil, fmt.Errorf("new grid: %w: rebuild interval %d", ErrInvalidConfig, rebuild)
	}
	flush := int64(cfg.FlushIntervalTicks)
	if flush == 0 {
		flush = DefaultFlushIntervalTicks
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.BoundsQueryTimeout
	if timeout <= 0 {
		timeout = DefaultBoundsQueryTimeout
	}

	g := &Grid{
		index:           index,
		decay:           decay,
		logger:          logger,
		bounds:          cfg.Bounds,
		boundsTO:        timeout,
		rebuildInterval: rebuild,
		flushInterval:   flush,
	}
	g.rebuildCount.Store(rebuild)
	g.flushCount.Store(flush)

	listeners := append([]UpdateListener(nil), cfg.Listeners...)
	g.w = newWorker(index, decay, &g.tick, listeners)
	return g, nil
}

// Index returns the grid's spatial index.
func (g *Grid) Index() SpatialIndex { return g.index }

// Start launches the worker goroutine. It returns immediately. The worker
// stops when ctx is cancelled or Stop is called.
func (g *Grid) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if g.running {
		return nil
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	go g.loop(ctx, g.stopCh, g.doneCh)
	return nil
}

// Run starts the worker and blocks until ctx is cancelled or Stop is called.
func (g *Grid) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	done := g.doneCh
	g.mu.Unlock()
	<-done
	return nil
}

func (g *Grid) loop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
		close(done)
	}()
	g.logger.Printf("[ScoutGrid] worker started: %dx%d cells, width=%d, rebuild every %d ticks",
		g.index.Width, g.index.Height, g.index.CellWidth, g.rebuildInterval)
	g.w.run(ctx, stop)
	g.logger.Printf("[ScoutGrid] worker stopped after %d passes", g.w.passes.Load())
}

// Stop shuts the worker down and waits for it and any in-flight bounds
// refresh to finish. It is safe to call multiple times. A stopped grid
// cannot be restarted.
func (g *Grid) Stop() {
	g.mu.Lock()
	g.closed = true
	if !g.running {
		g.mu.Unlock()
		g.bg.Wait()
		return
	}
	select {
	case <-g.stopCh:
	default:
		close(g.stopCh)
	}
	done := g.doneCh
	g.mu.Unlock()

	<-done
	g.bg.Wait()
}

// IsRunning reports whether the worker goroutine is live.
func (g *Grid) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// SubmitReport enqueues r for the next rebuild. It never blocks on a
// rebuild and never fails.
func (g *Grid) SubmitReport(r *ScoutReport) {
	g.w.push(r)
}

// Tick records the current simulation tick and advances the rebuild and
// flush countdowns. It does no aggregation work itself.
func (g *Grid) Tick(currentTick int64) {
	g.tick.Store(currentTick)

	if g.rebuildCount.Add(-1) == 0 {
		g.rebuildCount.Add(g.rebuildInterval)
		g.w.signal()
	}

	if g.flushInterval > 0 && g.flushCount.Add(-1) == 0 {
		g.flushCount.Add(g.flushInterval)
		g.flush()
	}
}

// CurrentTick returns the last tick passed to Tick.
func (g *Grid) CurrentTick() int64 { return g.tick.Load() }

// Rebuild forces a pass and waits for a snapshot that includes every report
// submitted before the call.
func (g *Grid) Rebuild(ctx context.Context) (*Snapshot, error) {
	if !g.IsRunning() {
		return nil, ErrNotRunning
	}
	return g.w.await(ctx)
}

// FlushNow persists the latest snapshot and refreshes the cached bounds
// outside the regular interval.
func (g *Grid) FlushNow() {
	g.flush()
}

// flush hands the latest snapshot to the store and kicks off a bounds
// refresh. Both are asynchronous from the caller's point of view.
func (g *Grid) flush() {
	if g.bounds == nil {
		return
	}
	snap := g.w.snapshot()
	g.bounds.Persist(snap.Aggregate())
	g.flushes.Add(1)
	g.refreshBounds()
}

// refreshBounds starts a bounds query unless one is already in flight.
func (g *Grid) refreshBounds() {
	if !g.refreshing.CompareAndSwap(false, true) {
		return
	}
	g.bg.Add(1)
	go func() {
		defer g.bg.Done()
		defer g.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), g.boundsTO)
		defer cancel()
		b, err := g.bounds.QueryBestBounds(ctx)
		if err != nil {
			g.logger.Printf("[ScoutGrid] bounds refresh failed: %v", err)
			return
		}
		if b == nil {
			return
		}
		g.cachedBounds.Store(b)
	}()
}

// HistoricalBounds returns the last successfully refreshed bounds, or nil.
func (g *Grid) HistoricalBounds() *HistoricalBounds {
	b := g.cachedBounds.Load()
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Stats returns the worker counters.
func (g *Grid) Stats() WorkerStats {
	s := g.w.stats()
	s.Flushes = g.flushes.Load()
	return s
}
