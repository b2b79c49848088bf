package scouting

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/scoutgrid/internal/monitoring"
)

// WorkerStats are cumulative counters for one grid worker.
type WorkerStats struct {
	Submitted uint64 `json:"submitted"`
	Applied   uint64 `json:"applied"`
	Skipped   uint64 `json:"skipped"`
	Evicted   uint64 `json:"evicted"`
	Passes    uint64 `json:"passes"`
	Panics    uint64 `json:"panics"`
	Flushes   uint64 `json:"flushes"`
	Pending   int    `json:"pending"`
}

// worker is the sole mutator of the live report matrix. Producers reach it
// only through push and signal.
type worker struct {
	index     SpatialIndex
	decay     DecayPolicy
	listeners []UpdateListener
	tick      *atomic.Int64

	qmu   sync.Mutex
	queue []*ScoutReport

	// wake holds at most one pending signal; extra signals are dropped.
	wake chan struct{}

	// requested is bumped by Rebuild callers after they have pushed.
	requested atomic.Uint64

	matrix     *ReportMatrix
	generation uint64

	pubMu     sync.RWMutex
	latest    *Snapshot
	published chan struct{}

	submitted atomic.Uint64
	applied   atomic.Uint64
	skipped   atomic.Uint64
	evicted   atomic.Uint64
	passes    atomic.Uint64
	panics    atomic.Uint64
}

func newWorker(index SpatialIndex, decay DecayPolicy, tick *atomic.Int64, listeners []UpdateListener) *worker {
	return &worker{
		index:     index,
		decay:     decay,
		listeners: listeners,
		tick:      tick,
		wake:      make(chan struct{}, 1),
		matrix:    newReportMatrix(index.Width, index.Height),
		latest:    emptySnapshot(index),
		published: make(chan struct{}),
	}
}

// push appends r to the producer queue. It never blocks on a rebuild.
func (w *worker) push(r *ScoutReport) {
	w.qmu.Lock()
	w.queue = append(w.queue, r)
	w.qmu.Unlock()
	w.submitted.Add(1)
}

func (w *worker) drain() []*ScoutReport {
	w.qmu.Lock()
	batch := w.queue
	w.queue = nil
	w.qmu.Unlock()
	return batch
}

func (w *worker) pending() int {
	w.qmu.Lock()
	defer w.qmu.Unlock()
	return len(w.queue)
}

// signal arms the wake channel. Signals sent before the worker observes
// the first one collapse into a single pass.
func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// run executes passes until ctx is done or stop is closed.
func (w *worker) run(ctx context.Context, stop <-chan struct{}) {
	for {
		w.pass()
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-w.wake:
		}
	}
}

// pass performs one drain, insert, evict, publish cycle. A panic anywhere
// in the pass is logged and counted; the loop carries on with the next wake.
func (w *worker) pass() {
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			monitoring.Logf("[ScoutGrid] rebuild pass %d panicked: %v", w.passes.Load(), r)
		}
	}()
	w.passes.Add(1)

	// Load the request sequence before draining: every Rebuild caller that
	// bumped it has already pushed, so this drain covers their reports.
	served := w.requested.Load()
	batch := w.drain()
	tick := w.tick.Load()

	for _, r := range batch {
		if r == nil {
			w.skipped.Add(1)
			monitoring.Logf("[ScoutGrid] skipping nil report")
			continue
		}
		w.matrix.insert(w.index.Index(r.MapPosition), r)
		w.applied.Add(1)
	}
	if n := w.matrix.evict(w.decay, tick); n > 0 {
		w.evicted.Add(uint64(n))
	}

	w.generation++
	snap := buildSnapshot(w.index, w.matrix.clone(), w.generation, tick, served)
	w.publish(snap)

	for _, l := range w.listeners {
		l.OnGridUpdated(snap)
	}
}

func (w *worker) publish(snap *Snapshot) {
	w.pubMu.Lock()
	w.latest = snap
	done := w.published
	w.published = make(chan struct{})
	w.pubMu.Unlock()
	close(done)
}

func (w *worker) snapshot() *Snapshot {
	w.pubMu.RLock()
	defer w.pubMu.RUnlock()
	return w.latest
}

// await requests a pass and blocks until a snapshot covering every report
// pushed before the call has been published.
func (w *worker) await(ctx context.Context) (*Snapshot, error) {
	seq := w.requested.Add(1)
	w.signal()
	for {
		w.pubMu.RLock()
		snap, next := w.latest, w.published
		w.pubMu.RUnlock()
		if snap.served >= seq {
			return snap, nil
		}
		select {
		case <-next:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (w *worker) stats() WorkerStats {
	return WorkerStats{
		Submitted: w.submitted.Load(),
		Applied:   w.applied.Load(),
		Skipped:   w.skipped.Load(),
		Evicted:   w.evicted.Load(),
		Passes:    w.passes.Load(),
		Panics:    w.panics.Load(),
		Pending:   w.pending(),
	}
}
