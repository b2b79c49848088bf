// Package sqlite implements the historical bounds store on top of the
// SQLite database opened by internal/db.
//
// All statements run on a single writer goroutine. Persist is a
// fire-and-forget enqueue so the grid's tick path never waits on disk; reads
// travel through the same queue and therefore observe every flush accepted
// before them.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scoutgrid/internal/db"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// DefaultQueueSize is the writer queue capacity when Options.QueueSize is zero.
const DefaultQueueSize = 64

// ErrClosed is returned by reads issued after Close.
var ErrClosed = errors.New("sqlite: bounds store closed")

// Options configure a BoundsStore.
type Options struct {
	QueueSize int
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
	// Now stamps each flush row. Defaults to time.Now.
	Now func() time.Time
}

// Stats are the store's queue counters.
type Stats struct {
	Persisted     uint64 `json:"persisted"`
	Skipped       uint64 `json:"skipped"`
	Dropped       uint64 `json:"dropped"`
	Failed        uint64 `json:"failed"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// CellHistory is one flushed aggregate of a single cell.
type CellHistory struct {
	FlushID       string `json:"flush_id"`
	Tick          int64  `json:"tick"`
	Generation    uint64 `json:"generation"`
	NumReports    int    `json:"num_reports"`
	AverageRisk   int    `json:"average_risk"`
	AverageReward int    `json:"average_reward"`
}

type request struct {
	// exactly one of persist or read is set
	persist *scouting.AggregateSnapshot
	read    func(*sql.DB)
}

// BoundsStore implements scouting.BoundsProvider.
type BoundsStore struct {
	db     *db.DB
	logger *log.Logger
	now    func() time.Time

	ch     chan request
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	persisted atomic.Uint64
	skipped   atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

var _ scouting.BoundsProvider = (*BoundsStore)(nil)

// NewBoundsStore starts the writer goroutine over d. d must already be
// migrated. The store does not close d.
func NewBoundsStore(d *db.DB, opts Options) *BoundsStore {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &BoundsStore{
		db:     d,
		logger: logger,
		now:    now,
		ch:     make(chan request, size),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s
}

// Close stops the writer after it has handled everything already queued.
func (s *BoundsStore) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// Persist queues snap for writing. It never blocks; when the queue is full
// the snapshot is dropped and counted.
func (s *BoundsStore) Persist(snap scouting.AggregateSnapshot) {
	if s == nil || s.closed.Load() {
		return
	}
	if len(snap.Cells) == 0 {
		s.skipped.Add(1)
		return
	}
	select {
	case s.ch <- request{persist: &snap}:
	default:
		s.dropped.Add(1)
	}
}

// QueryBestBounds returns the lowest risk and reward and the highest risk
// and reward across every flush, or nil when nothing has been flushed.
func (s *BoundsStore) QueryBestBounds(ctx context.Context) (*scouting.HistoricalBounds, error) {
	return do(ctx, s, func(conn *sql.DB) (*scouting.HistoricalBounds, error) {
		var (
			n                  int64
			loRisk, hiRisk     sql.NullInt64
			loReward, hiReward sql.NullInt64
		)
		row := conn.QueryRowContext(ctx, `SELECT COUNT(*), MIN(lowest_risk), MAX(highest_risk), MIN(lowest_reward), MAX(highest_reward)
			FROM scout_report_bounds`)
		if err := row.Scan(&n, &loRisk, &hiRisk, &loReward, &hiReward); err != nil {
			return nil, fmt.Errorf("query bounds: %w", err)
		}
		if n == 0 {
			return nil, nil
		}
		return &scouting.HistoricalBounds{
			LowestRisk:    int(loRisk.Int64),
			HighestRisk:   int(hiRisk.Int64),
			LowestReward:  int(loReward.Int64),
			HighestReward: int(hiReward.Int64),
		}, nil
	})
}

// CellHistory returns up to limit flushed aggregates of idx, newest first.
func (s *BoundsStore) CellHistory(ctx context.Context, idx scouting.CellIndex, limit int) ([]CellHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	return do(ctx, s, func(conn *sql.DB) ([]CellHistory, error) {
		rows, err := conn.QueryContext(ctx, `SELECT b.flush_id, b.tick, b.generation, c.num_reports, c.average_risk, c.average_reward
			FROM scout_cell_history c
			JOIN scout_report_bounds b ON b.flush_id = c.flush_id
			WHERE c.cell_x = ? AND c.cell_y = ?
			ORDER BY b.tick DESC, b.recorded_unix_nanos DESC
			LIMIT ?`, idx.X, idx.Y, limit)
		if err != nil {
			return nil, fmt.Errorf("query cell history: %w", err)
		}
		defer rows.Close()
		var out []CellHistory
		for rows.Next() {
			var h CellHistory
			if err := rows.Scan(&h.FlushID, &h.Tick, &h.Generation, &h.NumReports, &h.AverageRisk, &h.AverageReward); err != nil {
				return nil, fmt.Errorf("scan cell history: %w", err)
			}
			out = append(out, h)
		}
		return out, rows.Err()
	})
}

// Stats returns the queue counters.
func (s *BoundsStore) Stats() Stats {
	return Stats{
		Persisted:     s.persisted.Load(),
		Skipped:       s.skipped.Load(),
		Dropped:       s.dropped.Load(),
		Failed:        s.failed.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

type result[T any] struct {
	v   T
	err error
}

// do runs fn on the writer goroutine and waits for its result.
func do[T any](ctx context.Context, s *BoundsStore, fn func(*sql.DB) (T, error)) (T, error) {
	var zero T
	if s.closed.Load() {
		return zero, ErrClosed
	}
	resCh := make(chan result[T], 1)
	r := request{read: func(conn *sql.DB) {
		v, err := fn(conn)
		resCh <- result[T]{v, err}
	}}
	select {
	case s.ch <- r:
	case <-s.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case res := <-resCh:
		return res.v, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *BoundsStore) loop() {
	for {
		select {
		case r := <-s.ch:
			s.handle(r)
		case <-s.done:
			// Finish what was accepted before Close.
			for {
				select {
				case r := <-s.ch:
					s.handle(r)
				default:
					return
				}
			}
		}
	}
}

func (s *BoundsStore) handle(r request) {
	switch {
	case r.persist != nil:
		if err := s.insert(*r.persist); err != nil {
			s.failed.Add(1)
			s.logger.Printf("[BoundsStore] flush at tick %d failed: %v", r.persist.Tick, err)
			return
		}
		s.persisted.Add(1)
	case r.read != nil:
		r.read(s.db.DB)
	}
}

func (s *BoundsStore) insert(snap scouting.AggregateSnapshot) error {
	b := snap.Bounds()
	if b == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO scout_report_bounds
		(flush_id, tick, generation, lowest_risk, highest_risk, lowest_reward, highest_reward, num_cells, recorded_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, snap.Tick, snap.Generation, b.LowestRisk, b.HighestRisk, b.LowestReward, b.HighestReward,
		len(snap.Cells), s.now().UnixNano()); err != nil {
		return fmt.Errorf("insert bounds: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scout_cell_history
		(flush_id, cell_x, cell_y, num_reports, average_risk, average_reward,
		 infantry_percent, vehicle_percent, air_percent,
		 anti_infantry_percent, anti_vehicle_percent, anti_air_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cell insert: %w", err)
	}
	defer stmt.Close()
	for _, c := range snap.Cells {
		if _, err := stmt.Exec(id, c.Index.X, c.Index.Y, c.NumReports, c.AverageRisk, c.AverageReward,
			c.InfantryPercent, c.VehiclePercent, c.AirPercent,
			c.AntiInfantryPercent, c.AntiVehiclePercent, c.AntiAirPercent); err != nil {
			return fmt.Errorf("insert cell %d,%d: %w", c.Index.X, c.Index.Y, err)
		}
	}
	return tx.Commit()
}
