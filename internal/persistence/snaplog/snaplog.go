// Package snaplog records every published grid snapshot as one JSON line
// in hourly zstd-compressed files named <prefix>-YYYY-MM-DD-HH.jsonl.zst.
package snaplog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/security"
	"github.com/banshee-data/scoutgrid/internal/timeutil"
)

// DefaultPrefix names the log files when Options.Prefix is empty.
const DefaultPrefix = "grid"

// Entry is one logged snapshot.
type Entry struct {
	Generation   uint64                       `json:"generation"`
	Tick         int64                        `json:"tick"`
	TotalReports int                          `json:"total_reports"`
	Best         *scouting.AggregateCellData  `json:"best,omitempty"`
	Cells        []scouting.AggregateCellData `json:"cells"`
}

// Options configure a Writer.
type Options struct {
	// Prefix is reduced to a safe file name; empty means DefaultPrefix.
	Prefix string
	// Clock picks the rotation hour; defaults to the wall clock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Writer appends entries to the current hour's file. It is safe for
// concurrent use and implements scouting.UpdateListener.
type Writer struct {
	dir    string
	prefix string
	clock  timeutil.Clock
	logger *log.Logger

	mu      sync.Mutex
	curHour string
	closed  bool
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer

	written atomic.Uint64
	failed  atomic.Uint64
}

var _ scouting.UpdateListener = (*Writer)(nil)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("snaplog: writer closed")

// NewWriter returns a Writer rooted at dir. Files are created lazily.
func NewWriter(dir string, opts Options) *Writer {
	prefix := security.SanitizeFilename(opts.Prefix, DefaultPrefix)
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{dir: dir, prefix: prefix, clock: clock, logger: logger}
}

// OnGridUpdated logs snap. Failures are counted and logged, never returned
// to the grid worker.
func (w *Writer) OnGridUpdated(snap *scouting.Snapshot) {
	e := Entry{
		Generation:   snap.Generation,
		Tick:         snap.Tick,
		TotalReports: snap.TotalReports(),
		Best:         snap.Best,
		Cells:        snap.Cells(),
	}
	if err := w.Write(e); err != nil && !errors.Is(err, ErrClosed) {
		w.failed.Add(1)
		w.logger.Printf("[SnapLog] generation %d: %v", snap.Generation, err)
	}
}

// Write appends e as one line, rotating first if the hour changed.
func (w *Writer) Write(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	hour := w.clock.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	w.written.Add(1)
	return nil
}

// Written returns the number of entries written.
func (w *Writer) Written() uint64 { return w.written.Load() }

// Failed returns the number of snapshots that could not be logged.
func (w *Writer) Failed() uint64 { return w.failed.Load() }

// Close flushes and closes the current file. Later writes fail with ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.closeLocked()
}

// PathForHour returns the file that holds entries of hour (YYYY-MM-DD-HH).
func (w *Writer) PathForHour(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// ReadHour decodes the entries logged during hour. Hours that would name a
// file outside the log directory are rejected. Reading the hour being
// written ends its current zstd frame; the next Write starts another.
func (w *Writer) ReadHour(hour string) ([]Entry, error) {
	path := w.PathForHour(hour)
	if err := security.ValidatePathWithinDirectory(path, w.dir); err != nil {
		return nil, err
	}
	w.mu.Lock()
	if hour == w.curHour {
		if err := w.closeLocked(); err != nil {
			w.mu.Unlock()
			return nil, err
		}
	}
	w.mu.Unlock()
	return ReadFile(path)
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(w.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("zstd writer: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

// ReadFile decodes every entry in a log file written by Writer. Files that
// were reopened after a rotation hold several zstd frames; all are read.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads zstd-compressed JSON lines from r.
func Decode(r io.Reader) ([]Entry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var out []Entry
	jd := json.NewDecoder(dec)
	for {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decode entry %d: %w", len(out), err)
		}
		out = append(out, e)
	}
}
