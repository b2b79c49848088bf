package snaplog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/timeutil"
)

var start = time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC)

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(start)
	w := NewWriter(dir, Options{Clock: clock})

	require.NoError(t, w.Write(Entry{Generation: 1, Tick: 40}))
	require.NoError(t, w.Write(Entry{Generation: 2, Tick: 80}))
	clock.Advance(time.Hour)
	require.NoError(t, w.Write(Entry{Generation: 3, Tick: 120}))
	require.NoError(t, w.Close())

	first, err := ReadFile(w.PathForHour("2026-03-04-09"))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, uint64(1), first[0].Generation)
	assert.Equal(t, int64(80), first[1].Tick)

	second, err := ReadFile(filepath.Join(dir, "grid-2026-03-04-10.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, uint64(3), second[0].Generation)

	assert.Equal(t, uint64(3), w.Written())
	assert.ErrorIs(t, w.Write(Entry{}), ErrClosed)
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(start)

	for gen := uint64(1); gen <= 2; gen++ {
		w := NewWriter(dir, Options{Clock: clock, Prefix: "run"})
		require.NoError(t, w.Write(Entry{Generation: gen}))
		require.NoError(t, w.Close())
	}

	entries, err := ReadFile(filepath.Join(dir, "run-2026-03-04-09.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, entries, 2, "both zstd frames must decode")
	assert.Equal(t, uint64(2), entries[1].Generation)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd at all"), 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestWriter_LogsPublishedSnapshots(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(start)
	w := NewWriter(dir, Options{Clock: clock})

	g, err := scouting.New(scouting.Config{
		MapMax:    scouting.Position{X: 50, Y: 50},
		Listeners: []scouting.UpdateListener{w},
	})
	require.NoError(t, err)
	require.NoError(t, g.Start(context.Background()))

	g.SubmitReport(scouting.NewScoutReportWithScores(30, 3, scouting.Position{X: 20, Y: 20}, 0, scouting.ReportInfo{}))
	snap, err := g.Rebuild(context.Background())
	require.NoError(t, err)
	g.Stop()
	require.NoError(t, w.Close())

	entries, err := ReadFile(w.PathForHour("2026-03-04-09"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	last := entries[len(entries)-1]
	assert.Equal(t, snap.Generation, last.Generation)
	assert.Equal(t, 1, last.TotalReports)
	require.NotNil(t, last.Best)
	assert.Equal(t, scouting.CellIndex{X: 2, Y: 2}, last.Best.Index)
	assert.Len(t, last.Cells, 1)
	assert.Zero(t, w.Failed())
}

func TestWriter_ReadHour(t *testing.T) {
	dir := t.TempDir()
	clock := timeutil.NewMockClock(start)
	w := NewWriter(dir, Options{Clock: clock, Prefix: "red team/alpha"})
	defer w.Close()

	require.NoError(t, w.Write(Entry{Generation: 1}))
	got, err := w.ReadHour("2026-03-04-09")
	require.NoError(t, err, "the hour being written is readable")
	require.Len(t, got, 1)

	require.NoError(t, w.Write(Entry{Generation: 2}))
	got, err = w.ReadHour("2026-03-04-09")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(dir, "red_team_alpha-2026-03-04-09.jsonl.zst"), w.PathForHour("2026-03-04-09"))

	_, err = w.ReadHour("../../../etc/passwd")
	assert.Error(t, err)
	_, err = w.ReadHour("2020-01-01-00")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
