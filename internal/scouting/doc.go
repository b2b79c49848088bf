// Package scouting owns the scouting intelligence grid.
//
// Responsibilities: assigning scout reports to fixed-width grid cells,
// decaying stale reports, aggregating each cell into risk/reward summaries,
// and publishing immutable snapshots of the grid from a single background
// worker goroutine.
// Key types: ScoutReport, AggregateCellData, Snapshot, Grid.
//
// Concurrency model: the simulation goroutine submits reports and ticks;
// exactly one worker goroutine mutates the live matrix. Readers only ever
// see a fully built Snapshot swapped in under a short publish lock.
//
// Dependency rule: no SQL, HTTP or RPC code in this package. Storage of
// historical bounds is reached through the BoundsProvider interface.
package scouting
