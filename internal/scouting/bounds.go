package scouting

import "context"

// HistoricalBounds are the extreme average risk and reward ever observed.
// A nil *HistoricalBounds means no history exists yet.
type HistoricalBounds struct {
	LowestRisk    int `json:"lowest_risk"`
	HighestRisk   int `json:"highest_risk"`
	LowestReward  int `json:"lowest_reward"`
	HighestReward int `json:"highest_reward"`
}

func (b *HistoricalBounds) include(risk, reward int) {
	if risk < b.LowestRisk {
		b.LowestRisk = risk
	}
	if risk > b.HighestRisk {
		b.HighestRisk = risk
	}
	if reward < b.LowestReward {
		b.LowestReward = reward
	}
	if reward > b.HighestReward {
		b.HighestReward = reward
	}
}

// Merge returns the union of b and o. Either side may be nil.
func (b *HistoricalBounds) Merge(o *HistoricalBounds) *HistoricalBounds {
	switch {
	case b == nil && o == nil:
		return nil
	case b == nil:
		c := *o
		return &c
	case o == nil:
		c := *b
		return &c
	}
	c := *b
	c.include(o.LowestRisk, o.LowestReward)
	c.include(o.HighestRisk, o.HighestReward)
	return &c
}

// BoundsProvider is the historical store the grid flushes into and reads
// normalisation bounds back from.
//
// Persist must not block the caller for longer than an enqueue.
// QueryBestBounds returns (nil, nil) when the store has no data.
type BoundsProvider interface {
	Persist(snap AggregateSnapshot)
	QueryBestBounds(ctx context.Context) (*HistoricalBounds, error)
}

// UpdateListener is notified from the worker goroutine after every publish.
// Implementations must return quickly.
type UpdateListener interface {
	OnGridUpdated(snap *Snapshot)
}

// UpdateListenerFunc adapts a function to UpdateListener.
type UpdateListenerFunc func(snap *Snapshot)

// OnGridUpdated calls f(snap).
func (f UpdateListenerFunc) OnGridUpdated(snap *Snapshot) { f(snap) }
