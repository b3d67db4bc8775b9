package engine

import "sync/atomic"

type counters struct {
	fetches  atomic.Int64
	failures atomic.Int64
	ignored  atomic.Int64
	joined   atomic.Int64
}

// Stats are cumulative counters since the engine was created.
type Stats struct {
	Fetches          int64 `json:"fetches"`
	Failures         int64 `json:"failures"`
	IgnoredRefreshes int64 `json:"ignoredRefreshes"`
	JoinedWaits      int64 `json:"joinedWaits"`
	InFlight         bool  `json:"inFlight"`
}

func (e *Engine) Stats() Stats {
	return Stats{
		Fetches:          e.counters.fetches.Load(),
		Failures:         e.counters.failures.Load(),
		IgnoredRefreshes: e.counters.ignored.Load(),
		JoinedWaits:      e.counters.joined.Load(),
		InFlight:         e.inFlight.Load(),
	}
}
