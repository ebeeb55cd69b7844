package metrics

import (
	"sync"
	"time"
)

type upstreamStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

// Recorder captures lightweight, in-memory metrics about feed ingestion,
// upstream calls and market activity. It is intentionally simple so it can
// be swapped for a real backend later; when OTel instruments are attached it
// mirrors everything to them.
type Recorder struct {
	mu        sync.Mutex
	upstreams map[string]*upstreamStats
	snapshots int
	events    int
	opened    int
	settled   int
	refunded  int
	otel      *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		upstreams: make(map[string]*upstreamStats),
		otel:      otel,
	}
}

// RecordUpstreamAttempt increments counters for one upstream call and stores
// the last observed latency.
func (r *Recorder) RecordUpstreamAttempt(upstream string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStats(upstream)
	r.mu.Lock()
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordUpstreamAttempt(upstream, duration, err)
	}
}

// RecordSnapshot counts one ingested feed snapshot.
func (r *Recorder) RecordSnapshot() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.snapshots++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordSnapshot()
	}
}

// RecordEventDispatched counts one dispatched event and its handler fan-out.
func (r *Recorder) RecordEventDispatched(name string, handlers int) {
	if r == nil || handlers == 0 {
		return
	}
	r.mu.Lock()
	r.events++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordEventDispatched(name)
	}
}

// RecordMarket tracks market lifecycle outcomes: "open", "settled", "refunded".
func (r *Recorder) RecordMarket(outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	switch outcome {
	case "open":
		r.opened++
	case "settled":
		r.settled++
	case "refunded":
		r.refunded++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordMarket(outcome)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// UpstreamCalls returns the total attempts recorded for an upstream.
func (r *Recorder) UpstreamCalls(upstream string) int {
	return r.Snapshot(upstream).Calls
}

// UpstreamErrors returns the total failed attempts recorded for an upstream.
func (r *Recorder) UpstreamErrors(upstream string) int {
	return r.Snapshot(upstream).Errors
}

// Snapshots returns the count of ingested snapshots.
func (r *Recorder) Snapshots() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots
}

// EventsDispatched returns the count of dispatched events with handlers.
func (r *Recorder) EventsDispatched() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// Markets returns the opened/settled/refunded counters.
func (r *Recorder) Markets() (opened, settled, refunded int) {
	if r == nil {
		return 0, 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, r.settled, r.refunded
}

// Snapshot is a copy of the current stats for one upstream.
type Snapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(upstream string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.upstreams[upstream]; ok && stats != nil {
		return Snapshot{
			Calls:           stats.calls,
			Errors:          stats.errors,
			LastCallLatency: stats.lastCallLatency,
		}
	}
	return Snapshot{}
}

func (r *Recorder) ensureStats(upstream string) *upstreamStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.upstreams[upstream]
	if !ok {
		stats = &upstreamStats{}
		r.upstreams[upstream] = stats
	}
	return stats
}
