// Package metrics collects latency and outcome statistics for load runs.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder accumulates request outcomes from concurrent workers.
type Recorder struct {
	total  atomic.Int64
	errors atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	byStatus  map[int]int64
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		byStatus: make(map[int]int64),
	}
}

// Record registers one completed request. A status of zero means the
// request failed before receiving a response.
func (r *Recorder) Record(status int, latency time.Duration) {
	r.total.Add(1)
	if status == 0 || status >= 500 {
		r.errors.Add(1)
	}

	r.mu.Lock()
	r.latencies = append(r.latencies, latency)
	r.byStatus[status]++
	r.mu.Unlock()
}

// Snapshot is a point-in-time summary of a run.
type Snapshot struct {
	// Total is the number of requests issued
	Total int64

	// Errors is the number of transport failures and 5xx responses
	Errors int64

	// ByStatus is the count of responses per HTTP status code.
	// Status zero counts requests that never got a response.
	ByStatus map[int]int64

	// Min, Max and the percentiles describe observed latency
	Min time.Duration
	Max time.Duration
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// Snapshot computes summary statistics over everything recorded so far.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	latencies := make([]time.Duration, len(r.latencies))
	copy(latencies, r.latencies)
	byStatus := make(map[int]int64, len(r.byStatus))
	for status, count := range r.byStatus {
		byStatus[status] = count
	}
	r.mu.Unlock()

	snap := Snapshot{
		Total:    r.total.Load(),
		Errors:   r.errors.Load(),
		ByStatus: byStatus,
	}
	if len(latencies) == 0 {
		return snap
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	snap.Min = latencies[0]
	snap.Max = latencies[len(latencies)-1]
	snap.P50 = percentile(latencies, 50)
	snap.P95 = percentile(latencies, 95)
	snap.P99 = percentile(latencies, 99)
	return snap
}

// percentile returns the p-th percentile of a sorted sample using the
// nearest-rank method.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
