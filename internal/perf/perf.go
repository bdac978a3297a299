// Package perf accumulates phase timings and row/byte counters across a
// single engine run, embedded at the root of the changeset and the HTML/JSON
// reports. No example repo in the pack pulls a metrics client into its own
// non-test code for timing this small; they all reach for time.Now/time.Since
// directly, so this package does too.
package perf

import (
	"sort"
	"sync"
	"time"
)

// Phase is one named, timed stage of a run (e.g. "fetch:orders",
// "diff:orders", "emit_sql").
type Phase struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
}

// Report is the accumulated performance summary for one engine run.
type Report struct {
	mu sync.Mutex

	Phases    []Phase       `json:"phases"`
	RowsRead  int64         `json:"rows_read"`
	BytesRead int64         `json:"bytes_read"`
	TotalTime time.Duration `json:"total_ms"`
	started   time.Time
}

// NewReport returns a Report with its wall-clock start time recorded.
func NewReport() *Report {
	return &Report{started: time.Now()}
}

// Track times fn as a named phase and records its duration. Safe for
// concurrent use: multiple table workers may call Track simultaneously.
func (r *Report) Track(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.record(name, time.Since(start))
	return err
}

func (r *Report) record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phases = append(r.Phases, Phase{Name: name, Duration: d})
}

// AddRows accumulates a row count read from a source or target fetch.
func (r *Report) AddRows(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RowsRead += n
}

// AddBytes accumulates an approximate byte count read from a fetch.
func (r *Report) AddBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BytesRead += n
}

// Finish stamps TotalTime as elapsed since NewReport and returns a stable
// snapshot safe to serialize (phases sorted by name for deterministic
// output, ties broken by first-recorded order).
func (r *Report) Finish() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TotalTime = time.Since(r.started)

	sorted := make([]Phase, len(r.Phases))
	copy(sorted, r.Phases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return Report{
		Phases:    sorted,
		RowsRead:  r.RowsRead,
		BytesRead: r.BytesRead,
		TotalTime: r.TotalTime,
	}
}
