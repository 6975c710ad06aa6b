// Package sweepmonitor keeps a bounded history of sweep runs and running
// totals for the monitoring endpoint.
package sweepmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped" // another instance held the sweep lease
)

type Run struct {
	Timestamp  time.Time `json:"timestamp"`
	Owner      string    `json:"owner"`
	Status     string    `json:"status"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

type Stats struct {
	TotalRuns      int64      `json:"total_runs"`
	TotalSkipped   int64      `json:"total_skipped"`
	TotalErrors    int64      `json:"total_errors"`
	TotalCreated   int64      `json:"total_created"`
	TotalCompleted int64      `json:"total_completed"`
	TotalFailed    int64      `json:"total_failed"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	RecentRuns     []Run      `json:"recent_runs"`
}

// Monitor is a ring buffer of runs. It is safe for concurrent use.
type Monitor struct {
	mu    sync.Mutex
	runs  []Run
	idx   int
	count int
	last  time.Time

	totalRuns      int64
	totalSkipped   int64
	totalErrors    int64
	totalCreated   int64
	totalCompleted int64
	totalFailed    int64
}

func New(size int) *Monitor {
	if size <= 0 {
		size = 100
	}
	return &Monitor{runs: make([]Run, size)}
}

func (m *Monitor) Record(r Run) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	switch r.Status {
	case StatusSkipped:
		atomic.AddInt64(&m.totalSkipped, 1)
	case StatusError:
		atomic.AddInt64(&m.totalErrors, 1)
		atomic.AddInt64(&m.totalRuns, 1)
	default:
		atomic.AddInt64(&m.totalRuns, 1)
	}
	atomic.AddInt64(&m.totalCreated, int64(r.Created))
	atomic.AddInt64(&m.totalCompleted, int64(r.Completed))
	atomic.AddInt64(&m.totalFailed, int64(r.Failed))

	m.mu.Lock()
	m.runs[m.idx] = r
	m.idx = (m.idx + 1) % len(m.runs)
	if m.count < len(m.runs) {
		m.count++
	}
	if r.Status != StatusSkipped {
		m.last = r.Timestamp
	}
	m.mu.Unlock()
}

// Stats returns totals and the buffered runs, newest last.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := make([]Run, 0, m.count)
	start := (m.idx - m.count + len(m.runs)) % len(m.runs)
	for i := 0; i < m.count; i++ {
		recent = append(recent, m.runs[(start+i)%len(m.runs)])
	}

	stats := Stats{
		TotalRuns:      atomic.LoadInt64(&m.totalRuns),
		TotalSkipped:   atomic.LoadInt64(&m.totalSkipped),
		TotalErrors:    atomic.LoadInt64(&m.totalErrors),
		TotalCreated:   atomic.LoadInt64(&m.totalCreated),
		TotalCompleted: atomic.LoadInt64(&m.totalCompleted),
		TotalFailed:    atomic.LoadInt64(&m.totalFailed),
		RecentRuns:     recent,
	}
	if !m.last.IsZero() {
		last := m.last
		stats.LastRunAt = &last
	}
	return stats
}
