package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics is the process-wide counter set, initialized once at startup and
// read through Snapshot.
type Metrics struct {
	startedAt time.Time

	updates       atomic.Int64
	submissions   atomic.Int64
	decisions     atomic.Int64
	publishErrors atomic.Int64
}

// Snapshot is a read-only view of the counters for status commands.
type Snapshot struct {
	Uptime        time.Duration
	Updates       int64
	Submissions   int64
	Decisions     int64
	PublishErrors int64
}

// New creates the metrics struct, stamping the process start time.
func New() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) IncUpdates()       { m.updates.Add(1) }
func (m *Metrics) IncSubmissions()   { m.submissions.Add(1) }
func (m *Metrics) IncDecisions()     { m.decisions.Add(1) }
func (m *Metrics) IncPublishErrors() { m.publishErrors.Add(1) }

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Uptime:        time.Since(m.startedAt).Round(time.Second),
		Updates:       m.updates.Load(),
		Submissions:   m.submissions.Load(),
		Decisions:     m.decisions.Load(),
		PublishErrors: m.publishErrors.Load(),
	}
}
