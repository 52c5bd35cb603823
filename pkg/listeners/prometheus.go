// Package listeners provides ready-made cleanups.Listener implementations
// for observability backends.
package listeners

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/cleanups"
)

// Metrics is a cleanups.Listener exporting Prometheus metrics about cleanup
// execution: counters for executed, failed and removed entries, and a
// histogram of execution duration.
type Metrics struct {
	executed prometheus.Counter
	failed   prometheus.Counter
	removed  prometheus.Counter
	duration prometheus.Histogram

	mu      sync.Mutex
	started map[uint64]time.Time
}

// NewMetrics creates the collectors and registers them with reg. Pass nil to
// skip registration (e.g. to register them yourself on a custom registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanups_executed_total",
			Help: "Total number of cleanups that completed successfully.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanups_failed_total",
			Help: "Total number of cleanups that returned an error or panicked.",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanups_removed_total",
			Help: "Total number of cleanups unregistered before execution.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cleanups_duration_seconds",
			Help: "Duration of cleanup executions.",
		}),
		started: make(map[uint64]time.Time),
	}
	if reg != nil {
		reg.MustRegister(m.executed, m.failed, m.removed, m.duration)
	}
	return m
}

// Starting implements cleanups.Listener. It records the start time and never
// skips the entry.
func (m *Metrics) Starting(_ *cleanups.Cleanups, cl *cleanups.Cleanup) bool {
	m.mu.Lock()
	m.started[cl.ID()] = time.Now()
	m.mu.Unlock()
	return false
}

// Completed implements cleanups.Listener.
func (m *Metrics) Completed(_ *cleanups.Cleanups, cl *cleanups.Cleanup) {
	m.observe(cl)
	m.executed.Inc()
}

// Failed implements cleanups.Listener.
func (m *Metrics) Failed(_ *cleanups.Cleanups, cl *cleanups.Cleanup, _ error) {
	m.observe(cl)
	m.failed.Inc()
}

// Removed implements cleanups.Listener.
func (m *Metrics) Removed(_ *cleanups.Cleanups, _ *cleanups.Cleanup) {
	m.removed.Inc()
}

func (m *Metrics) observe(cl *cleanups.Cleanup) {
	m.mu.Lock()
	start, ok := m.started[cl.ID()]
	delete(m.started, cl.ID())
	m.mu.Unlock()
	if ok {
		m.duration.Observe(time.Since(start).Seconds())
	}
}
