package stats

import (
	"sync"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// StatsMonitor keeps one AllocStats shared by every goroutine that
// allocates through the wrapper it is attached to. The zero value is
// ready to use, so a StatsMonitor can live in a package-level var.
//
// Observe applies each action inside a single exclusive critical
// section, so concurrent observers never lose updates: after T
// goroutines observe M allocations each, Allocs is exactly T*M.
type StatsMonitor struct {
	mu    sync.RWMutex
	stats AllocStats
}

var _ interloc.Monitor = (*StatsMonitor)(nil)

// NewStatsMonitor returns a monitor with all counters at zero.
// Equivalent to new(StatsMonitor).
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{}
}

// Stats returns a copy of the current snapshot. Concurrent readers do
// not block each other.
func (m *StatsMonitor) Stats() AllocStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// SetStats replaces the whole snapshot, excluding all concurrent
// readers and writers for the duration.
func (m *StatsMonitor) SetStats(stats AllocStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
}

// Observe folds one action into the shared snapshot.
func (m *StatsMonitor) Observe(layout interloc.Layout, act interloc.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = m.stats.Apply(layout, act)
}
