package interloc

// Monitor receives every action emitted by a MonitoredAllocator,
// synchronously on the calling goroutine. Implementations must not
// call back into the wrapped allocator and must not panic; see the
// package documentation for the full contract.
type Monitor interface {
	Observe(layout Layout, act Action)
}

// MonitorFunc adapts a plain function to the Monitor interface.
type MonitorFunc func(layout Layout, act Action)

func (f MonitorFunc) Observe(layout Layout, act Action) {
	f(layout, act)
}

// MultiMonitor forwards every action to a fixed list of monitors in
// order.
type MultiMonitor struct {
	monitors []Monitor
}

var _ Monitor = (*MultiMonitor)(nil)

// NewMultiMonitor composes monitors into one. Each action is delivered
// to every monitor in argument order.
func NewMultiMonitor(monitors ...Monitor) *MultiMonitor {
	return &MultiMonitor{monitors: monitors}
}

func (m *MultiMonitor) Observe(layout Layout, act Action) {
	for _, monitor := range m.monitors {
		monitor.Observe(layout, act)
	}
}
