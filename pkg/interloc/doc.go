// Package interloc provides allocator middleware: a forwarding wrapper
// that notifies a pluggable Monitor immediately before and immediately
// after every call to an underlying Allocator, then delegates the real
// work unchanged.
//
// Typical usage composes one or more statistics monitors and installs
// the wrapper in place of the raw allocator:
//
//	var global stats.StatsMonitor
//	var local stats.ThreadMonitor
//
//	var alloc = interloc.NewMonitoredAllocator(
//		memory.DefaultAllocator,
//		interloc.NewMultiMonitor(&global, &local),
//	)
//
// All of the pieces above are usable as package-level vars: the monitor
// zero values are ready to use and NewMonitoredAllocator performs no
// allocation, so the wrapper can be wired up before any other
// initialization runs.
//
// Monitor implementations run inside every allocation call. They must
// not call back into the wrapped allocator (doing so recurses without
// bound or deadlocks on the monitor's own locks) and must not panic; a
// fault inside a monitor corrupts the allocation path itself and takes
// the process down.
package interloc
