package interloc

import "sync/atomic"

// Allocator is the contract shared by the real memory backends and the
// monitoring wrapper. A nil return from Allocate, AllocateZeroed or
// Reallocate signals allocation failure.
type Allocator interface {
	// Allocate returns a block satisfying layout, or nil.
	Allocate(layout Layout) []byte
	// AllocateZeroed is Allocate with the returned block zero-filled.
	AllocateZeroed(layout Layout) []byte
	// Deallocate returns buf, previously obtained with layout, to the
	// allocator.
	Deallocate(buf []byte, layout Layout)
	// Reallocate resizes buf, previously obtained with layout, to
	// newSize bytes, possibly moving it. Returns the resized block or
	// nil, in which case buf is still valid.
	Reallocate(buf []byte, layout Layout, newSize int) []byte
}

// fenceWord exists only to be the target of fence; its value is never
// read for its own sake.
var fenceWord atomic.Uint64

// fence is a full sequentially consistent barrier. Go exposes no
// standalone fence, but a SeqCst read-modify-write on a shared word
// orders every memory operation before it against every one after it,
// as observed from any goroutine.
func fence() {
	fenceWord.Add(1)
}

// MonitoredAllocator forwards every call to Inner, telling Monitor
// about the call right before and right after the real work. Fences on
// both sides of the inner call keep the real allocator's memory
// effects from being reordered, from any goroutine's perspective,
// before the before-action or after the after-action.
//
// Both fields must be non-nil. The struct is plain data so it can be
// built in a package-level var via a composite literal.
type MonitoredAllocator struct {
	// Inner performs the real memory management.
	Inner Allocator
	// Monitor observes the calls to Inner.
	Monitor Monitor
}

var _ Allocator = (*MonitoredAllocator)(nil)

// NewMonitoredAllocator wraps inner so that monitor observes every
// call to it.
func NewMonitoredAllocator(inner Allocator, monitor Monitor) *MonitoredAllocator {
	return &MonitoredAllocator{Inner: inner, Monitor: monitor}
}

func (m *MonitoredAllocator) Allocate(layout Layout) []byte {
	m.Monitor.Observe(layout, Action{Kind: ActionAlloc})
	fence()
	buf := m.Inner.Allocate(layout)
	fence()
	m.Monitor.Observe(layout, Action{Kind: ActionAllocResult, Buf: buf})
	return buf
}

func (m *MonitoredAllocator) AllocateZeroed(layout Layout) []byte {
	m.Monitor.Observe(layout, Action{Kind: ActionAllocZeroed})
	fence()
	buf := m.Inner.AllocateZeroed(layout)
	fence()
	m.Monitor.Observe(layout, Action{Kind: ActionAllocZeroedResult, Buf: buf})
	return buf
}

func (m *MonitoredAllocator) Deallocate(buf []byte, layout Layout) {
	m.Monitor.Observe(layout, Action{Kind: ActionDealloc, Buf: buf})
	fence()
	m.Inner.Deallocate(buf, layout)
	fence()
	m.Monitor.Observe(layout, Action{Kind: ActionDeallocResult})
}

func (m *MonitoredAllocator) Reallocate(buf []byte, layout Layout, newSize int) []byte {
	m.Monitor.Observe(layout, Action{Kind: ActionRealloc, Buf: buf, NewSize: newSize})
	fence()
	newBuf := m.Inner.Reallocate(buf, layout, newSize)
	fence()
	m.Monitor.Observe(layout, Action{Kind: ActionReallocResult, Buf: newBuf, NewSize: newSize})
	return newBuf
}
