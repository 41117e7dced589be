package stats

import (
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// ThreadMonitor keeps a private AllocStats per goroutine. Each slot is
// created zeroed on the goroutine's first touch and is only ever read
// or written by its owning goroutine, so no per-slot locking is
// needed; the slot table itself is a sync.Map keyed by goroutine ID.
// The zero value is ready to use.
//
// Go provides no hook on goroutine exit, so slots are not reclaimed
// automatically; a goroutine that is done measuring should call Detach
// before it returns.
type ThreadMonitor struct {
	slots sync.Map // goroutine ID -> *AllocStats
}

var _ interloc.Monitor = (*ThreadMonitor)(nil)

// NewThreadMonitor returns a monitor with no slots yet.
// Equivalent to new(ThreadMonitor).
func NewThreadMonitor() *ThreadMonitor {
	return &ThreadMonitor{}
}

// Stats returns a copy of the calling goroutine's snapshot.
func (m *ThreadMonitor) Stats() AllocStats {
	return *m.slot()
}

// SetStats replaces the calling goroutine's snapshot.
func (m *ThreadMonitor) SetStats(stats AllocStats) {
	*m.slot() = stats
}

// Observe folds one action into the calling goroutine's snapshot. No
// atomicity concerns apply: the read, the update and the write all
// stay on one goroutine's private slot.
func (m *ThreadMonitor) Observe(layout interloc.Layout, act interloc.Action) {
	slot := m.slot()
	*slot = slot.Apply(layout, act)
}

// Detach drops the calling goroutine's slot. A later touch by the
// same goroutine starts over from zero.
func (m *ThreadMonitor) Detach() {
	m.slots.Delete(goroutineID())
}

func (m *ThreadMonitor) slot() *AllocStats {
	gid := goroutineID()
	if v, ok := m.slots.Load(gid); ok {
		return v.(*AllocStats)
	}
	v, _ := m.slots.LoadOrStore(gid, &AllocStats{})
	return v.(*AllocStats)
}

func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}
