package stats

import (
	"sync"
	"unsafe"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// LiveMonitor tracks which blocks are currently live, keyed by block
// address. Unlike the counter monitors it consumes the after-phase
// actions, because only those carry the address the real call actually
// produced — and, for reallocation, whether it succeeded at all: a nil
// result leaves the old block valid, so it must stay tracked.
type LiveMonitor struct {
	mu     sync.Mutex
	blocks map[uintptr]int // block address -> size at allocation

	// moving remembers, per goroutine, the block a reallocation in
	// flight would replace. The wrapper delivers the matching result
	// action on the same goroutine before that goroutine can start
	// another call.
	moving map[int64]uintptr
}

var _ interloc.Monitor = (*LiveMonitor)(nil)

func NewLiveMonitor() *LiveMonitor {
	return &LiveMonitor{
		blocks: make(map[uintptr]int),
		moving: make(map[int64]uintptr),
	}
}

func (m *LiveMonitor) Observe(layout interloc.Layout, act interloc.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch act.Kind {
	case interloc.ActionAllocResult, interloc.ActionAllocZeroedResult:
		if len(act.Buf) > 0 {
			m.blocks[blockAddr(act.Buf)] = layout.Size
		}
	case interloc.ActionDealloc:
		if len(act.Buf) > 0 {
			delete(m.blocks, blockAddr(act.Buf))
		}
	case interloc.ActionRealloc:
		if len(act.Buf) > 0 {
			m.moving[goroutineID()] = blockAddr(act.Buf)
		}
	case interloc.ActionReallocResult:
		gid := goroutineID()
		old, wasMoving := m.moving[gid]
		delete(m.moving, gid)

		// A failed reallocation keeps the old block alive.
		if len(act.Buf) == 0 {
			return
		}
		if wasMoving {
			delete(m.blocks, old)
		}
		m.blocks[blockAddr(act.Buf)] = act.NewSize
	}
}

// LiveBlocks returns the number of blocks currently live.
func (m *LiveMonitor) LiveBlocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

// LiveBytes returns the total size of the blocks currently live.
func (m *LiveMonitor) LiveBytes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint64
	for _, size := range m.blocks {
		total += uint64(size)
	}
	return total
}

func blockAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}
