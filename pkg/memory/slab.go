package memory

import (
	"sync"
	"time"

	"github.com/A1Liu/interloc/pkg/interloc"
)

const (
	MinSlabSize = 64
	MaxSlabSize = 1 << 20

	// slabAlign is the alignment of every slot buffer; any layout with
	// Align <= slabAlign is satisfied without extra padding.
	slabAlign = 64
)

// SlabPool serves blocks from power-of-two size classes and recycles
// freed slots through per-class free lists. Every slot is its own
// buffer, so handed-out blocks never move. Requests larger than
// MaxSlabSize or more strictly aligned than 64 bytes fail with nil.
type SlabPool struct {
	mu      sync.RWMutex
	classes []int
	free    [][][]byte          // cached slot buffers per class
	usage   map[uintptr]slabSlot // live block address -> its slot
	stats   SlabStats
}

type slabSlot struct {
	class int
	buf   []byte // full class-size buffer backing the handed-out block
}

// SlabStats is a snapshot of the pool's bookkeeping counters.
type SlabStats struct {
	TotalMemory int64
	UsedMemory  int64
	FreeSlots   int64
	SlabClasses int
	AllocCount  int64
	FreeCount   int64
}

var _ interloc.Allocator = (*SlabPool)(nil)

func NewSlabPool() *SlabPool {
	pool := &SlabPool{
		usage: make(map[uintptr]slabSlot),
	}
	size := MinSlabSize
	for size <= MaxSlabSize {
		pool.classes = append(pool.classes, size)
		pool.free = append(pool.free, nil)
		size *= 2
	}
	pool.stats.SlabClasses = len(pool.classes)
	return pool
}

func (sp *SlabPool) Allocate(layout interloc.Layout) []byte {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.allocate(layout, false)
}

func (sp *SlabPool) AllocateZeroed(layout interloc.Layout) []byte {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.allocate(layout, true)
}

func (sp *SlabPool) Deallocate(buf []byte, layout interloc.Layout) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.deallocate(buf)
}

func (sp *SlabPool) Reallocate(buf []byte, layout interloc.Layout, newSize int) []byte {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	// Zero-size blocks own no slot, so resizing one is a fresh
	// allocation and shrinking to zero is a free.
	if len(buf) == 0 {
		return sp.allocate(interloc.Layout{Size: newSize, Align: layout.Align}, false)
	}
	if newSize == 0 {
		sp.deallocate(buf)
		return []byte{}
	}

	slot, exists := sp.usage[blockAddr(buf)]
	if !exists {
		return nil
	}

	if sp.findSlabClass(newSize) == slot.class {
		// Same class: the backing slot already has room. The usage
		// entry is keyed by the block address, which the reslice
		// keeps, so Deallocate on the returned slice still resolves
		// this slot.
		return slot.buf[:newSize:newSize]
	}

	newBuf := sp.allocate(interloc.Layout{Size: newSize, Align: layout.Align}, false)
	if newBuf == nil {
		return nil
	}
	copy(newBuf, buf)
	sp.deallocate(buf)
	return newBuf
}

func (sp *SlabPool) allocate(layout interloc.Layout, zeroed bool) []byte {
	if layout.Align > slabAlign {
		return nil
	}
	// Zero-size requests get a canonical empty block with no slot
	// behind it; there is nothing to recycle, so no bookkeeping.
	if layout.Size == 0 {
		return []byte{}
	}
	class := sp.findSlabClass(layout.Size)
	if class == -1 {
		return nil
	}
	classSize := sp.classes[class]

	var memory []byte
	if n := len(sp.free[class]); n > 0 {
		memory = sp.free[class][n-1]
		sp.free[class] = sp.free[class][:n-1]
		sp.stats.FreeSlots--
		if zeroed {
			// Recycled slots come back dirty.
			clear(memory[:layout.Size])
		}
	} else {
		memory = alignedSlot(classSize)
		sp.stats.TotalMemory += int64(classSize)
	}

	sp.stats.AllocCount++
	sp.stats.UsedMemory += int64(classSize)
	sp.usage[blockAddr(memory)] = slabSlot{class: class, buf: memory}

	return memory[:layout.Size:layout.Size]
}

func (sp *SlabPool) deallocate(buf []byte) {
	if len(buf) == 0 {
		return
	}
	ptr := blockAddr(buf)
	slot, exists := sp.usage[ptr]
	if !exists {
		return
	}

	sp.free[slot.class] = append(sp.free[slot.class], slot.buf)
	sp.stats.FreeCount++
	sp.stats.FreeSlots++
	sp.stats.UsedMemory -= int64(sp.classes[slot.class])
	delete(sp.usage, ptr)
}

// Defragment releases every cached free slot back to the runtime.
func (sp *SlabPool) Defragment() {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	for class := range sp.classes {
		sp.trimClass(class)
	}
}

// StartDefragmentation periodically releases cached free slots from
// classes where more than threshold of the slots sit unused.
func (sp *SlabPool) StartDefragmentation(interval time.Duration, threshold float64) {
	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			sp.defragment(threshold)
		}
	}()
}

func (sp *SlabPool) defragment(threshold float64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	for class := range sp.classes {
		cached := len(sp.free[class])
		if cached == 0 {
			continue
		}
		live := 0
		for _, slot := range sp.usage {
			if slot.class == class {
				live++
			}
		}
		if float64(cached)/float64(cached+live) >= threshold {
			sp.trimClass(class)
		}
	}
}

func (sp *SlabPool) trimClass(class int) {
	cached := len(sp.free[class])
	if cached == 0 {
		return
	}
	sp.free[class] = nil
	sp.stats.FreeSlots -= int64(cached)
	sp.stats.TotalMemory -= int64(cached * sp.classes[class])
}

func (sp *SlabPool) findSlabClass(size int) int {
	for i, classSize := range sp.classes {
		if size <= classSize {
			return i
		}
	}
	return -1
}

func (sp *SlabPool) GetStats() SlabStats {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.stats
}

// alignedSlot returns a size-byte buffer whose first byte sits on a
// slabAlign boundary.
func alignedSlot(size int) []byte {
	buf := make([]byte, size+slabAlign)
	addr := int(blockAddr(buf))
	next := roundUpTo(addr, slabAlign)
	shift := next - addr
	return buf[shift : size+shift : size+shift]
}
