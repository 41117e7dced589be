package memory

import (
	"sync"
	"unsafe"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// DefaultChunkSize is the chunk size used when NewArena is given a
// non-positive value (64 KiB).
const DefaultChunkSize = 1 << 16

type chunk struct {
	buf    []byte
	offset uintptr
}

// Arena is a chunked bump allocator. Individual blocks are never
// returned; Deallocate is a no-op and the whole arena is recycled at
// once with Reset or dropped with Release. Safe for concurrent use.
type Arena struct {
	mu        sync.Mutex
	chunks    []chunk
	chunkSize int
	current   int
}

var _ interloc.Allocator = (*Arena)(nil)

func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

func (a *Arena) Allocate(layout interloc.Layout) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()
	return a.bump(layout)
}

// AllocateZeroed clears the block before returning it: chunks come
// back dirty after Reset.
func (a *Arena) AllocateZeroed(layout interloc.Layout) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()
	buf := a.bump(layout)
	clear(buf)
	return buf
}

func (a *Arena) Deallocate(buf []byte, layout interloc.Layout) {}

// Reallocate always moves: the old block stays where it is and a fresh
// block holding a copy of the data is bumped from the arena.
func (a *Arena) Reallocate(buf []byte, layout interloc.Layout, newSize int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()

	newBuf := a.bump(interloc.Layout{Size: newSize, Align: layout.Align})
	copy(newBuf, buf)
	return newBuf
}

func (a *Arena) bump(layout interloc.Layout) []byte {
	if layout.Size == 0 {
		return []byte{}
	}

	for {
		c := &a.chunks[a.current]
		off := alignOffset(c, layout.Align)
		if off+uintptr(layout.Size) <= uintptr(len(c.buf)) {
			start := int(off)
			c.offset = off + uintptr(layout.Size)
			return unsafe.Slice((*byte)(unsafe.Pointer(&c.buf[start])), layout.Size)
		}

		// After a Reset the chunks kept from earlier cycles sit
		// beyond current; advance through them before growing.
		if a.current+1 < len(a.chunks) {
			a.current++
			continue
		}
		// The fresh chunk is sized to fit even after alignment.
		a.grow(layout.Size + layout.Align)
	}
}

// Reset zeroes the allocation offsets but keeps the chunks for reuse.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()

	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.current = 0
}

// Release drops all chunks and makes the arena unusable. Any later
// operation panics.
func (a *Arena) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = nil
	a.current = 0
}

// SizeInUse returns the bytes currently bumped, including internal
// fragmentation due to alignment.
func (a *Arena) SizeInUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := 0
	for _, c := range a.chunks {
		sum += int(c.offset)
	}
	return sum
}

// Capacity returns the total size of all chunks.
func (a *Arena) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := 0
	for _, c := range a.chunks {
		sum += len(c.buf)
	}
	return sum
}

// NumChunks returns the number of chunks backing the arena.
func (a *Arena) NumChunks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks)
}

func (a *Arena) grow(min int) {
	size := a.chunkSize
	if min > size {
		size = min
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, size)})
	a.current = len(a.chunks) - 1
}

func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		panic("memory: arena used after Release")
	}
}

// alignOffset rounds the chunk's offset up so the next block starts on
// an align boundary in actual memory, not just within the chunk.
func alignOffset(c *chunk, align int) uintptr {
	base := uintptr(unsafe.Pointer(&c.buf[0]))
	mask := uintptr(align) - 1
	next := (base + c.offset + mask) &^ mask
	return next - base
}
