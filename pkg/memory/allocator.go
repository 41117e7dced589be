// Package memory provides reference Allocator backends for the
// monitoring wrapper: a Go-runtime-backed allocator, a slab pool with
// size classes, and a chunked bump arena.
package memory

import (
	"unsafe"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// GoAllocator delegates to the Go runtime. Deallocate is a no-op; the
// garbage collector reclaims the block once it is unreachable.
type GoAllocator struct{}

var _ interloc.Allocator = (*GoAllocator)(nil)

// DefaultAllocator is the backend used when nothing else is wired up.
var DefaultAllocator interloc.Allocator = NewGoAllocator()

func NewGoAllocator() *GoAllocator { return &GoAllocator{} }

// Allocate over-allocates by the requested alignment and reslices so
// the first byte lands on an aligned address.
func (a *GoAllocator) Allocate(layout interloc.Layout) []byte {
	buf := make([]byte, layout.Size+layout.Align)
	addr := int(blockAddr(buf))
	next := roundUpTo(addr, layout.Align)
	if addr != next {
		shift := next - addr
		return buf[shift : layout.Size+shift : layout.Size+shift]
	}
	return buf[:layout.Size:layout.Size]
}

// AllocateZeroed is Allocate: the runtime hands out zeroed memory.
func (a *GoAllocator) AllocateZeroed(layout interloc.Layout) []byte {
	return a.Allocate(layout)
}

func (a *GoAllocator) Deallocate(buf []byte, layout interloc.Layout) {}

func (a *GoAllocator) Reallocate(buf []byte, layout interloc.Layout, newSize int) []byte {
	if newSize == len(buf) {
		return buf
	}
	newBuf := a.Allocate(interloc.Layout{Size: newSize, Align: layout.Align})
	copy(newBuf, buf)
	return newBuf
}

func blockAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

func roundUpTo(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}
