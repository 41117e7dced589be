package interloc

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrInvalidSize      = errors.New("layout size must be non-negative")
	ErrInvalidAlignment = errors.New("layout alignment must be a power of two")
)

// WordAlign is the natural alignment of the platform word, used by
// LayoutOf when the caller has no stricter requirement.
const WordAlign = int(unsafe.Sizeof(uintptr(0)))

// Layout describes the size and alignment of a memory block. It is an
// immutable value carried by every allocation event.
type Layout struct {
	Size  int
	Align int
}

// NewLayout validates size and alignment and returns the layout.
// Alignment must be a power of two greater than zero.
func NewLayout(size, align int) (Layout, error) {
	if size < 0 {
		return Layout{}, ErrInvalidSize
	}
	if align <= 0 || align&(align-1) != 0 {
		return Layout{}, ErrInvalidAlignment
	}
	return Layout{Size: size, Align: align}, nil
}

// MustLayout is NewLayout that panics on invalid input. Intended for
// package-level vars and tests where the arguments are constants.
func MustLayout(size, align int) Layout {
	layout, err := NewLayout(size, align)
	if err != nil {
		panic(fmt.Sprintf("interloc: invalid layout (size=%d align=%d): %v", size, align, err))
	}
	return layout
}

// LayoutOf returns a layout for size bytes with word alignment.
func LayoutOf(size int) Layout {
	return Layout{Size: size, Align: WordAlign}
}

func (l Layout) String() string {
	return fmt.Sprintf("Layout{size=%d align=%d}", l.Size, l.Align)
}
