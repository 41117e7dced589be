package memory

import (
	"sync"
	"testing"

	"github.com/A1Liu/interloc/pkg/interloc"
)

func TestArenaAllocateAlignment(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		align int
	}{
		{"byte aligned", 3, 1},
		{"word aligned", 40, 8},
		{"cache line", 100, 64},
		{"page", 512, 4096},
	}

	arena := NewArena(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := arena.Allocate(interloc.MustLayout(tt.size, tt.align))
			if len(buf) != tt.size {
				t.Fatalf("len = %d, want %d", len(buf), tt.size)
			}
			if addr := blockAddr(buf); addr%uintptr(tt.align) != 0 {
				t.Errorf("block at %#x is not %d-byte aligned", addr, tt.align)
			}
		})
	}
}

func TestArenaGrowsBeyondChunk(t *testing.T) {
	arena := NewArena(128)

	small := arena.Allocate(interloc.MustLayout(100, 8))
	large := arena.Allocate(interloc.MustLayout(1000, 8))
	if small == nil || large == nil {
		t.Fatal("allocations failed")
	}
	if arena.NumChunks() < 2 {
		t.Errorf("NumChunks() = %d, want at least 2", arena.NumChunks())
	}
	if arena.Capacity() < 1100 {
		t.Errorf("Capacity() = %d, want at least 1100", arena.Capacity())
	}
}

func TestArenaAllocateZeroedClearsRecycledMemory(t *testing.T) {
	arena := NewArena(256)
	layout := interloc.MustLayout(64, 8)

	buf := arena.Allocate(layout)
	for i := range buf {
		buf[i] = 0xFF
	}

	arena.Reset()
	zeroed := arena.AllocateZeroed(layout)
	for i, b := range zeroed {
		if b != 0 {
			t.Fatalf("zeroed[%d] = %#x, want 0", i, b)
		}
	}
}

func TestArenaReallocateCopies(t *testing.T) {
	arena := NewArena(0)
	layout := interloc.MustLayout(32, 8)

	buf := arena.Allocate(layout)
	for i := range buf {
		buf[i] = byte(i)
	}

	grown := arena.Reallocate(buf, layout, 64)
	if len(grown) != 64 {
		t.Fatalf("len = %d, want 64", len(grown))
	}
	for i := 0; i < 32; i++ {
		if grown[i] != byte(i) {
			t.Fatalf("grown[%d] = %d, want %d", i, grown[i], byte(i))
		}
	}
}

func TestArenaReset(t *testing.T) {
	arena := NewArena(1024)
	arena.Allocate(interloc.MustLayout(500, 8))

	if arena.SizeInUse() == 0 {
		t.Fatal("SizeInUse() = 0 after an allocation")
	}

	arena.Reset()
	if got := arena.SizeInUse(); got != 0 {
		t.Errorf("SizeInUse() after Reset = %d, want 0", got)
	}
	if arena.NumChunks() == 0 {
		t.Error("Reset must keep the chunks for reuse")
	}
}

func TestArenaResetReusesCapacity(t *testing.T) {
	arena := NewArena(256)
	layout := interloc.MustLayout(200, 8)

	arena.Allocate(layout)
	arena.Allocate(layout)

	chunks := arena.NumChunks()
	capacity := arena.Capacity()
	if chunks < 2 {
		t.Fatalf("NumChunks() = %d, want at least 2", chunks)
	}

	for cycle := 0; cycle < 5; cycle++ {
		arena.Reset()
		arena.Allocate(layout)
		arena.Allocate(layout)
	}

	if got := arena.NumChunks(); got != chunks {
		t.Errorf("NumChunks() after reset cycles = %d, want %d", got, chunks)
	}
	if got := arena.Capacity(); got != capacity {
		t.Errorf("Capacity() after reset cycles = %d, want %d (retained chunks must be refilled)", got, capacity)
	}
}

func TestArenaReleasePanics(t *testing.T) {
	arena := NewArena(0)
	arena.Release()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Allocate after Release did not panic")
		}
	}()
	arena.Allocate(interloc.MustLayout(8, 8))
}

func TestArenaConcurrentAllocate(t *testing.T) {
	arena := NewArena(4096)
	layout := interloc.MustLayout(128, 8)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if buf := arena.Allocate(layout); len(buf) != 128 {
					t.Errorf("len = %d, want 128", len(buf))
					return
				}
			}
		}()
	}
	wg.Wait()

	if used := arena.SizeInUse(); used < 8*100*128 {
		t.Errorf("SizeInUse() = %d, want at least %d", used, 8*100*128)
	}
}
