package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/A1Liu/interloc/pkg/interloc"
)

func TestLiveMonitorTracksBlocks(t *testing.T) {
	m := NewLiveMonitor()
	layout := interloc.MustLayout(64, 8)
	buf := make([]byte, 64)

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAlloc})
	assert.Equal(t, 0, m.LiveBlocks(), "before-actions carry no address yet")

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAllocResult, Buf: buf})
	assert.Equal(t, 1, m.LiveBlocks())
	assert.Equal(t, uint64(64), m.LiveBytes())

	m.Observe(layout, interloc.Action{Kind: interloc.ActionDealloc, Buf: buf})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionDeallocResult})
	assert.Equal(t, 0, m.LiveBlocks())
	assert.Equal(t, uint64(0), m.LiveBytes())
}

func TestLiveMonitorReallocMovesBlock(t *testing.T) {
	m := NewLiveMonitor()
	layout := interloc.MustLayout(32, 8)
	old := make([]byte, 32)
	moved := make([]byte, 96)

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAllocZeroedResult, Buf: old})
	assert.Equal(t, uint64(32), m.LiveBytes())

	m.Observe(layout, interloc.Action{Kind: interloc.ActionRealloc, Buf: old, NewSize: 96})
	assert.Equal(t, 1, m.LiveBlocks(), "the old block stays live until the call succeeds")

	m.Observe(layout, interloc.Action{Kind: interloc.ActionReallocResult, Buf: moved, NewSize: 96})
	assert.Equal(t, 1, m.LiveBlocks())
	assert.Equal(t, uint64(96), m.LiveBytes(), "the moved block counts at its new size")
}

func TestLiveMonitorFailedReallocKeepsOldBlock(t *testing.T) {
	m := NewLiveMonitor()
	layout := interloc.MustLayout(32, 8)
	old := make([]byte, 32)

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAllocResult, Buf: old})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionRealloc, Buf: old, NewSize: 96})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionReallocResult, Buf: nil, NewSize: 96})

	assert.Equal(t, 1, m.LiveBlocks(), "a failed realloc leaves the old block valid")
	assert.Equal(t, uint64(32), m.LiveBytes())

	m.Observe(layout, interloc.Action{Kind: interloc.ActionDealloc, Buf: old})
	assert.Equal(t, 0, m.LiveBlocks())
}

func TestLiveMonitorReallocInPlace(t *testing.T) {
	m := NewLiveMonitor()
	layout := interloc.MustLayout(64, 8)
	buf := make([]byte, 128)

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAllocResult, Buf: buf[:64]})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionRealloc, Buf: buf[:64], NewSize: 128})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionReallocResult, Buf: buf, NewSize: 128})

	assert.Equal(t, 1, m.LiveBlocks(), "an in-place realloc is one block")
	assert.Equal(t, uint64(128), m.LiveBytes())
}

func TestLiveMonitorSkipsFailedCalls(t *testing.T) {
	m := NewLiveMonitor()
	layout := interloc.MustLayout(64, 8)

	m.Observe(layout, interloc.Action{Kind: interloc.ActionAllocResult, Buf: nil})
	m.Observe(layout, interloc.Action{Kind: interloc.ActionReallocResult, Buf: nil, NewSize: 128})

	assert.Equal(t, 0, m.LiveBlocks(), "failed calls must not be tracked")
}
