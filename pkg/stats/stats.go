// Package stats provides ready-made monitors that turn allocator
// actions into running counters: one shared across all goroutines, one
// scoped to the calling goroutine, and one that tracks live blocks by
// address.
package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/A1Liu/interloc/pkg/interloc"
)

// AllocStats is a snapshot of the five running counters kept by the
// monitors in this package. The zero value is the initial snapshot.
// Counters only ever grow over the lifetime of a monitor, except by an
// explicit SetStats overwrite.
type AllocStats struct {
	Allocs           uint64 `json:"allocs"`
	Deallocs         uint64 `json:"deallocs"`
	Reallocs         uint64 `json:"reallocs"`
	BytesAllocated   uint64 `json:"bytes_allocated"`
	BytesDeallocated uint64 `json:"bytes_deallocated"`
}

// Apply returns the snapshot updated with the effect of one action.
// All counting happens on before-phase actions, where the sizes are
// already known regardless of whether the real call will succeed; the
// *Result kinds carry no countable information and leave the snapshot
// unchanged.
func (s AllocStats) Apply(layout interloc.Layout, act interloc.Action) AllocStats {
	switch act.Kind {
	case interloc.ActionAlloc, interloc.ActionAllocZeroed:
		s.Allocs++
		s.BytesAllocated += uint64(layout.Size)
	case interloc.ActionDealloc:
		s.Deallocs++
		s.BytesDeallocated += uint64(layout.Size)
	case interloc.ActionRealloc:
		s.Reallocs++
		s.BytesAllocated += uint64(act.NewSize)
		s.BytesDeallocated += uint64(layout.Size)
	}
	return s
}

// Delta returns the field-wise difference s minus origin, the activity
// between the two snapshots. Precondition: s was read no earlier than
// origin on the same monitor; otherwise the subtraction wraps around.
func (s AllocStats) Delta(origin AllocStats) AllocStats {
	return AllocStats{
		Allocs:           s.Allocs - origin.Allocs,
		Deallocs:         s.Deallocs - origin.Deallocs,
		Reallocs:         s.Reallocs - origin.Reallocs,
		BytesAllocated:   s.BytesAllocated - origin.BytesAllocated,
		BytesDeallocated: s.BytesDeallocated - origin.BytesDeallocated,
	}
}

// Info returns the counters as a key-value map for reporting.
func (s AllocStats) Info() map[string]string {
	return map[string]string{
		"allocs":            strconv.FormatUint(s.Allocs, 10),
		"deallocs":          strconv.FormatUint(s.Deallocs, 10),
		"reallocs":          strconv.FormatUint(s.Reallocs, 10),
		"bytes_allocated":   strconv.FormatUint(s.BytesAllocated, 10),
		"bytes_deallocated": strconv.FormatUint(s.BytesDeallocated, 10),
	}
}

// String formats the counters as sorted key:value lines.
func (s AllocStats) String() string {
	info := s.Info()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(":")
		builder.WriteString(info[k])
		builder.WriteString("\n")
	}
	return builder.String()
}
