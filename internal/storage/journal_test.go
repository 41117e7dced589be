package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A1Liu/interloc/pkg/stats"
)

func TestJournalAppendReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.journal")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	defer journal.Close()

	records := []Record{
		{Time: time.Now().UTC(), Source: "global", Stats: stats.AllocStats{Allocs: 1, BytesAllocated: 64}},
		{Time: time.Now().UTC(), Source: "global", Stats: stats.AllocStats{Allocs: 2, BytesAllocated: 192}},
		{Time: time.Now().UTC(), Source: "workload", Stats: stats.AllocStats{Deallocs: 1, BytesDeallocated: 64}},
	}
	for _, rec := range records {
		require.NoError(t, journal.Append(rec))
	}

	var replayed []Record
	require.NoError(t, journal.Replay(func(rec Record) {
		replayed = append(replayed, rec)
	}))

	require.Len(t, replayed, len(records))
	for i, rec := range replayed {
		assert.Equal(t, records[i].Source, rec.Source)
		assert.Equal(t, records[i].Stats, rec.Stats)
		assert.True(t, records[i].Time.Equal(rec.Time), "record %d timestamp", i)
	}
}

func TestJournalField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.journal")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	defer journal.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, journal.Append(Record{
			Time:   time.Now(),
			Source: "global",
			Stats:  stats.AllocStats{Allocs: uint64(i), BytesAllocated: uint64(i * 64)},
		}))
	}

	results, err := journal.Field("stats.bytes_allocated")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, int64((i+1)*64), res.Int())
	}

	sources, err := journal.Field("source")
	require.NoError(t, err)
	assert.Equal(t, "global", sources[0].String())
}

func TestJournalLockExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.journal")

	journal, err := NewJournal(path)
	require.NoError(t, err)

	_, err = NewJournal(path)
	assert.ErrorIs(t, err, ErrJournalLocked, "a second journal on the same path must be refused")

	require.NoError(t, journal.Close())

	reopened, err := NewJournal(path)
	require.NoError(t, err, "the lock must be released on Close")
	reopened.Close()
}

func TestJournalClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.journal")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	assert.ErrorIs(t, journal.Append(Record{Source: "global"}), ErrJournalClosed)
	assert.ErrorIs(t, journal.Replay(func(Record) {}), ErrJournalClosed)
	assert.NoError(t, journal.Close(), "closing twice is fine")
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.journal")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, journal.Append(Record{Time: time.Now(), Source: "global", Stats: stats.AllocStats{Allocs: 7}}))
	require.NoError(t, journal.Close())

	reopened, err := NewJournal(path)
	require.NoError(t, err)
	defer reopened.Close()

	count := 0
	require.NoError(t, reopened.Replay(func(rec Record) {
		count++
		assert.Equal(t, uint64(7), rec.Stats.Allocs)
	}))
	assert.Equal(t, 1, count)
}
