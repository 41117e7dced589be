package app

import (
	"log"
	"sync"
	"time"

	"github.com/A1Liu/interloc/internal/storage"
	"github.com/A1Liu/interloc/pkg/stats"
)

// Sink receives sampled records. *storage.Journal satisfies it.
type Sink interface {
	Append(rec storage.Record) error
}

// Source is a named stats supplier sampled by the recorder. Fetch runs
// on the recorder's goroutine, so it must be safe to call from there
// (goroutine-scoped monitors cannot be sampled this way).
type Source struct {
	Name  string
	Fetch func() stats.AllocStats
}

// Recorder periodically samples each source and appends the snapshots
// to the sink.
type Recorder struct {
	sink     Sink
	interval time.Duration
	sources  []Source

	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup
}

func NewRecorder(sink Sink, interval time.Duration, sources ...Source) *Recorder {
	return &Recorder{
		sink:     sink,
		interval: interval,
		sources:  sources,
		done:     make(chan struct{}),
	}
}

func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop halts sampling and waits for the in-flight sample, if any, to
// finish. Safe to call more than once.
func (r *Recorder) Stop() {
	r.stop.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sample()
		case <-r.done:
			return
		}
	}
}

func (r *Recorder) sample() {
	now := time.Now()
	for _, source := range r.sources {
		rec := storage.Record{
			Time:   now,
			Source: source.Name,
			Stats:  source.Fetch(),
		}
		if err := r.sink.Append(rec); err != nil {
			log.Printf("recorder: appending %s sample: %v", source.Name, err)
		}
	}
}
