package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/A1Liu/interloc/internal/app"
	"github.com/A1Liu/interloc/internal/config"
	"github.com/A1Liu/interloc/internal/metrics"
	"github.com/A1Liu/interloc/internal/storage"
	"github.com/A1Liu/interloc/internal/util"
	"github.com/A1Liu/interloc/pkg/interloc"
	"github.com/A1Liu/interloc/pkg/memory"
	"github.com/A1Liu/interloc/pkg/stats"
)

func main() {
	cfg := config.DefaultConfig()
	if path := os.Getenv("INTERLOC_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	global := &stats.StatsMonitor{}
	local := &stats.ThreadMonitor{}
	live := stats.NewLiveMonitor()
	alloc := interloc.NewMonitoredAllocator(
		buildBackend(cfg.Memory),
		interloc.NewMultiMonitor(global, local, live),
	)

	journal, err := storage.NewJournal(cfg.Journal.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer journal.Close()

	recorder := app.NewRecorder(journal, cfg.Journal.SampleInterval,
		app.Source{Name: "global", Fetch: global.Stats},
	)
	recorder.Start()
	defer recorder.Stop()

	if cfg.Metrics.Enabled {
		if err := metrics.RegisterStatsCollector("global", global.Stats); err != nil {
			log.Fatal(err)
		}
		go func() {
			http.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Println("serving metrics on", addr+cfg.Metrics.Path)
			log.Fatal(http.ListenAndServe(addr, nil))
		}()
	}

	stop := make(chan struct{})
	go workload(alloc, local, stop)

	log.Println("recorder started, interrupt to stop")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	close(stop)

	log.Printf("global stats:\n%s", global.Stats())
	log.Printf("live blocks: %d (%d bytes)", live.LiveBlocks(), live.LiveBytes())
}

func buildBackend(cfg config.MemoryConfig) interloc.Allocator {
	switch cfg.Backend {
	case "slab":
		pool := memory.NewSlabPool()
		if cfg.Defrag.Enabled {
			pool.StartDefragmentation(cfg.Defrag.Interval, cfg.Defrag.Threshold)
		}
		return pool
	case "arena":
		return memory.NewArena(cfg.ChunkSize)
	default:
		return memory.DefaultAllocator
	}
}

// workload churns the allocator with random allocate, reallocate and
// deallocate calls so there is something to record.
func workload(alloc interloc.Allocator, local *stats.ThreadMonitor, stop <-chan struct{}) {
	defer local.Detach()

	origin := local.Stats()
	var blocks []block
	for {
		select {
		case <-stop:
			return
		default:
		}

		layout := interloc.MustLayout(util.RandomSize(16, 4096), util.RandomAlign(64))
		if buf := alloc.Allocate(layout); buf != nil {
			blocks = append(blocks, block{buf: buf, layout: layout})
		}

		if len(blocks) > 0 && util.RandomSize(0, 4) == 0 {
			i := util.RandomSize(0, len(blocks))
			b := blocks[i]
			newSize := util.RandomSize(16, 8192)
			if buf := alloc.Reallocate(b.buf, b.layout, newSize); buf != nil {
				blocks[i] = block{
					buf:    buf,
					layout: interloc.Layout{Size: newSize, Align: b.layout.Align},
				}
			}
		}

		for len(blocks) > 64 {
			b := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			alloc.Deallocate(b.buf, b.layout)
		}

		if delta := local.Stats().Delta(origin); delta.Allocs%1000 == 0 {
			log.Printf("workload delta:\n%s", delta)
		}
		time.Sleep(time.Millisecond)
	}
}

type block struct {
	buf    []byte
	layout interloc.Layout
}
