package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"

	"github.com/A1Liu/interloc/pkg/stats"
)

var (
	ErrJournalLocked = errors.New("journal is locked by another process")
	ErrJournalClosed = errors.New("journal is closed")
)

// Record is one journal entry: a named stats snapshot at a point in
// time.
type Record struct {
	Time   time.Time        `json:"time"`
	Source string           `json:"source"`
	Stats  stats.AllocStats `json:"stats"`
}

// Journal is an append-only, line-delimited JSON log of stats
// snapshots. A file lock next to the journal keeps it exclusive to one
// process; a background goroutine syncs the file once per second
// until Close.
type Journal struct {
	file *os.File
	fl   *flock.Flock
	mu   sync.Mutex
	done chan struct{}

	closed bool
}

func NewJournal(path string) (*Journal, error) {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking journal: %w", err)
	}
	if !locked {
		return nil, ErrJournalLocked
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0666)
	if err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{
		file: f,
		fl:   fl,
		done: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.mu.Lock()
				if !j.closed {
					j.file.Sync()
				}
				j.mu.Unlock()
			case <-j.done:
				return
			}
		}
	}()

	return j, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	close(j.done)

	j.file.Sync()
	err := j.file.Close()
	if unlockErr := j.fl.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Append writes one record as a JSON line.
func (j *Journal) Append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	data = append(data, '\n')
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	return nil
}

// Replay calls callback for every record in the journal, oldest first.
func (j *Journal) Replay(callback func(rec Record)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	lines, err := j.lines()
	if err != nil {
		return err
	}
	for _, line := range lines {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decoding record: %w", err)
		}
		callback(rec)
	}
	return nil
}

// Field extracts a gjson path (for example "stats.bytes_allocated")
// from every record, oldest first.
func (j *Journal) Field(path string) ([]gjson.Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	lines, err := j.lines()
	if err != nil {
		return nil, err
	}
	results := make([]gjson.Result, 0, len(lines))
	for _, line := range lines {
		results = append(results, gjson.GetBytes(line, path))
	}
	return results, nil
}

// lines reads the whole journal file. The file is opened with
// O_APPEND, so the seek does not disturb later writes.
func (j *Journal) lines() ([][]byte, error) {
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding journal: %w", err)
	}

	var lines [][]byte
	scanner := bufio.NewScanner(j.file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return lines, nil
}
