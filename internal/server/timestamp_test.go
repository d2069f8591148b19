package server

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/aesdsocket/internal/logstore"
	"github.com/muurk/aesdsocket/internal/protocol"
)

func TestTimestampTask_EmitsImmediatelyAndOnInterval(t *testing.T) {
	store := logstore.New(filepath.Join(t.TempDir(), "log"))
	var stop atomic.Bool

	task := &timestampTask{
		store:    store,
		interval: 40 * time.Millisecond,
		poll:     5 * time.Millisecond,
		stopped:  stop.Load,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.run()
	}()

	time.Sleep(150 * time.Millisecond)
	stop.Store(true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timestamp task did not observe stop flag")
	}

	data, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	records, rest := protocol.SplitRecords(data)
	if len(rest) != 0 {
		t.Errorf("unterminated trailing data %q", rest)
	}
	// one at start plus at least two intervals
	if len(records) < 3 {
		t.Fatalf("got %d timestamp records, want at least 3: %q", len(records), data)
	}
	for _, record := range records {
		if _, err := protocol.ParseTimestamp(record); err != nil {
			t.Errorf("record %q: %v", record, err)
		}
	}
}

func TestTimestampTask_StopsWithinOnePoll(t *testing.T) {
	store := logstore.New(filepath.Join(t.TempDir(), "log"))
	var stop atomic.Bool

	task := &timestampTask{
		store:    store,
		interval: time.Hour,
		poll:     10 * time.Millisecond,
		stopped:  stop.Load,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.run()
	}()

	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	stop.Store(true)

	select {
	case <-done:
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("task took %v to stop", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("timestamp task did not stop")
	}

	data, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	records, _ := protocol.SplitRecords(data)
	if len(records) != 1 {
		t.Errorf("got %d records, want exactly the initial one", len(records))
	}
}

func TestTimestampTask_UsesClock(t *testing.T) {
	store := logstore.New(filepath.Join(t.TempDir(), "log"))
	fixed := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)

	task := &timestampTask{store: store, now: func() time.Time { return fixed }}
	task.emit()

	data, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := "timestamp:Thu, 02 Jan 2020 03:04:05 +0000\n"; string(data) != want {
		t.Errorf("record = %q, want %q", data, want)
	}
}
