package server

import (
	"time"

	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/logstore"
	"github.com/muurk/aesdsocket/internal/protocol"
	"go.uber.org/zap"
)

// timestampTask appends a timestamp record to the log every interval.
// It polls the stop condition every poll period instead of sleeping for the
// whole interval, so shutdown is never delayed by more than one poll.
type timestampTask struct {
	store    *logstore.Store
	interval time.Duration
	poll     time.Duration
	stopped  func() bool
	now      func() time.Time
}

// run emits one record immediately, then one per interval until stopped
// reports true.
func (t *timestampTask) run() {
	t.emit()
	last := time.Now()

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for range ticker.C {
		if t.stopped() {
			return
		}
		// time.Since uses the monotonic clock, wall clock jumps do not matter
		if time.Since(last) >= t.interval {
			t.emit()
			last = time.Now()
		}
	}
}

func (t *timestampTask) emit() {
	now := time.Now
	if t.now != nil {
		now = t.now
	}

	record := protocol.FormatTimestamp(now())
	if err := t.store.Append(record); err != nil {
		logging.Error("Failed to append timestamp", zap.Error(err))
		return
	}
	logging.Debug("Timestamp appended", zap.ByteString("record", record))
}
