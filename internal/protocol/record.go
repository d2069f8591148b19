package protocol

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Terminator ends every record in the log, both client-sent and timestamp.
const Terminator byte = '\n'

// TimestampPrefix marks records injected by the server's timestamp task.
const TimestampPrefix = "timestamp:"

// TimestampLayout is the RFC 2822 layout used inside timestamp records,
// e.g. "Mon, 02 Jan 2006 15:04:05 -0700".
const TimestampLayout = time.RFC1123Z

// HasTerminator reports whether chunk contains the record terminator at any
// position.
func HasTerminator(chunk []byte) bool {
	return bytes.IndexByte(chunk, Terminator) >= 0
}

// FormatTimestamp renders t as a complete, terminated timestamp record.
func FormatTimestamp(t time.Time) []byte {
	return []byte(TimestampPrefix + t.Format(TimestampLayout) + string(Terminator))
}

// IsTimestamp reports whether record is a timestamp record. The terminator
// is optional.
func IsTimestamp(record []byte) bool {
	return bytes.HasPrefix(record, []byte(TimestampPrefix))
}

// ParseTimestamp extracts the time from a timestamp record.
func ParseTimestamp(record []byte) (time.Time, error) {
	if !IsTimestamp(record) {
		return time.Time{}, fmt.Errorf("not a timestamp record: %q", record)
	}
	value := strings.TrimSuffix(string(record[len(TimestampPrefix):]), string(Terminator))
	t, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

// SplitRecords splits a log snapshot into records. Each returned record keeps
// its terminator; a trailing unterminated fragment is returned as rest.
func SplitRecords(log []byte) (records [][]byte, rest []byte) {
	for len(log) > 0 {
		i := bytes.IndexByte(log, Terminator)
		if i < 0 {
			return records, log
		}
		records = append(records, log[:i+1])
		log = log[i+1:]
	}
	return records, nil
}
