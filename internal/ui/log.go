package ui

import (
	"strings"

	"github.com/muurk/aesdsocket/internal/protocol"
)

// RenderLog styles a log for display. Timestamp records are muted so client
// records stand out; an unterminated tail is highlighted.
func RenderLog(log []byte) string {
	records, rest := protocol.SplitRecords(log)

	var b strings.Builder
	for _, rec := range records {
		line := strings.TrimSuffix(string(rec), "\n")
		if protocol.IsTimestamp(rec) {
			b.WriteString(TimestampStyle.Render(line))
		} else {
			b.WriteString(RecordStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	if len(rest) > 0 {
		b.WriteString(PartialStyle.Render(string(rest)))
		b.WriteByte('\n')
	}
	return b.String()
}

// CountRecords returns the number of client and timestamp records in log.
func CountRecords(log []byte) (client, timestamps int) {
	records, _ := protocol.SplitRecords(log)
	for _, rec := range records {
		if protocol.IsTimestamp(rec) {
			timestamps++
		} else {
			client++
		}
	}
	return client, timestamps
}
