// Package logging provides structured logging for aesdsocket.
//
// This package wraps a package-level zap logger with convenience functions
// used by the server and the aesdctl client.
//
// # Log Levels
//
//   - Debug: received chunks with hex/ascii dumps, poll iterations
//   - Info: connection events, timestamp records, lifecycle steps
//   - Warn: recoverable issues during shutdown
//   - Error: session failures, fatal accept errors
//
// # Structured Logging
//
//	logging.Info("Timestamp appended",
//	    zap.Time("at", now),
//	    zap.Int("bytes", len(record)),
//	)
//
// Connection events use a fixed shape so they can be grepped:
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogConnection(remoteAddr, "connection_closed")
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When level is empty, AESDSOCKET_LOG_LEVEL is consulted; if that is empty
// too the logger is a no-op. A detached server calls InitializeSyslog
// instead, since its standard streams are closed.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
package logging
