// Package server implements the aesdsocket TCP server.
//
// Every client connection is handled by its own session goroutine. A session
// appends each received chunk to a shared log file and, once a chunk
// containing a newline has been stored, sends back the whole log and closes
// the connection.
//
// # Lifecycle
//
// Serve binds the listener, truncates any stale data file, starts the
// timestamp task and then accepts connections. Accept never blocks for
// longer than AcceptTimeout, so the loop notices Stop promptly. Signals only
// set the stop flag; the teardown runs on the Serve goroutine:
//
//  1. close the listener
//  2. join the timestamp task
//  3. stop the tail endpoint and the mDNS advertisement
//  4. join every session ever spawned
//  5. close and remove the data file
//
// In-flight sessions are never cancelled; shutdown waits for them.
//
// # Tail endpoint
//
// When TailAddr is set, an HTTP server exposes the log:
//
//	GET /log   current contents as text/plain
//	GET /tail  WebSocket stream, snapshot first and then appended bytes
package server
