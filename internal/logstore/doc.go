// Package logstore implements the shared append-only log behind aesdsocket.
//
// A Store owns a single backing file and a single mutex. Every operation
// takes the mutex for its whole duration, so a reader always observes either
// all of an append or none of it:
//
//	store := logstore.New("/var/tmp/aesdsocketdata")
//	if err := store.Reset(); err != nil {
//	    return err
//	}
//	_ = store.Append([]byte("hello\n"))
//	data, _ := store.ReadAll() // "hello\n"
//
// The backing file is opened for the duration of each operation only, which
// keeps no descriptor alive between client sessions.
//
// # Lifecycle
//
// Reset removes any file left from a previous run. Close marks the store as
// closed; every later call returns ErrClosed. Remove deletes the backing file
// and is the last step of the server's shutdown sequence.
package logstore
