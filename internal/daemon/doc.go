// Package daemon detaches aesdsocket from its controlling terminal.
//
// A Go process cannot fork safely once the runtime has started threads, so
// detaching is done by re-executing the binary. The parent binds the
// listening socket first, so address errors are reported on the terminal,
// then starts a copy of itself in a new session with the socket inherited as
// file descriptor 3 and EnvVar set. The child picks the socket up with
// InheritedListener.
package daemon
