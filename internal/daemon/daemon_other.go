//go:build !unix

package daemon

import (
	"errors"
	"net"
)

var errUnsupported = errors.New("daemon: detaching is not supported on this platform")

// Detach is not supported on this platform.
func Detach(net.Listener, []string) (int, error) {
	return 0, errUnsupported
}

// InheritedListener is not supported on this platform.
func InheritedListener() (net.Listener, error) {
	if !IsChild() {
		return nil, ErrNotChild
	}
	return nil, errUnsupported
}
