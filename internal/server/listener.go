package server

import (
	"context"
	"fmt"
	"net"
	"time"
)

// deadlineListener is a listener whose Accept can be bounded in time.
// *net.TCPListener satisfies it.
type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// Listen binds a TCP listener on addr with address reuse enabled.
// The listen backlog is the operating system default.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

func asDeadlineListener(ln net.Listener) (deadlineListener, error) {
	dl, ok := ln.(deadlineListener)
	if !ok {
		return nil, fmt.Errorf("listener %T does not support accept deadlines", ln)
	}
	return dl, nil
}
