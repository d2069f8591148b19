package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNoReply is returned by Send when the server closed the connection
// without sending anything, which happens when the payload has no newline.
var ErrNoReply = errors.New("server closed the connection without a reply")

// Send writes payload to the server at addr, closes the write side and
// returns everything the server sends before closing the connection.
func Send(ctx context.Context, addr string, payload []byte) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	// Unblock reads and writes when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send payload: %w", contextErr(ctx, err))
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return nil, fmt.Errorf("failed to close write side: %w", err)
		}
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return reply, fmt.Errorf("failed to read reply: %w", contextErr(ctx, err))
	}
	if len(reply) == 0 {
		return nil, ErrNoReply
	}
	return reply, nil
}

// Follow connects to the tail endpoint at url and calls fn with every chunk
// of log data until ctx is cancelled or the server closes the stream.
// A server-initiated close is not an error.
func Follow(ctx context.Context, url string, fn func([]byte)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("tail stream failed: %w", err)
		}
		fn(data)
	}
}

// contextErr prefers the context's error over the deadline error it caused.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
