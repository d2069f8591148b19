package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/logstore"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed for the HTTP server to finish non-hijacked requests
	tailShutdownTimeout = 5 * time.Second
)

// tailServer exposes the log over HTTP:
//
//	GET /log   full snapshot as text/plain
//	GET /tail  WebSocket; snapshot first, then every appended byte
type tailServer struct {
	store    *logstore.Store
	poll     time.Duration
	stopped  func() bool
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader

	// followers counts hijacked WebSocket handlers, which http.Server.Shutdown
	// does not wait for
	followers sync.WaitGroup
	serveDone chan struct{}
}

func newTailServer(ln net.Listener, store *logstore.Store, poll time.Duration, stopped func() bool) *tailServer {
	t := &tailServer{
		store:     store,
		poll:      poll,
		stopped:   stopped,
		listener:  ln,
		serveDone: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /log", t.handleLog)
	mux.HandleFunc("GET /tail", t.handleTail)
	t.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return t
}

// Addr returns the bound address of the tail endpoint.
func (t *tailServer) Addr() net.Addr {
	return t.listener.Addr()
}

func (t *tailServer) start() {
	go func() {
		defer close(t.serveDone)
		if err := t.http.Serve(t.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Tail endpoint stopped", zap.Error(err))
		}
	}()
	logging.Info("Tail endpoint listening", zap.String("addr", t.listener.Addr().String()))
}

// close stops accepting requests and waits for every follower to notice the
// stop flag and return.
func (t *tailServer) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tailShutdownTimeout)
	defer cancel()

	err := t.http.Shutdown(ctx)
	<-t.serveDone
	t.followers.Wait()

	if err != nil {
		return fmt.Errorf("failed to stop tail endpoint: %w", err)
	}
	return nil
}

func (t *tailServer) handleLog(w http.ResponseWriter, r *http.Request) {
	data, err := t.store.ReadAll()
	if err != nil {
		logging.Error("Failed to read log for HTTP client",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		http.Error(w, "log unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (t *tailServer) handleTail(w http.ResponseWriter, r *http.Request) {
	t.followers.Add(1)
	defer t.followers.Done()

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "tail_opened")
	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "tail_closed")
	}()

	if err := t.follow(conn); err != nil {
		logging.Info("Tail ended",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
	}
}

// follow sends the current snapshot, then polls the store for growth until
// the server stops or the peer goes away.
func (t *tailServer) follow(conn *websocket.Conn) error {
	// The peer never sends data, but reading is required to process
	// control frames and to notice a close.
	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	snapshot, err := t.store.ReadAll()
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := t.send(conn, snapshot); err != nil {
		return err
	}
	offset := int64(len(snapshot))

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-peerGone:
			return nil
		case <-ticker.C:
		}

		if t.stopped() {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return nil
		}

		size, err := t.store.Size()
		if err != nil {
			return fmt.Errorf("stat log: %w", err)
		}
		if size <= offset {
			continue
		}

		data, err := t.store.ReadFrom(offset)
		if err != nil {
			return fmt.Errorf("read log from %d: %w", offset, err)
		}
		if err := t.send(conn, data); err != nil {
			return err
		}
		offset += int64(len(data))
	}
}

func (t *tailServer) send(conn *websocket.Conn, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
