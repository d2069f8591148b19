package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/logstore"
	"github.com/muurk/aesdsocket/internal/protocol"
	"go.uber.org/zap"
)

// lingerTimeout bounds how long a closing session waits for the peer to
// acknowledge the end of the reply.
const lingerTimeout = time.Second

type sessionState int

const (
	stateReceiving sessionState = iota
	stateReplying
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateReceiving:
		return "receiving"
	case stateReplying:
		return "replying"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session handles one client connection:
//
//	receiving -> replying -> closed
//	receiving -> closed          (peer hung up, or an error)
type session struct {
	conn           net.Conn
	remoteAddr     string
	store          *logstore.Store
	buf            []byte
	terminatorSeen bool
	state          sessionState
}

func newSession(conn net.Conn, store *logstore.Store, chunkSize int) *session {
	return &session{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		store:      store,
		buf:        make([]byte, chunkSize),
		state:      stateReceiving,
	}
}

// run drives the session to completion. Errors are logged, never returned.
func (s *session) run() {
	logging.LogConnection(s.remoteAddr, "connection_accepted")

	for s.state != stateClosed {
		switch s.state {
		case stateReceiving:
			s.state = s.receive()
		case stateReplying:
			s.state = s.reply()
		}
	}

	s.close()
}

// receive reads one chunk and appends it to the log.
func (s *session) receive() sessionState {
	n, err := s.conn.Read(s.buf)
	if n > 0 {
		chunk := s.buf[:n]
		logging.LogChunk(s.remoteAddr, chunk)

		if appendErr := s.store.Append(chunk); appendErr != nil {
			logging.Error("Failed to append to log",
				zap.String("remote_addr", s.remoteAddr),
				zap.Error(appendErr),
			)
			return stateClosed
		}

		if protocol.HasTerminator(chunk) {
			s.terminatorSeen = true
			return stateReplying
		}
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			logging.Debug("Connection closed by peer before terminator",
				zap.String("remote_addr", s.remoteAddr),
			)
		} else {
			logging.Error("Failed to receive from client",
				zap.String("remote_addr", s.remoteAddr),
				zap.Error(err),
			)
		}
		return stateClosed
	}

	return stateReceiving
}

// reply sends the full log back to the peer.
func (s *session) reply() sessionState {
	data, err := s.store.ReadAll()
	if err != nil {
		logging.Error("Failed to read log",
			zap.String("remote_addr", s.remoteAddr),
			zap.Error(err),
		)
		return stateClosed
	}

	n, err := s.conn.Write(data)
	if err != nil {
		logging.Error("Failed to send log to client",
			zap.String("remote_addr", s.remoteAddr),
			zap.Int("bytes_written", n),
			zap.Int("bytes_total", len(data)),
			zap.Error(err),
		)
		return stateClosed
	}

	logging.Debug("Sent log to client",
		zap.String("remote_addr", s.remoteAddr),
		zap.Int("bytes_written", n),
	)
	return stateClosed
}

// close shuts the connection down. After a reply the write side is closed
// first and unread input drained, so the kernel does not reset the
// connection while the peer is still reading the reply.
func (s *session) close() {
	if tcpConn, ok := s.conn.(*net.TCPConn); ok && s.terminatorSeen {
		if err := tcpConn.CloseWrite(); err == nil {
			_ = tcpConn.SetReadDeadline(time.Now().Add(lingerTimeout))
			_, _ = io.Copy(io.Discard, tcpConn)
		}
	}

	if err := s.conn.Close(); err != nil {
		logging.Warn("Error closing connection",
			zap.String("remote_addr", s.remoteAddr),
			zap.Error(err),
		)
	}
	logging.LogConnection(s.remoteAddr, "connection_closed")
}
