package server

import (
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/aesdsocket/internal/protocol"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Host:          "127.0.0.1",
		Port:          0,
		DataFile:      filepath.Join(t.TempDir(), "aesdsocketdata"),
		AcceptTimeout: 50 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
		ChunkSize:     1024,
	}
}

type runningServer struct {
	*Server
	errCh chan error
	once  sync.Once
	err   error
}

// wait stops the server and returns what Serve returned.
func (r *runningServer) wait(t *testing.T) error {
	t.Helper()
	r.once.Do(func() {
		r.Stop()
		select {
		case r.err = <-r.errCh:
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after Stop")
		}
	})
	return r.err
}

func startServer(t *testing.T, cfg *Config) *runningServer {
	t.Helper()

	srv, err := New(cfg)
	require.NoError(t, err)

	r := &runningServer{Server: srv, errCh: make(chan error, 1)}
	go func() { r.errCh <- srv.Serve() }()

	select {
	case <-srv.Ready():
	case err := <-r.errCh:
		t.Fatalf("Serve() returned before ready: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() { _ = r.wait(t) })
	return r
}

// exchange writes payload and returns everything the server sends before
// closing the connection.
func exchange(t *testing.T, addr string, payload string) string {
	t.Helper()

	reply, err := tryExchange(addr, payload)
	require.NoError(t, err)
	return reply
}

func tryExchange(addr string, payload string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(3 * time.Second)); err != nil {
		return "", err
	}
	if _, err := conn.Write([]byte(payload)); err != nil {
		return "", err
	}
	reply, err := io.ReadAll(conn)
	return string(reply), err
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero accept timeout", func(c *Config) { c.AcceptTimeout = 0 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestServer_EchoesRecord(t *testing.T) {
	srv := startServer(t, testConfig(t))

	reply := exchange(t, srv.Addr().String(), "hello\n")
	require.Equal(t, "hello\n", reply)
}

func TestServer_LogIsSharedAcrossClients(t *testing.T) {
	srv := startServer(t, testConfig(t))
	addr := srv.Addr().String()

	require.Equal(t, "first\n", exchange(t, addr, "first\n"))
	require.Equal(t, "first\nsecond\n", exchange(t, addr, "second\n"))
}

func TestServer_NoReplyWithoutTerminator(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg)
	addr := srv.Addr().String()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = conn.Write([]byte("partial"))
	require.NoError(t, err)

	// Nothing comes back while the record is incomplete
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	n, err := conn.Read(make([]byte, 16))
	require.Zero(t, n)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected read timeout, got %v", err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(cfg.DataFile)
		return err == nil && string(data) == "partial"
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, "partialdone\n", exchange(t, addr, "done\n"))
}

func TestServer_TerminatorInLaterChunk(t *testing.T) {
	srv := startServer(t, testConfig(t))

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))

	_, err = conn.Write([]byte("abc"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = conn.Write([]byte("def\n"))
	require.NoError(t, err)

	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	require.Equal(t, "abcdef\n", string(reply))
}

func TestServer_ConcurrentClientsDoNotInterleave(t *testing.T) {
	srv := startServer(t, testConfig(t))
	addr := srv.Addr().String()

	const clients = 8
	payloads := make([]string, clients)
	for i := range payloads {
		payloads[i] = strings.Repeat(string(rune('a'+i)), 200) + "\n"
	}

	type result struct {
		payload string
		reply   string
		err     error
	}
	results := make(chan result, clients)
	for _, p := range payloads {
		go func(p string) {
			reply, err := tryExchange(addr, p)
			results <- result{payload: p, reply: reply, err: err}
		}(p)
	}
	for i := 0; i < clients; i++ {
		r := <-results
		require.NoError(t, r.err)
		require.Contains(t, r.reply, r.payload)
	}

	final := exchange(t, addr, "end\n")
	records, rest := protocol.SplitRecords([]byte(final))
	require.Empty(t, rest)
	require.Len(t, records, clients+1)
	for _, p := range payloads {
		require.Contains(t, final, p)
	}
}

func TestServer_ReplacesStaleDataFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.DataFile, []byte("stale\n"), 0644))

	srv := startServer(t, cfg)
	require.Equal(t, "hello\n", exchange(t, srv.Addr().String(), "hello\n"))
}

func TestServer_TimestampRecords(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimestampInterval = 50 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	srv := startServer(t, cfg)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(cfg.DataFile)
		if err != nil {
			return false
		}
		records, _ := protocol.SplitRecords(data)
		return len(records) >= 3
	}, 3*time.Second, 10*time.Millisecond)

	reply := exchange(t, srv.Addr().String(), "client\n")
	records, rest := protocol.SplitRecords([]byte(reply))
	require.Empty(t, rest)

	var stamps int
	for _, rec := range records {
		if protocol.IsTimestamp(rec) {
			_, err := protocol.ParseTimestamp(rec)
			require.NoError(t, err)
			stamps++
		}
	}
	require.GreaterOrEqual(t, stamps, 3)
	require.Equal(t, "client\n", string(records[len(records)-1]))
}

func TestServer_ShutdownWaitsForInflightSession(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg)
	addr := srv.Addr().String()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("inflight"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return srv.ActiveSessions() == 1 },
		2*time.Second, 5*time.Millisecond)

	srv.Stop()

	// New connections are refused once the accept loop has exited
	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return true
		}
		_ = c.Close()
		return false
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case err := <-srv.errCh:
		t.Fatalf("Serve() returned %v while a session was in flight", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))
	_, err = conn.Write([]byte("\n"))
	require.NoError(t, err)
	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	require.Equal(t, "inflight\n", string(reply))

	require.NoError(t, srv.wait(t))
	_, err = os.Stat(cfg.DataFile)
	require.True(t, os.IsNotExist(err), "data file should be removed, stat error = %v", err)
}

func TestServer_StopBeforeServe(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg)
	require.NoError(t, err)

	srv.Stop()
	srv.Stop()
	require.True(t, srv.Stopped())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return")
	}

	_, err = os.Stat(cfg.DataFile)
	require.True(t, os.IsNotExist(err))
}

func TestServer_BindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig(t)
	cfg.Port = busy.Addr().(*net.TCPAddr).Port

	srv, err := New(cfg)
	require.NoError(t, err)
	require.Error(t, srv.Serve())
}

// brokenListener fails every Accept with a non-timeout error.
type brokenListener struct {
	net.Listener
}

func (l *brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("file descriptor exhausted")
}

func (l *brokenListener) SetDeadline(time.Time) error {
	return nil
}

func TestServer_FatalAcceptError(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Listener = &brokenListener{Listener: inner}

	srv, err := New(cfg)
	require.NoError(t, err)

	err = srv.Serve()
	require.ErrorIs(t, err, ErrAcceptFailed)

	_, statErr := os.Stat(cfg.DataFile)
	require.True(t, os.IsNotExist(statErr))
}

func TestServer_TailEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.TailAddr = "127.0.0.1:0"
	srv := startServer(t, cfg)
	addr := srv.Addr().String()
	require.NotNil(t, srv.TailAddr())
	tailAddr := srv.TailAddr().String()

	require.Equal(t, "hello\n", exchange(t, addr, "hello\n"))

	resp, err := http.Get("http://" + tailAddr + "/log")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello\n", string(body))

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+tailAddr+"/tail", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))

	_, snapshot, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(snapshot))

	require.Equal(t, "hello\nworld\n", exchange(t, addr, "world\n"))

	_, appended, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "world\n", string(appended))

	require.NoError(t, srv.wait(t))

	_, _, err = ws.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
