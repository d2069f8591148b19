package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/muurk/aesdsocket/internal/discovery"
	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/logstore"
	"github.com/muurk/aesdsocket/internal/version"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrAcceptFailed is returned by Serve when the listener fails for a reason
// other than the accept deadline expiring.
var ErrAcceptFailed = errors.New("accept failed")

// Config holds the server configuration
type Config struct {
	Host              string
	Port              int
	DataFile          string
	AcceptTimeout     time.Duration // Upper bound on one Accept wait
	TimestampInterval time.Duration // 0 disables the timestamp task
	PollInterval      time.Duration // Stop flag polling period of background tasks
	ChunkSize         int
	TailAddr          string // HTTP/WebSocket tail endpoint (empty = disabled)
	Advertise         bool   // Announce the server over mDNS
	InstanceName      string

	// Listener, if set, is used instead of binding Host:Port. Daemon mode
	// passes the socket bound by the parent process here.
	Listener net.Listener
}

// Server is the context object shared by the acceptor, the sessions, the
// timestamp task and the shutdown sequence.
type Server struct {
	config     *Config
	listener   deadlineListener
	store      *logstore.Store
	stop       atomic.Bool
	registry   registry
	timerDone  chan struct{}
	tail       *tailServer
	advertiser *discovery.Advertiser
	ready      chan struct{}
	active     atomic.Int64
}

// New creates a new Server instance. Nothing is bound until Serve.
func New(config *Config) (*Server, error) {
	if config.AcceptTimeout <= 0 {
		return nil, fmt.Errorf("accept timeout must be positive, got %v", config.AcceptTimeout)
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", config.PollInterval)
	}
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}

	return &Server{
		config: config,
		store:  logstore.New(config.DataFile),
		ready:  make(chan struct{}),
	}, nil
}

// Start installs the SIGINT/SIGTERM handlers and serves until one arrives.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		// Only the flag is touched here; the accept loop does the rest
		if _, ok := <-sigChan; ok {
			s.Stop()
		}
	}()

	return s.Serve()
}

// Serve binds the listener, starts the background tasks and accepts
// connections until Stop is called. The shutdown sequence always runs
// before Serve returns. The error is non-nil only when startup fails or the
// listener breaks; cleanup failures are logged.
func (s *Server) Serve() error {
	if err := s.bind(); err != nil {
		return err
	}

	// A file left over from a previous run is discarded
	if err := s.store.Reset(); err != nil {
		_ = s.listener.Close()
		return fmt.Errorf("failed to reset data file: %w", err)
	}

	if s.config.TimestampInterval > 0 {
		s.timerDone = make(chan struct{})
		task := &timestampTask{
			store:    s.store,
			interval: s.config.TimestampInterval,
			poll:     s.config.PollInterval,
			stopped:  s.Stopped,
		}
		go func() {
			defer close(s.timerDone)
			task.run()
		}()
	}

	if err := s.startTail(); err != nil {
		logging.Error("Tail endpoint disabled", zap.Error(err))
	}
	if s.config.Advertise {
		s.startAdvertiser()
	}

	close(s.ready)

	loopErr := s.acceptLoop()
	if loopErr == nil {
		logging.Info("Caught signal, exiting")
	}

	if err := s.shutdown(); err != nil {
		logging.Warn("Shutdown completed with errors", zap.Error(err))
	}
	logging.Sync()

	return loopErr
}

func (s *Server) bind() error {
	ln := s.config.Listener
	if ln == nil {
		addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
		var err error
		ln, err = Listen(context.Background(), addr)
		if err != nil {
			return err
		}
	}

	dl, err := asDeadlineListener(ln)
	if err != nil {
		_ = ln.Close()
		return err
	}
	s.listener = dl

	logging.Info("Server listening for connections",
		zap.String("addr", dl.Addr().String()),
		zap.String("data_file", s.store.Path()),
		zap.Duration("timestamp_interval", s.config.TimestampInterval),
	)
	return nil
}

func (s *Server) startTail() error {
	if s.config.TailAddr == "" {
		return nil
	}
	ln, err := Listen(context.Background(), s.config.TailAddr)
	if err != nil {
		return err
	}
	s.tail = newTailServer(ln, s.store, s.config.PollInterval, s.Stopped)
	s.tail.start()
	return nil
}

func (s *Server) startAdvertiser() {
	addr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		logging.Error("mDNS advertisement disabled, listener is not TCP",
			zap.String("addr", s.listener.Addr().String()))
		return
	}
	port := addr.Port

	tailPort := 0
	if s.tail != nil {
		if tailAddr, ok := s.tail.Addr().(*net.TCPAddr); ok {
			tailPort = tailAddr.Port
		}
	}

	instance := s.config.InstanceName
	if instance == "" {
		instance = "aesdsocket"
	}

	adv, err := discovery.Advertise(instance, port, version.Version, tailPort)
	if err != nil {
		logging.Error("mDNS advertisement disabled", zap.Error(err))
		return
	}
	s.advertiser = adv
	logging.Info("Advertising over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
}

// acceptLoop accepts connections until the stop flag is set. Each Accept
// waits at most AcceptTimeout so the flag is re-checked regularly.
func (s *Server) acceptLoop() error {
	for !s.stop.Load() {
		if err := s.listener.SetDeadline(time.Now().Add(s.config.AcceptTimeout)); err != nil {
			logging.Error("Failed to set accept deadline", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrAcceptFailed, err)
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrAcceptFailed, err)
		}

		h := newTaskHandle()
		s.registry.register(h)
		s.active.Add(1)
		go s.handleConnection(conn, h)
	}
	return nil
}

func (s *Server) handleConnection(conn net.Conn, h *taskHandle) {
	defer h.finish()
	defer s.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Session panicked",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.Any("panic", r),
			)
			_ = conn.Close()
		}
	}()

	newSession(conn, s.store, s.config.ChunkSize).run()
}

// shutdown releases everything Serve acquired, in order. Every step runs
// even if an earlier one failed.
func (s *Server) shutdown() error {
	logging.Info("Shutting down server...")

	var errs error

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = multierr.Append(errs, fmt.Errorf("close listener: %w", err))
	}

	if s.timerDone != nil {
		<-s.timerDone
		logging.Debug("Timestamp task joined")
	}

	if s.tail != nil {
		errs = multierr.Append(errs, s.tail.close())
	}
	s.advertiser.Shutdown()

	n := s.registry.drainAndJoinAll()
	logging.Info("All connections closed", zap.Int("sessions_joined", n))

	errs = multierr.Append(errs, s.store.Close())
	if err := s.store.Remove(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("remove data file: %w", err))
	}

	return errs
}

// Stop requests shutdown. It only sets the stop flag and is safe to call
// from a signal handler goroutine, more than once, or before Serve.
func (s *Server) Stop() {
	s.stop.Store(true)
}

// Stopped reports whether Stop has been called.
func (s *Server) Stopped() bool {
	return s.stop.Load()
}

// Ready is closed once the listener is bound and the server accepts
// connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address. Valid after Ready.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// TailAddr returns the bound tail endpoint address, or nil when disabled.
// Valid after Ready.
func (s *Server) TailAddr() net.Addr {
	if s.tail == nil {
		return nil
	}
	return s.tail.Addr()
}

// DataFile returns the path of the backing file.
func (s *Server) DataFile() string {
	return s.store.Path()
}

// ActiveSessions returns the number of sessions currently running.
func (s *Server) ActiveSessions() int {
	return int(s.active.Load())
}
