package logstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// DefaultPath is the well-known location of the backing file.
const DefaultPath = "/var/tmp/aesdsocketdata"

var (
	// ErrOpen is returned when the backing file cannot be opened.
	ErrOpen = errors.New("logstore: cannot open backing file")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("logstore: store closed")
)

// Store is an append-only byte log persisted to a single file.
// All methods are safe for concurrent use.
type Store struct {
	path   string
	mu     sync.Mutex
	closed bool
}

// New returns a Store backed by the file at path. The file is not touched
// until the first operation.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Append writes p to the end of the log. The whole of p becomes visible to
// readers at once; concurrent appends never interleave.
func (s *Store) Append(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}

	if _, err := f.Write(p); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append %d bytes: %w", len(p), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush log: %w", err)
	}

	return f.Close()
}

// ReadAll returns the full content of the log as it stands when the lock is
// acquired. A log that was never written reads as empty.
func (s *Store) ReadAll() ([]byte, error) {
	return s.ReadFrom(0)
}

// ReadFrom returns the log content starting at offset. An offset at or past
// the end yields an empty slice.
func (s *Store) ReadFrom(offset int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek to %d: %w", offset, err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return data, nil
}

// Size returns the current length of the log in bytes.
func (s *Store) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat log: %w", err)
	}
	return info.Size(), nil
}

// Reset discards any existing log so the next reader sees an empty store.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return removeIfExists(s.path)
}

// Close marks the store as closed. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Remove deletes the backing file. It works on a closed store.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return removeIfExists(s.path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
