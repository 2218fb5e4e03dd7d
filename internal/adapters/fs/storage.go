package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/bft-labs/homeinfo/pkg/log"
)

const (
	// valueExt is appended to a key to form its file name.
	valueExt = ".json"

	// LockTimeout is the maximum time to wait for the per-key write lock.
	// If exceeded, writes proceed without locking (fail-open) rather than hang.
	LockTimeout = 100 * time.Millisecond
)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("fs: invalid storage key")

// ValidateKey checks that key can be stored as a single file in the
// storage directory.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, `/\`), filepath.Base(key) != key:
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	case strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: %q is a hidden name", ErrInvalidKey, key)
	}
	return nil
}

// FileStorage implements ports.Storage with one JSON file per key.
//
// Writes go to a unique temp file that is renamed over the target while an
// exclusive flock is held, so readers in other processes only ever see a
// complete value. FileStorage remembers its own last write per key so the
// paired Watcher can skip echoing it back, the same way a browser only
// fires storage events in other tabs.
type FileStorage struct {
	dir    string
	logger log.Logger

	mu  sync.Mutex
	own map[string]ownWrite
}

type ownWrite struct {
	sum     [sha256.Size]byte
	removed bool
}

// NewFileStorage creates a FileStorage rooted at dir.
// The directory is created on first write.
func NewFileStorage(dir string, logger log.Logger) *FileStorage {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &FileStorage{
		dir:    dir,
		logger: logger,
		own:    make(map[string]ownWrite),
	}
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

// Path returns the full path of the file holding key.
func (s *FileStorage) Path(key string) string {
	return filepath.Join(s.dir, key+valueExt)
}

func (s *FileStorage) lockPath(key string) string {
	return filepath.Join(s.dir, "."+key+".lock")
}

// Get reads the value stored under key.
// Returns ok=false and a nil error if the file does not exist.
func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key atomically.
func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	unlock, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	path := s.Path(key)

	// Unique temp name so writers racing in fail-open mode never share a file.
	tmp := fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	// os.Rename does not replace an existing file on Windows.
	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}

	s.rememberOwn(key, value, false)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		s.forgetOwn(key)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Remove deletes the value stored under key.
func (s *FileStorage) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	unlock, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	s.rememberOwn(key, nil, true)
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		s.forgetOwn(key)
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// acquireLock takes the exclusive per-key lock. The returned release
// function is always non-nil.
//
// Fail-open: if the lock cannot be acquired within LockTimeout the write
// proceeds unlocked. Rename keeps each write atomic, so the worst case is
// last writer wins, which the cache already tolerates.
func (s *FileStorage) acquireLock(ctx context.Context, key string) (func(), error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	fl := flock.New(s.lockPath(key))

	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil {
		if lockCtx.Err() == context.DeadlineExceeded {
			s.logger.Warn("storage lock timeout, writing without lock", log.String("key", key))
			return func() {}, nil
		}
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	if !locked {
		s.logger.Warn("storage lock busy, writing without lock", log.String("key", key))
		return func() {}, nil
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("storage unlock failed", log.String("key", key), log.Err(err))
		}
	}, nil
}

func (s *FileStorage) rememberOwn(key string, value []byte, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own[key] = ownWrite{sum: sha256.Sum256(value), removed: removed}
}

func (s *FileStorage) forgetOwn(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.own, key)
}

// consumeOwn reports whether the observed entry is exactly what this
// instance last wrote for key. The marker is cleared either way: after one
// observation any further change must have come from somewhere else.
func (s *FileStorage) consumeOwn(key string, value []byte, removed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.own[key]
	if !ok {
		return false
	}
	delete(s.own, key)

	if w.removed || removed {
		return w.removed && removed
	}
	return w.sum == sha256.Sum256(value)
}
