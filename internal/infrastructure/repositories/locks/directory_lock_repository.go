package locks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danjacques/gofslock/fslock"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

const (
	// LockDirEnv overrides the directory holding the lock files.
	LockDirEnv = "DOWNLOADER_LOCK_DIR"

	pollInterval = 50 * time.Millisecond
)

// DefaultLockDir returns $DOWNLOADER_LOCK_DIR, or a directory below the
// system temporary directory.
func DefaultLockDir() string {
	if dir := os.Getenv(LockDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "downloader-locks")
}

// slot is the in-process half of a directory lock. Waiting on a channel
// lets callers give up when their context ends.
type slot struct {
	sem     chan struct{}
	waiters int
}

// DirectoryLockRepository implements repositories.LockRepository. Goroutines
// of this process are serialized with one slot per directory, other
// processes with an exclusive lock file named after the directory.
type DirectoryLockRepository struct {
	lockDir string

	mu    sync.Mutex
	slots map[string]*slot
}

var _ repositories.LockRepository = (*DirectoryLockRepository)(nil)

// NewDirectoryLockRepository creates a locker keeping its lock files in lockDir.
func NewDirectoryLockRepository(lockDir string) *DirectoryLockRepository {
	return &DirectoryLockRepository{lockDir: lockDir, slots: make(map[string]*slot)}
}

// LockFile returns the lock file guarding dir.
func (r *DirectoryLockRepository) LockFile(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", entities.ErrLockAcquisition, dir, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(r.lockDir, hex.EncodeToString(sum[:])+".lock"), nil
}

func (r *DirectoryLockRepository) Lock(ctx context.Context, dir string) (func(), error) {
	lockFile, err := r.LockFile(dir)
	if err != nil {
		return nil, err
	}

	s := r.acquireSlot(lockFile)
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		r.releaseSlot(lockFile, s, false)
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrLockAcquisition, dir, ctx.Err())
	}

	if mkdirErr := os.MkdirAll(r.lockDir, 0o750); mkdirErr != nil { //nolint:mnd // directory permissions
		r.releaseSlot(lockFile, s, true)
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrLockAcquisition, dir, mkdirErr)
	}

	handle, err := fslock.LockBlocking(lockFile, blocker(ctx, dir))
	if err != nil {
		r.releaseSlot(lockFile, s, true)
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrLockAcquisition, dir, err)
	}
	logger.Debugf("Locked %s (%s)", dir, lockFile)

	var once sync.Once
	return func() {
		once.Do(func() {
			if unlockErr := handle.Unlock(); unlockErr != nil {
				logger.Warnf("Failed to unlock %s: %v", dir, unlockErr)
			}
			r.releaseSlot(lockFile, s, true)
			logger.Debugf("Unlocked %s", dir)
		})
	}, nil
}

// blocker polls until the lock file is free or ctx ends.
func blocker(ctx context.Context, dir string) fslock.Blocker {
	logged := false
	return func() error {
		if !logged {
			logger.Infof("Waiting for another process working on %s", dir)
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
			return nil
		}
	}
}

func (r *DirectoryLockRepository) acquireSlot(key string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		r.slots[key] = s
	}
	s.waiters++
	return s
}

func (r *DirectoryLockRepository) releaseSlot(key string, s *slot, held bool) {
	if held {
		<-s.sem
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s.waiters--
	if s.waiters == 0 {
		delete(r.slots, key)
	}
}
