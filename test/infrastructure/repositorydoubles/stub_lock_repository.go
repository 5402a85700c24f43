//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

// SpyLockRepository implements repositories.LockRepository and records the
// directories it locked and released.
type SpyLockRepository struct {
	LockErr error

	mu       sync.Mutex
	Locked   []string
	Released []string
}

var _ repositories.LockRepository = (*SpyLockRepository)(nil)

func (s *SpyLockRepository) Lock(_ context.Context, dir string) (func(), error) {
	if s.LockErr != nil {
		return nil, s.LockErr
	}

	s.mu.Lock()
	s.Locked = append(s.Locked, dir)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.Released = append(s.Released, dir)
			s.mu.Unlock()
		})
	}, nil
}
