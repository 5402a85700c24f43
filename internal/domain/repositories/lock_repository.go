package repositories

import "context"

// LockRepository serializes work on a target directory across goroutines and processes.
type LockRepository interface {
	// Lock blocks until dir is exclusively held or ctx is done. The returned
	// function releases the lock and is safe to call once.
	Lock(ctx context.Context, dir string) (func(), error)
}
