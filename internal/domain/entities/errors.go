package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryNotFound means no backend recognizes or can materialize the repository.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrAmbiguousRevision means the requested revision cannot be uniquely resolved.
	ErrAmbiguousRevision = errors.New("ambiguous revision")

	// ErrSubmoduleDiscovery is logged when nested repositories cannot be listed.
	ErrSubmoduleDiscovery = errors.New("submodule discovery failed")

	// ErrRemoteQuery is logged when listing remote branches or tags fails.
	ErrRemoteQuery = errors.New("remote query failed")

	// ErrTimeout means a backend operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrSubmoduleDepthExceeded means submodules are nested deeper than allowed.
	ErrSubmoduleDepthExceeded = errors.New("submodule nesting too deep")

	// ErrInvalidDescriptor means a descriptor lacks the data needed to download it.
	ErrInvalidDescriptor = errors.New("invalid repository descriptor")

	// ErrLockAcquisition means the target directory could not be locked.
	ErrLockAcquisition = errors.New("failed to lock target directory")
)

// DownloadError is a load-bearing failure of one download step.
type DownloadError struct {
	Descriptor VcsInfo
	Op         string // "clone", "resolve", "checkout", "submodule", "lock"
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Descriptor, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
