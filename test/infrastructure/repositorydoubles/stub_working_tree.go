//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

// StubWorkingTree implements repositories.WorkingTreeRepository with fixed answers.
type StubWorkingTree struct {
	VcsType    entities.VcsType
	WorkingDir string
	Root       string // GetRootPath falls back to WorkingDir when empty
	Valid      bool
	Shallow    bool
	RemoteURL  string
	Branches   []string
	Tags       []string
	Nested     *entities.SubmoduleMap

	mu       sync.Mutex
	revision string
}

var _ repositories.WorkingTreeRepository = (*StubWorkingTree)(nil)

// NewStubWorkingTree creates a valid working tree of the given type at dir.
func NewStubWorkingTree(vcsType entities.VcsType, dir, remoteURL string) *StubWorkingTree {
	return &StubWorkingTree{
		VcsType:    vcsType,
		WorkingDir: dir,
		Valid:      true,
		RemoteURL:  remoteURL,
		Nested:     entities.NewSubmoduleMap(),
	}
}

func (s *StubWorkingTree) GetType() entities.VcsType { return s.VcsType }
func (s *StubWorkingTree) GetWorkingDir() string     { return s.WorkingDir }
func (s *StubWorkingTree) IsValid() bool             { return s.Valid }
func (s *StubWorkingTree) IsShallow() bool           { return s.Shallow }
func (s *StubWorkingTree) GetRemoteURL() string      { return s.RemoteURL }

func (s *StubWorkingTree) GetRevision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// SetRevision moves the stub to another revision, as a checkout would.
func (s *StubWorkingTree) SetRevision(revision string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision = revision
}

func (s *StubWorkingTree) GetRootPath() string {
	if s.Root != "" {
		return s.Root
	}
	return s.WorkingDir
}

func (s *StubWorkingTree) ListRemoteBranches(_ context.Context) []string {
	return append([]string{}, s.Branches...)
}

func (s *StubWorkingTree) ListRemoteTags(_ context.Context) []string {
	return append([]string{}, s.Tags...)
}

func (s *StubWorkingTree) GetNested() *entities.SubmoduleMap {
	if s.Nested == nil {
		return entities.NewSubmoduleMap()
	}
	return s.Nested
}
