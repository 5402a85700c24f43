//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

// CloneCall records a single invocation of CloneOrFetch.
type CloneCall struct {
	URL string
	Dir string
}

// SpyVcsRepository implements repositories.VcsRepository as a configurable spy.
// Working trees are kept per cleaned directory, so a clone followed by a
// lookup of the same directory sees the same tree.
type SpyVcsRepository struct {
	// --- identity ---
	VcsType    entities.VcsType
	AliasNames []string
	URLMatch   bool
	DirMatch   bool

	// --- CloneOrFetch ---
	CloneErr   error
	OnClone    func(ctx context.Context, url, dir string) // runs before the tree is returned
	CloneCalls []CloneCall

	// --- ResolveRevision ---
	Revisions  map[string]entities.ResolvedRevision // by requested name
	ResolveErr error
	Resolved   []string

	// --- Checkout ---
	CheckoutErr error
	OnCheckout  func(ctx context.Context, dir string, revision entities.ResolvedRevision)
	CheckedOut  []entities.ResolvedRevision

	mu    sync.Mutex
	trees map[string]*StubWorkingTree
}

var _ repositories.VcsRepository = (*SpyVcsRepository)(nil)

// NewSpyVcsRepository creates a spy for the given type.
func NewSpyVcsRepository(vcsType entities.VcsType) *SpyVcsRepository {
	return &SpyVcsRepository{
		VcsType:   vcsType,
		Revisions: map[string]entities.ResolvedRevision{},
		trees:     map[string]*StubWorkingTree{},
	}
}

// AddTree registers the working tree a directory holds.
func (s *SpyVcsRepository) AddTree(tree *StubWorkingTree) *StubWorkingTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[filepath.Clean(tree.WorkingDir)] = tree
	return tree
}

// Tree returns the working tree registered for dir, if any.
func (s *SpyVcsRepository) Tree(dir string) (*StubWorkingTree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.trees[filepath.Clean(dir)]
	return tree, ok
}

// Calls returns a copy of the recorded clone calls.
func (s *SpyVcsRepository) Calls() []CloneCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CloneCall{}, s.CloneCalls...)
}

func (s *SpyVcsRepository) Type() entities.VcsType        { return s.VcsType }
func (s *SpyVcsRepository) Aliases() []string             { return s.AliasNames }
func (s *SpyVcsRepository) IsApplicableURL(_ string) bool { return s.URLMatch }

func (s *SpyVcsRepository) IsApplicableDirectory(dir string) bool {
	if s.DirMatch {
		return true
	}
	_, ok := s.Tree(dir)
	return ok
}

func (s *SpyVcsRepository) GetWorkingTree(dir string) repositories.WorkingTreeRepository {
	if tree, ok := s.Tree(dir); ok {
		return tree
	}
	return &StubWorkingTree{VcsType: s.VcsType, WorkingDir: dir}
}

func (s *SpyVcsRepository) CloneOrFetch(
	ctx context.Context, url, dir string,
) (repositories.WorkingTreeRepository, error) {
	s.mu.Lock()
	s.CloneCalls = append(s.CloneCalls, CloneCall{URL: url, Dir: dir})
	s.mu.Unlock()

	if s.OnClone != nil {
		s.OnClone(ctx, url, dir)
	}
	if s.CloneErr != nil {
		return nil, s.CloneErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tree, ok := s.Tree(dir); ok {
		return tree, nil
	}
	return s.AddTree(NewStubWorkingTree(s.VcsType, dir, url)), nil
}

func (s *SpyVcsRepository) ResolveRevision(
	_ context.Context, _ repositories.WorkingTreeRepository, requested string,
) (entities.ResolvedRevision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resolved = append(s.Resolved, requested)

	if s.ResolveErr != nil {
		return entities.ResolvedRevision{}, s.ResolveErr
	}
	if revision, ok := s.Revisions[requested]; ok {
		return revision, nil
	}
	return entities.ResolvedRevision{}, fmt.Errorf("%w: %q", entities.ErrAmbiguousRevision, requested)
}

func (s *SpyVcsRepository) Checkout(
	ctx context.Context, wt repositories.WorkingTreeRepository, revision entities.ResolvedRevision,
) error {
	if s.OnCheckout != nil {
		s.OnCheckout(ctx, wt.GetWorkingDir(), revision)
	}

	s.mu.Lock()
	s.CheckedOut = append(s.CheckedOut, revision)
	s.mu.Unlock()

	if s.CheckoutErr != nil {
		return s.CheckoutErr
	}
	if tree, ok := wt.(*StubWorkingTree); ok {
		tree.SetRevision(revision.ID)
	}
	return nil
}
