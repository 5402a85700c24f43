package mercurial

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
)

const fullNodeLength = 40

var urlPattern = regexp.MustCompile(`(?i)^hg(\+[a-z]+)?://|^ssh://hg@|//hg\.|/hg(/|$)|mercurial`)

// MercurialVcsRepository implements repositories.VcsRepository with the hg binary.
type MercurialVcsRepository struct {
	runner command.Runner
}

var _ repositories.VcsRepository = (*MercurialVcsRepository)(nil)

// NewMercurialVcsRepository creates the Mercurial backend.
func NewMercurialVcsRepository(runner command.Runner) *MercurialVcsRepository {
	return &MercurialVcsRepository{runner: runner}
}

func (r *MercurialVcsRepository) Type() entities.VcsType { return entities.VcsTypeMercurial }

func (r *MercurialVcsRepository) Aliases() []string { return []string{"hg", "mercurial"} }

func (r *MercurialVcsRepository) IsApplicableURL(url string) bool {
	return urlPattern.MatchString(strings.TrimSpace(url))
}

func (r *MercurialVcsRepository) IsApplicableDirectory(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".hg"))
	return err == nil && info.IsDir()
}

func (r *MercurialVcsRepository) GetWorkingTree(dir string) repositories.WorkingTreeRepository {
	return NewWorkingTree(dir, r.runner)
}

// CloneOrFetch clones without updating the working directory, or pulls into
// an existing checkout.
func (r *MercurialVcsRepository) CloneOrFetch(
	ctx context.Context,
	url, dir string,
) (repositories.WorkingTreeRepository, error) {
	wt := NewWorkingTree(dir, r.runner)
	if r.IsApplicableDirectory(dir) && wt.IsValid() {
		logger.Infof("[hg] Pulling %s into %s", url, dir)
		if _, err := wt.hg(ctx, "pull", url); err != nil {
			return nil, fmt.Errorf("failed to pull %s: %w", url, err)
		}
		return wt, nil
	}

	logger.Infof("[hg] Cloning %s into %s", url, dir)
	if _, err := r.runner.Run(ctx, command.Command{
		Name: binary,
		Args: []string{"clone", "--noupdate", url, dir},
		Env:  []string{"HGPLAIN=1"},
	}); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return NewWorkingTree(dir, r.runner), nil
}

// ResolveRevision maps requested to a changeset id. Bookmarks count as branches.
func (r *MercurialVcsRepository) ResolveRevision(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	requested string,
) (entities.ResolvedRevision, error) {
	hgTree := r.asWorkingTree(wt)
	if !hgTree.IsValid() {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, wt.GetWorkingDir())
	}

	if strings.TrimSpace(requested) == "" {
		out, err := hgTree.hg(ctx, "log", "-r", "default", "--template", "{node}")
		if err != nil {
			return entities.ResolvedRevision{}, fmt.Errorf("%w: no default branch: %w", entities.ErrAmbiguousRevision, err)
		}
		return entities.ResolvedRevision{ID: strings.TrimSpace(out), Kind: entities.RevisionKindDefault}, nil
	}

	tags, err := hgTree.refs(ctx, "tags", "tag")
	if err != nil {
		return entities.ResolvedRevision{}, fmt.Errorf("failed to list tags: %w", err)
	}
	delete(tags, "tip")

	branches, err := hgTree.refs(ctx, "branches", "branch")
	if err != nil {
		return entities.ResolvedRevision{}, fmt.Errorf("failed to list branches: %w", err)
	}
	if bookmarks, bookmarksErr := hgTree.refs(ctx, "bookmarks", "bookmark"); bookmarksErr == nil {
		for name, node := range bookmarks {
			if _, ok := branches[name]; !ok {
				branches[name] = node
			}
		}
	}

	var nodes []string
	allNodes := func() []string {
		if nodes == nil {
			out, _ := hgTree.hg(ctx, "log", "-r", "all()", "--template", "{node}\n")
			nodes = command.Lines(out)
		}
		return nodes
	}

	return entities.ResolveRevisionName(requested, entities.RevisionCandidates{
		FullCommitLength: fullNodeLength,
		Tags:             tags,
		Branches:         branches,
		CommitExists: func(id string) bool {
			for _, node := range allNodes() {
				if node == id {
					return true
				}
			}
			return false
		},
		CommitsWithPrefix: func(prefix string) []string {
			var matches []string
			for _, node := range allNodes() {
				if strings.HasPrefix(node, prefix) {
					matches = append(matches, node)
				}
			}
			return matches
		},
	})
}

func (r *MercurialVcsRepository) Checkout(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	revision entities.ResolvedRevision,
) error {
	hgTree := r.asWorkingTree(wt)
	logger.Debugf("[hg] Updating %s to %s (%s)", hgTree.GetRootPath(), revision.ID, revision.Kind)
	if _, err := hgTree.hg(ctx, "update", "--clean", "-r", revision.ID); err != nil {
		return fmt.Errorf("failed to update to %s: %w", revision.ID, err)
	}
	return nil
}

func (r *MercurialVcsRepository) asWorkingTree(wt repositories.WorkingTreeRepository) *WorkingTree {
	if hgTree, ok := wt.(*WorkingTree); ok {
		return hgTree
	}
	return NewWorkingTree(wt.GetWorkingDir(), r.runner)
}
