package subversion

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

var (
	urlPattern      = regexp.MustCompile(`(?i)^svn(\+[a-z]+)?://|/svn(/|$)|/(trunk|branches|tags)(/|$)`)
	revisionPattern = regexp.MustCompile(`^r?([0-9]+)$`)
)

// SubversionVcsRepository implements repositories.VcsRepository with the svn
// binary. Resolved revisions are peg URLs ("<url>@<revision>") because a tag
// or branch is a directory of its own in Subversion.
type SubversionVcsRepository struct {
	runner command.Runner
}

var _ repositories.VcsRepository = (*SubversionVcsRepository)(nil)

// NewSubversionVcsRepository creates the Subversion backend.
func NewSubversionVcsRepository(runner command.Runner) *SubversionVcsRepository {
	return &SubversionVcsRepository{runner: runner}
}

func (r *SubversionVcsRepository) Type() entities.VcsType { return entities.VcsTypeSubversion }

func (r *SubversionVcsRepository) Aliases() []string { return []string{"svn", "subversion"} }

func (r *SubversionVcsRepository) IsApplicableURL(url string) bool {
	return urlPattern.MatchString(strings.TrimSpace(url))
}

func (r *SubversionVcsRepository) IsApplicableDirectory(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".svn"))
	return err == nil && info.IsDir()
}

func (r *SubversionVcsRepository) GetWorkingTree(dir string) repositories.WorkingTreeRepository {
	return NewWorkingTree(dir, r.runner)
}

// CloneOrFetch checks out url at HEAD, or updates an existing working copy.
func (r *SubversionVcsRepository) CloneOrFetch(
	ctx context.Context,
	url, dir string,
) (repositories.WorkingTreeRepository, error) {
	wt := NewWorkingTree(dir, r.runner)
	if r.IsApplicableDirectory(dir) && wt.IsValid() {
		logger.Infof("[svn] Updating %s", dir)
		if _, err := wt.svn(ctx, "update"); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", dir, err)
		}
		return &checkout{WorkingTree: wt, url: url}, nil
	}

	logger.Infof("[svn] Checking out %s into %s", url, dir)
	if _, err := r.runner.Run(ctx, command.Command{
		Name: binary,
		Args: []string{"--non-interactive", "checkout", url, dir},
		Env:  []string{"LC_ALL=C"},
	}); err != nil {
		return nil, fmt.Errorf("failed to check out %s: %w", url, err)
	}
	return &checkout{WorkingTree: NewWorkingTree(dir, r.runner), url: url}, nil
}

// checkout remembers the URL a working copy was requested from, which stays
// the base for resolving revisions after switching to a tag or branch.
type checkout struct {
	*WorkingTree
	url string
}

// ResolveRevision maps requested to a peg URL. Revision numbers ("1234" or
// "r1234") come first, then tags, then branches including trunk.
func (r *SubversionVcsRepository) ResolveRevision(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	requested string,
) (entities.ResolvedRevision, error) {
	svnTree, baseURL := r.unwrap(wt)
	if !svnTree.IsValid() {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, wt.GetWorkingDir())
	}

	name := strings.TrimSpace(requested)
	if name == "" {
		out, err := svnTree.svn(ctx, "info", "--show-item", "revision", "-r", "HEAD", baseURL)
		if err != nil {
			return entities.ResolvedRevision{}, fmt.Errorf("%w: no HEAD revision: %w", entities.ErrAmbiguousRevision, err)
		}
		return entities.ResolvedRevision{ID: pegURL(baseURL, strings.TrimSpace(out)), Kind: entities.RevisionKindDefault}, nil
	}

	if m := revisionPattern.FindStringSubmatch(name); m != nil {
		if _, err := svnTree.svn(ctx, "info", "--show-item", "revision", "-r", m[1], baseURL); err == nil {
			return entities.ResolvedRevision{Requested: requested, ID: pegURL(baseURL, m[1]), Kind: entities.RevisionKindCommit}, nil
		}
	}

	root := svnTree.info("repos-root-url")
	if root == "" {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: unknown repository root", entities.ErrRepositoryNotFound)
	}

	tags := make(map[string]string)
	if entries, err := svnTree.list(ctx, "^/tags"); err == nil {
		for _, e := range entries {
			tags[e.name] = pegURL(root+"/tags/"+e.name, e.revision)
		}
	}

	branches := make(map[string]string)
	if entries, err := svnTree.list(ctx, "^/branches"); err == nil {
		for _, e := range entries {
			branches[e.name] = pegURL(root+"/branches/"+e.name, e.revision)
		}
	}
	if entries, err := svnTree.list(ctx, "^/"); err == nil {
		for _, e := range entries {
			if e.name == "trunk" {
				branches["trunk"] = pegURL(root+"/trunk", e.revision)
			}
		}
	}

	return entities.ResolveRevisionName(requested, entities.RevisionCandidates{
		Tags:     tags,
		Branches: branches,
	})
}

// Checkout reverts local changes, then updates or switches the working copy
// to the peg URL of the resolved revision.
func (r *SubversionVcsRepository) Checkout(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	revision entities.ResolvedRevision,
) error {
	svnTree, _ := r.unwrap(wt)
	target, rev, ok := splitPegURL(revision.ID)
	if !ok {
		return fmt.Errorf("invalid Subversion revision %q", revision.ID)
	}

	if _, err := svnTree.svn(ctx, "revert", "--recursive", "."); err != nil {
		return fmt.Errorf("failed to revert %s: %w", svnTree.GetRootPath(), err)
	}

	logger.Debugf("[svn] Moving %s to %s@%s (%s)", svnTree.GetRootPath(), target, rev, revision.Kind)
	var err error
	if strings.TrimRight(target, "/") == strings.TrimRight(svnTree.GetRemoteURL(), "/") {
		_, err = svnTree.svn(ctx, "update", "-r", rev)
	} else {
		_, err = svnTree.svn(ctx, "switch", "--ignore-ancestry", revision.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to check out %s: %w", revision.ID, err)
	}
	return nil
}

func (r *SubversionVcsRepository) unwrap(wt repositories.WorkingTreeRepository) (*WorkingTree, string) {
	switch t := wt.(type) {
	case *checkout:
		return t.WorkingTree, t.url
	case *WorkingTree:
		return t, t.GetRemoteURL()
	default:
		svnTree := NewWorkingTree(wt.GetWorkingDir(), r.runner)
		return svnTree, svnTree.GetRemoteURL()
	}
}

func pegURL(url, revision string) string {
	return url + "@" + revision
}

func splitPegURL(id string) (string, string, bool) {
	idx := strings.LastIndex(id, "@")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}
