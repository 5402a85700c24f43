package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

const defaultRemoteName = "origin"

// WorkingTree implements repositories.WorkingTreeRepository on top of go-git.
// The repository is opened lazily on first use; a directory that cannot be
// opened yields an invalid working tree whose queries return empty values.
type WorkingTree struct {
	workingDir string

	once    sync.Once
	repo    *gogit.Repository
	rootDir string
	openErr error
}

var _ repositories.WorkingTreeRepository = (*WorkingTree)(nil)

// NewWorkingTree creates a working tree for dir without touching the filesystem.
func NewWorkingTree(dir string) *WorkingTree {
	return &WorkingTree{workingDir: dir}
}

func newOpenedWorkingTree(dir string, repo *gogit.Repository) *WorkingTree {
	w := &WorkingTree{workingDir: dir}
	w.once.Do(func() {
		w.repo = repo
		w.rootDir = worktreeRoot(repo, dir)
	})
	return w
}

func (w *WorkingTree) open() (*gogit.Repository, error) {
	w.once.Do(func() {
		repo, err := gogit.PlainOpenWithOptions(w.workingDir, &gogit.PlainOpenOptions{
			DetectDotGit:          true,
			EnableDotGitCommonDir: true,
		})
		if err != nil {
			w.openErr = err
			return
		}
		w.repo = repo
		w.rootDir = worktreeRoot(repo, w.workingDir)
	})
	return w.repo, w.openErr
}

func worktreeRoot(repo *gogit.Repository, fallback string) string {
	wt, err := repo.Worktree()
	if err != nil {
		return fallback
	}
	return wt.Filesystem.Root()
}

func (w *WorkingTree) GetType() entities.VcsType { return entities.VcsTypeGit }

func (w *WorkingTree) GetWorkingDir() string { return w.workingDir }

func (w *WorkingTree) IsValid() bool {
	repo, err := w.open()
	if err != nil {
		return false
	}

	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return true
	}
	gitDir := storage.Filesystem().Root()

	objectsParent := gitDir
	if data, readErr := os.ReadFile(filepath.Join(gitDir, "commondir")); readErr == nil {
		objectsParent = strings.TrimSpace(string(data))
		if !filepath.IsAbs(objectsParent) {
			objectsParent = filepath.Join(gitDir, objectsParent)
		}
	}

	info, statErr := os.Stat(filepath.Join(objectsParent, "objects"))
	return statErr == nil && info.IsDir()
}

func (w *WorkingTree) IsShallow() bool {
	repo, err := w.open()
	if err != nil {
		return false
	}
	shallow, err := repo.Storer.Shallow()
	return err == nil && len(shallow) > 0
}

func (w *WorkingTree) GetRevision() string {
	repo, err := w.open()
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

func (w *WorkingTree) GetRemoteURL() string {
	repo, err := w.open()
	if err != nil {
		return ""
	}
	cfg, err := repo.Config()
	if err != nil {
		logger.Debugf("[git] Failed to read config of %s: %v", w.workingDir, err)
		return ""
	}

	remotes := make(map[string]string, len(cfg.Remotes))
	for name, remote := range cfg.Remotes {
		if len(remote.URLs) > 0 {
			remotes[name] = remote.URLs[0]
		}
	}

	upstream := ""
	if branch := currentBranch(repo); branch != "" {
		if b, ok := cfg.Branches[branch]; ok {
			upstream = b.Remote
		}
	}

	return SelectRemoteURL(remotes, upstream)
}

// currentBranch returns the short name of the branch HEAD points to, also for
// unborn branches, or "" when HEAD is detached.
func currentBranch(repo *gogit.Repository) string {
	ref, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil || ref.Type() != plumbing.SymbolicReference || !ref.Target().IsBranch() {
		return ""
	}
	return ref.Target().Short()
}

func (w *WorkingTree) GetRootPath() string {
	if _, err := w.open(); err != nil {
		return w.workingDir
	}
	return w.rootDir
}

func (w *WorkingTree) ListRemoteBranches(ctx context.Context) []string {
	return w.listRemoteNames(ctx, func(name plumbing.ReferenceName) bool { return name.IsBranch() })
}

func (w *WorkingTree) ListRemoteTags(ctx context.Context) []string {
	return w.listRemoteNames(ctx, func(name plumbing.ReferenceName) bool { return name.IsTag() })
}

func (w *WorkingTree) listRemoteNames(ctx context.Context, keep func(plumbing.ReferenceName) bool) []string {
	url := w.GetRemoteURL()
	if url == "" {
		return []string{}
	}

	refs, err := listRemote(ctx, url)
	if err != nil {
		logger.Warnf("[git] %v", err)
		return []string{}
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		name := ref.Name()
		if keep(name) && !strings.HasSuffix(name.String(), "^{}") {
			names = append(names, name.Short())
		}
	}
	sort.Strings(names)
	return names
}

// listRemote advertises the references of url without touching any local repository.
func listRemote(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: defaultRemoteName,
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", entities.ErrRemoteQuery, url, err)
	}
	return refs, nil
}

func (w *WorkingTree) GetNested() *entities.SubmoduleMap {
	nested, err := w.nested(0)
	if err != nil {
		logger.Warnf("[git] %v: %s: %v", entities.ErrSubmoduleDiscovery, w.GetRootPath(), err)
		return entities.NewSubmoduleMap()
	}
	return nested
}
