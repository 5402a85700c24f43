package mercurial

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
)

const (
	binary   = "hg"
	nullNode = "0000000000000000000000000000000000000000"
)

// WorkingTree implements repositories.WorkingTreeRepository for Mercurial
// checkouts through the hg command-line tool.
type WorkingTree struct {
	workingDir string
	runner     command.Runner

	once sync.Once
	root string
}

var _ repositories.WorkingTreeRepository = (*WorkingTree)(nil)

// NewWorkingTree creates a working tree for dir.
func NewWorkingTree(dir string, runner command.Runner) *WorkingTree {
	return &WorkingTree{workingDir: dir, runner: runner}
}

// rootDir returns the nearest directory holding a .hg directory, or "".
func (w *WorkingTree) rootDir() string {
	w.once.Do(func() {
		dir, err := filepath.Abs(w.workingDir)
		if err != nil {
			return
		}
		for {
			if info, statErr := os.Stat(filepath.Join(dir, ".hg")); statErr == nil && info.IsDir() {
				w.root = dir
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	})
	return w.root
}

// hg runs a command in the root of the checkout with a stable output format.
func (w *WorkingTree) hg(ctx context.Context, args ...string) (string, error) {
	return w.runner.Run(ctx, command.Command{
		Dir:  w.rootDir(),
		Name: binary,
		Args: args,
		Env:  []string{"HGPLAIN=1"},
	})
}

// query runs a local query bounded by command.LocalQueryTimeout.
func (w *WorkingTree) query(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), command.LocalQueryTimeout)
	defer cancel()
	return w.hg(ctx, args...)
}

func (w *WorkingTree) GetType() entities.VcsType { return entities.VcsTypeMercurial }

func (w *WorkingTree) GetWorkingDir() string { return w.workingDir }

func (w *WorkingTree) IsValid() bool {
	root := w.rootDir()
	if root == "" {
		return false
	}
	for _, marker := range []string{"store", "00changelog.i"} {
		if _, err := os.Stat(filepath.Join(root, ".hg", marker)); err == nil {
			return true
		}
	}
	return false
}

// IsShallow is always false: Mercurial has no truncated history.
func (w *WorkingTree) IsShallow() bool { return false }

func (w *WorkingTree) GetRevision() string {
	if !w.IsValid() {
		return ""
	}
	out, err := w.query("log", "-r", ".", "--template", "{node}")
	node := strings.TrimSpace(out)
	if err != nil || node == nullNode {
		return ""
	}
	return node
}

// GetRemoteURL returns the "default" path, Mercurial's equivalent of the upstream remote.
func (w *WorkingTree) GetRemoteURL() string {
	if !w.IsValid() {
		return ""
	}
	out, err := w.query("paths", "default")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func (w *WorkingTree) GetRootPath() string {
	if root := w.rootDir(); root != "" {
		return root
	}
	return w.workingDir
}

// ListRemoteBranches lists the named branches of the local store. hg cannot
// read refs of a remote without pulling, so the result is as current as the
// last CloneOrFetch and the remote is never contacted.
func (w *WorkingTree) ListRemoteBranches(ctx context.Context) []string {
	return w.listNames(ctx, "branches", "{branch}\n")
}

// ListRemoteTags lists the tags of the local store, like ListRemoteBranches.
func (w *WorkingTree) ListRemoteTags(ctx context.Context) []string {
	return w.listNames(ctx, "tags", "{tag}\n")
}

func (w *WorkingTree) listNames(ctx context.Context, subcommand, template string) []string {
	if !w.IsValid() {
		return []string{}
	}
	out, err := w.hg(ctx, subcommand, "--template", template)
	if err != nil {
		logger.Warnf("[hg] %v: %v", entities.ErrRemoteQuery, err)
		return []string{}
	}

	names := []string{}
	for _, name := range command.Lines(out) {
		if name != "tip" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetNested is always empty: subrepositories are not followed.
func (w *WorkingTree) GetNested() *entities.SubmoduleMap {
	return entities.NewSubmoduleMap()
}

// refs returns "<name> <node>" pairs of one listing as a map.
func (w *WorkingTree) refs(ctx context.Context, subcommand, nameKeyword string) (map[string]string, error) {
	out, err := w.hg(ctx, subcommand, "--template", "{"+nameKeyword+"} {node}\n")
	if err != nil {
		return nil, err
	}
	refs := make(map[string]string)
	for _, line := range command.Lines(out) {
		idx := strings.LastIndex(line, " ")
		if idx <= 0 {
			continue
		}
		refs[line[:idx]] = line[idx+1:]
	}
	return refs, nil
}
