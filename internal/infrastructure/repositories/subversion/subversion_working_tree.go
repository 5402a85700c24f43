package subversion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
)

const binary = "svn"

// WorkingTree implements repositories.WorkingTreeRepository for Subversion
// working copies through the svn command-line tool.
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

// rootDir returns the nearest directory holding the working copy database, or "".
func (w *WorkingTree) rootDir() string {
	w.once.Do(func() {
		dir, err := filepath.Abs(w.workingDir)
		if err != nil {
			return
		}
		for {
			if _, statErr := os.Stat(filepath.Join(dir, ".svn", "wc.db")); statErr == nil {
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

func (w *WorkingTree) svn(ctx context.Context, args ...string) (string, error) {
	return w.runner.Run(ctx, command.Command{
		Dir:  w.rootDir(),
		Name: binary,
		Args: append([]string{"--non-interactive"}, args...),
		Env:  []string{"LC_ALL=C"},
	})
}

// info returns one item of "svn info" for the working copy root.
func (w *WorkingTree) info(item string) string {
	if !w.IsValid() {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), command.LocalQueryTimeout)
	defer cancel()
	out, err := w.svn(ctx, "info", "--show-item", item)
	if err != nil {
		logger.Debugf("[svn] %v", err)
		return ""
	}
	return strings.TrimSpace(out)
}

func (w *WorkingTree) GetType() entities.VcsType { return entities.VcsTypeSubversion }

func (w *WorkingTree) GetWorkingDir() string { return w.workingDir }

func (w *WorkingTree) IsValid() bool {
	return w.rootDir() != ""
}

// IsShallow is always false: a working copy never holds history.
func (w *WorkingTree) IsShallow() bool { return false }

// GetRevision returns the revision number the working copy was updated to.
func (w *WorkingTree) GetRevision() string {
	return w.info("revision")
}

// GetRemoteURL returns the URL the working copy is checked out from, which
// includes the trunk, branch or tag directory.
func (w *WorkingTree) GetRemoteURL() string {
	return w.info("url")
}

func (w *WorkingTree) GetRootPath() string {
	if root := w.rootDir(); root != "" {
		return root
	}
	return w.workingDir
}

func (w *WorkingTree) ListRemoteBranches(ctx context.Context) []string {
	return w.listNames(ctx, "^/branches")
}

func (w *WorkingTree) ListRemoteTags(ctx context.Context) []string {
	return w.listNames(ctx, "^/tags")
}

func (w *WorkingTree) listNames(ctx context.Context, location string) []string {
	if !w.IsValid() {
		return []string{}
	}
	entries, err := w.list(ctx, location)
	if err != nil {
		logger.Warnf("[svn] %v: %v", entities.ErrRemoteQuery, err)
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

// GetNested is always empty: externals are not followed.
func (w *WorkingTree) GetNested() *entities.SubmoduleMap {
	return entities.NewSubmoduleMap()
}

type listEntry struct {
	name     string
	revision string
}

// list returns the directories below location with their last changed revision.
func (w *WorkingTree) list(ctx context.Context, location string) ([]listEntry, error) {
	out, err := w.svn(ctx, "list", "--verbose", location)
	if err != nil {
		return nil, err
	}
	return parseVerboseList(out), nil
}

// parseVerboseList reads "svn list --verbose" lines such as
// "   1234 alice        Jan 02 15:04 1.0/" and keeps the directories.
// Directories carry no size, so the name starts at the sixth field.
func parseVerboseList(out string) []listEntry {
	const nameField = 5

	var entries []listEntry
	for _, line := range command.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) <= nameField {
			continue
		}
		name := strings.Join(fields[nameField:], " ")
		if !strings.HasSuffix(name, "/") || name == "./" {
			continue
		}
		entries = append(entries, listEntry{name: strings.TrimSuffix(name, "/"), revision: fields[0]})
	}
	return entries
}
