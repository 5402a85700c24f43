package cvs

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

const binary = "cvs"

// WorkingTree implements repositories.WorkingTreeRepository for CVS
// checkouts. Local queries read the CVS administrative files directly.
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

// rootDir returns the outermost directory of the checkout, or "". Every
// directory of a CVS checkout has its own CVS administrative directory.
func (w *WorkingTree) rootDir() string {
	w.once.Do(func() {
		dir, err := filepath.Abs(w.workingDir)
		if err != nil || !hasAdminFiles(dir) {
			return
		}
		for {
			parent := filepath.Dir(dir)
			if parent == dir || !hasAdminFiles(parent) {
				break
			}
			dir = parent
		}
		w.root = dir
	})
	return w.root
}

func hasAdminFiles(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "CVS", "Root"))
	return err == nil
}

func (w *WorkingTree) readAdminFile(name string) string {
	root := w.rootDir()
	if root == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(root, "CVS", name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (w *WorkingTree) cvs(ctx context.Context, args ...string) (string, error) {
	return w.runner.Run(ctx, command.Command{
		Dir:  w.rootDir(),
		Name: binary,
		Args: append([]string{"-q"}, args...),
	})
}

func (w *WorkingTree) GetType() entities.VcsType { return entities.VcsTypeCvs }

func (w *WorkingTree) GetWorkingDir() string { return w.workingDir }

func (w *WorkingTree) IsValid() bool {
	return w.readAdminFile("Root") != "" && w.readAdminFile("Repository") != ""
}

// IsShallow is always false: a checkout never holds history.
func (w *WorkingTree) IsShallow() bool { return false }

// GetRevision returns the sticky tag of the checkout root, or "" for the trunk head.
func (w *WorkingTree) GetRevision() string {
	tag := w.readAdminFile("Tag")
	if len(tag) < 2 { //nolint:mnd // type letter plus name
		return ""
	}
	switch tag[0] {
	case 'T', 'N', 'D':
		return tag[1:]
	default:
		return ""
	}
}

// GetRemoteURL returns "<CVSROOT>/<module>".
func (w *WorkingTree) GetRemoteURL() string {
	if !w.IsValid() {
		return ""
	}
	return JoinURL(w.readAdminFile("Root"), w.module())
}

// module returns the repository path of the checkout relative to CVSROOT.
func (w *WorkingTree) module() string {
	root := w.readAdminFile("Root")
	repository := w.readAdminFile("Repository")
	if strings.HasPrefix(repository, "/") {
		rootPath := root[strings.LastIndex(root, ":")+1:]
		repository = strings.TrimPrefix(strings.TrimPrefix(repository, rootPath), "/")
	}
	return repository
}

func (w *WorkingTree) GetRootPath() string {
	if root := w.rootDir(); root != "" {
		return root
	}
	return w.workingDir
}

func (w *WorkingTree) ListRemoteBranches(ctx context.Context) []string {
	_, branches := w.listNames(ctx)
	return branches
}

func (w *WorkingTree) ListRemoteTags(ctx context.Context) []string {
	tags, _ := w.listNames(ctx)
	return tags
}

func (w *WorkingTree) listNames(ctx context.Context) ([]string, []string) {
	if !w.IsValid() {
		return []string{}, []string{}
	}
	tags, branches, err := w.symbolicNames(ctx)
	if err != nil {
		logger.Warnf("[cvs] %v: %v", entities.ErrRemoteQuery, err)
		return []string{}, []string{}
	}
	return sortedKeys(tags), sortedKeys(branches)
}

// symbolicNames asks the server for the tags and branches of the module.
func (w *WorkingTree) symbolicNames(ctx context.Context) (map[string]string, map[string]string, error) {
	out, err := w.cvs(ctx, "-d", w.readAdminFile("Root"), "rlog", "-h", w.module())
	if err != nil {
		return nil, nil, err
	}
	tags, branches := ParseSymbolicNames(out)
	return tags, branches, nil
}

// GetNested is always empty: CVS has no nested repositories.
func (w *WorkingTree) GetNested() *entities.SubmoduleMap {
	return entities.NewSubmoduleMap()
}

// ParseSymbolicNames reads the "symbolic names:" sections of "cvs rlog -h"
// output. Names pointing at a magic branch number (x.y.0.z) or a vendor
// branch (odd number of components) are branches, all others are tags.
func ParseSymbolicNames(out string) (map[string]string, map[string]string) {
	tags := make(map[string]string)
	branches := make(map[string]string)

	inNames := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "symbolic names:") {
			inNames = true
			continue
		}
		if !inNames {
			continue
		}
		if line == "" || (line[0] != '\t' && line[0] != ' ') {
			inNames = false
			continue
		}

		name, revision, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		name, revision = strings.TrimSpace(name), strings.TrimSpace(revision)
		if isBranchNumber(revision) {
			branches[name] = name
		} else {
			tags[name] = name
		}
	}

	return tags, branches
}

func isBranchNumber(revision string) bool {
	parts := strings.Split(revision, ".")
	if len(parts)%2 == 1 {
		return true
	}
	return len(parts) >= 4 && parts[len(parts)-2] == "0"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
