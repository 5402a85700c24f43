package git

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// maxNestingDepth bounds the recursion into nested checkouts.
const maxNestingDepth = 16

var errNestingTooDeep = fmt.Errorf("submodules nested deeper than %d levels", maxNestingDepth)

// nested lists the gitlinks of the index in index order, then descends into
// every submodule that is checked out as a repository of its own.
func (w *WorkingTree) nested(depth int) (*entities.SubmoduleMap, error) {
	if depth > maxNestingDepth {
		return nil, errNestingTooDeep
	}

	repo, err := w.open()
	if err != nil {
		return nil, err
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	result := entities.NewSubmoduleMap()

	var urls map[string]string
	parentRemote := ""
	for _, entry := range idx.Entries {
		if entry.Mode != filemode.Submodule {
			continue
		}

		subPath := entry.Name
		if escapes(subPath) {
			return nil, fmt.Errorf("submodule path %q escapes the repository", subPath)
		}

		if urls == nil {
			if urls, err = w.submoduleURLs(); err != nil {
				return nil, err
			}
			parentRemote = w.GetRemoteURL()
		}
		rawURL, ok := urls[subPath]
		if !ok {
			return nil, fmt.Errorf("submodule %q has no configured url", subPath)
		}

		result.Set(subPath, entities.VcsInfo{
			Type:     entities.VcsTypeGit,
			URL:      entities.NormalizeVcsURL(resolveSubmoduleURL(parentRemote, rawURL)),
			Revision: entry.Hash.String(),
			Path:     "",
		})

		children, childErr := w.nestedChildren(subPath, depth)
		if childErr != nil {
			return nil, childErr
		}
		for _, childPath := range children.Paths() {
			info, _ := children.Get(childPath)
			result.Set(subPath+"/"+childPath, info)
		}
	}

	return result, nil
}

// nestedChildren returns the submodules of the checkout at subPath. An
// uninitialized submodule has no children.
func (w *WorkingTree) nestedChildren(subPath string, depth int) (*entities.SubmoduleMap, error) {
	dir := filepath.Join(w.rootDir, filepath.FromSlash(subPath))
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return entities.NewSubmoduleMap(), nil
	}

	child := NewWorkingTree(dir)
	if _, err := child.open(); err != nil {
		return entities.NewSubmoduleMap(), nil //nolint:nilerr // not initialized yet
	}
	if !samePath(child.rootDir, dir) {
		return entities.NewSubmoduleMap(), nil
	}

	return child.nested(depth + 1)
}

// submoduleURLs maps submodule paths to URLs. Entries of the repository
// configuration override the ones of .gitmodules.
func (w *WorkingTree) submoduleURLs() (map[string]string, error) {
	urls := make(map[string]string)

	data, err := os.ReadFile(filepath.Join(w.rootDir, ".gitmodules"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .gitmodules: %w", err)
	}
	if err == nil {
		modules := config.NewModules()
		if unmarshalErr := modules.Unmarshal(data); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse .gitmodules: %w", unmarshalErr)
		}
		for _, sub := range modules.Submodules {
			urls[path.Clean(sub.Path)] = sub.URL
		}
	}

	cfg, err := w.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	for name, sub := range cfg.Submodules {
		if sub.URL == "" {
			continue
		}
		// .git/config only carries the name, which is the path unless .gitmodules renamed it
		subPath := name
		if sub.Path != "" {
			subPath = sub.Path
		}
		urls[path.Clean(subPath)] = sub.URL
	}

	return urls, nil
}

// resolveSubmoduleURL resolves "./" and "../" submodule URLs against the
// remote of the parent repository.
func resolveSubmoduleURL(parentRemote, raw string) string {
	if !strings.HasPrefix(raw, "./") && !strings.HasPrefix(raw, "../") {
		return raw
	}
	if parentRemote == "" {
		return raw
	}

	base := entities.NormalizeVcsURL(parentRemote)
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" {
		return filepath.Join(parentRemote, raw)
	}
	parsed.Path = path.Join(parsed.Path, raw)
	return parsed.String()
}

func escapes(p string) bool {
	cleaned := path.Clean(p)
	return path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return false
	}
	if evalA, err := filepath.EvalSymlinks(absA); err == nil {
		absA = evalA
	}
	if evalB, err := filepath.EvalSymlinks(absB); err == nil {
		absB = evalB
	}
	return absA == absB
}
