package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/downloader/internal/infrastructure/repositories"
)

// Inspect is the interface for the inspect command (existing checkouts).
type Inspect interface {
	Execute(ctx context.Context, opts InspectOptions) (*entities.WorkingTreeReport, error)
}

// InspectOptions holds runtime options for the inspect mode.
type InspectOptions struct {
	Dir     string
	Remote  bool          // also list remote branches and tags
	Timeout time.Duration // bounds the remote listings
}

// InspectCommand reports what an existing directory holds, without
// touching it.
type InspectCommand struct {
	registry *infraRepos.VcsRegistry
}

// NewInspectCommand creates a new InspectCommand.
func NewInspectCommand(registry *infraRepos.VcsRegistry) *InspectCommand {
	return &InspectCommand{registry: registry}
}

// Execute is the entry point for the inspect mode.
func (it *InspectCommand) Execute(ctx context.Context, opts InspectOptions) (*entities.WorkingTreeReport, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	backend, owner := findBackend(it.registry, dir)
	if backend == nil {
		return nil, fmt.Errorf("%w: no checkout found at %s", entities.ErrRepositoryNotFound, dir)
	}

	wt := backend.GetWorkingTree(owner)
	report := &entities.WorkingTreeReport{
		Directory:  dir,
		Root:       wt.GetRootPath(),
		Valid:      wt.IsValid(),
		Submodules: entities.NewSubmoduleMap(),
	}
	if !report.Valid {
		logger.Warnf("Found %s metadata in %s, but the repository is not usable", backend.Type(), report.Root)
		report.VcsInfo = entities.VcsInfo{Type: backend.Type()}
		return report, nil
	}

	report.Shallow = wt.IsShallow()
	report.VcsInfo = repositories.WorkingTreeInfo(wt)
	report.VcsInfo.Path = repositories.PathToRoot(wt, dir)
	report.Submodules = wt.GetNested()
	logger.Infof("Detected %s checkout of %q at %q", backend.Type(), report.VcsInfo.URL, report.VcsInfo.Revision)

	if opts.Remote {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = entities.DefaultRemoteQueryTimeout
		}
		remoteCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		report.Branches = wt.ListRemoteBranches(remoteCtx)
		report.Tags = wt.ListRemoteTags(remoteCtx)
		entities.SortVersionsDescending(report.Tags)
	}

	return report, nil
}

// findBackend probes dir and its parents, so that a directory inside a
// checkout is recognized as well. It also returns the directory that matched.
func findBackend(registry *infraRepos.VcsRegistry, dir string) (repositories.VcsRepository, string) {
	for {
		if backend := registry.ForDirectory(dir); backend != nil {
			return backend, dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ""
		}
		dir = parent
	}
}
