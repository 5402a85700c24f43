package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/downloader/internal/infrastructure/repositories"
)

// Download is the interface for the download command (single repository).
type Download interface {
	Execute(
		ctx context.Context,
		info entities.VcsInfo,
		targetDir string,
		opts entities.DownloadOptions,
	) (*entities.Provenance, error)
}

// DownloadCommand materializes a descriptor into a directory:
// lock -> clone or fetch -> resolve -> checkout -> submodules -> provenance.
type DownloadCommand struct {
	registry *infraRepos.VcsRegistry
	locker   repositories.LockRepository
}

// NewDownloadCommand creates a new DownloadCommand.
func NewDownloadCommand(
	registry *infraRepos.VcsRegistry,
	locker repositories.LockRepository,
) *DownloadCommand {
	return &DownloadCommand{
		registry: registry,
		locker:   locker,
	}
}

// Execute downloads info into targetDir. The directory stays locked until
// every nested submodule has been downloaded as well.
func (it *DownloadCommand) Execute(
	ctx context.Context,
	info entities.VcsInfo,
	targetDir string,
	opts entities.DownloadOptions,
) (*entities.Provenance, error) {
	requested := info.Normalize()
	if err := requested.Validate(); err != nil {
		return nil, &entities.DownloadError{Descriptor: requested, Op: "validate", Err: err}
	}

	release, err := it.locker.Lock(ctx, targetDir)
	if err != nil {
		return nil, &entities.DownloadError{Descriptor: requested, Op: "lock", Err: err}
	}
	defer release()

	return it.download(ctx, requested, targetDir, opts.WithDefaults(), 0)
}

func (it *DownloadCommand) download(
	ctx context.Context,
	info entities.VcsInfo,
	dir string,
	opts entities.DownloadOptions,
	depth int,
) (*entities.Provenance, error) {
	backend, wt, err := it.materialize(ctx, info, dir, opts)
	if err != nil {
		return nil, &entities.DownloadError{Descriptor: info, Op: "clone", Err: err}
	}
	name := strings.ToLower(backend.Type().String())

	resolveCtx, cancelResolve := context.WithTimeout(ctx, opts.Timeouts.RemoteQuery)
	resolved, err := backend.ResolveRevision(resolveCtx, wt, info.Revision)
	err = withTimeout(resolveCtx, err)
	cancelResolve()
	if err != nil {
		return nil, &entities.DownloadError{Descriptor: info, Op: "resolve", Err: err}
	}

	checkoutCtx, cancelCheckout := context.WithTimeout(ctx, opts.Timeouts.Checkout)
	err = withTimeout(checkoutCtx, backend.Checkout(checkoutCtx, wt, resolved))
	cancelCheckout()
	if err != nil {
		return nil, &entities.DownloadError{Descriptor: info, Op: "checkout", Err: err}
	}
	logger.Infof("[%s] Checked out %s at %q (%s)", name, info.URL, resolved.ID, resolved.Kind)

	if info.Path != "" {
		if _, statErr := os.Stat(filepath.Join(wt.GetRootPath(), filepath.FromSlash(info.Path))); statErr != nil {
			logger.Warnf("[%s] Path %q does not exist in %s at %q", name, info.Path, info.URL, resolved.ID)
		}
	}

	revision := wt.GetRevision()
	if revision == "" {
		revision = resolved.ID
	}
	resolvedInfo := info.WithRevision(revision)
	resolvedInfo.Type = backend.Type()
	provenance := entities.NewProvenance(resolvedInfo)

	submodules, err := it.downloadSubmodules(ctx, wt, opts, depth)
	if err != nil {
		return nil, &entities.DownloadError{Descriptor: info, Op: "submodule", Err: err}
	}
	provenance.Submodules = submodules

	return provenance, nil
}

// materialize clones or fetches info.URL into dir. Without a known type the
// backend already owning dir is tried first, then the registry candidates in
// priority order until one succeeds.
func (it *DownloadCommand) materialize(
	ctx context.Context,
	info entities.VcsInfo,
	dir string,
	opts entities.DownloadOptions,
) (repositories.VcsRepository, repositories.WorkingTreeRepository, error) {
	candidates, err := it.registry.ForInfo(info)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", entities.ErrRepositoryNotFound, err)
	}
	if info.Type.IsUnknown() {
		candidates = preferDirectoryBackend(candidates, it.registry.ForDirectory(dir))
	}

	var errs []error
	for _, backend := range candidates {
		cloneCtx, cancel := context.WithTimeout(ctx, opts.Timeouts.Clone)
		wt, cloneErr := backend.CloneOrFetch(cloneCtx, info.URL, dir)
		cloneErr = withTimeout(cloneCtx, cloneErr)
		cancel()
		if cloneErr == nil {
			return backend, wt, nil
		}

		logger.Debugf("[%s] Failed to materialize %s: %v", strings.ToLower(backend.Type().String()), info.URL, cloneErr)
		errs = append(errs, fmt.Errorf("%s: %w", backend.Type(), cloneErr))
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return nil, nil, fmt.Errorf("%w: no backend registered", entities.ErrRepositoryNotFound)
	}
	return nil, nil, fmt.Errorf("%w: %w", entities.ErrRepositoryNotFound, errors.Join(errs...))
}

func preferDirectoryBackend(
	candidates []repositories.VcsRepository,
	owner repositories.VcsRepository,
) []repositories.VcsRepository {
	if owner == nil {
		return candidates
	}
	result := []repositories.VcsRepository{owner}
	for _, c := range candidates {
		if c != owner {
			result = append(result, c)
		}
	}
	return result
}

// downloadSubmodules downloads the direct submodules of wt one after the
// other and composes the paths of their own submodules below them.
func (it *DownloadCommand) downloadSubmodules(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	opts entities.DownloadOptions,
	depth int,
) (*entities.SubmoduleMap, error) {
	result := entities.NewSubmoduleMap()

	nested := wt.GetNested()
	children := directChildren(nested)
	if len(children) == 0 {
		return result, nil
	}
	if depth+1 > opts.MaxSubmoduleDepth {
		return nil, fmt.Errorf(
			"%w: %s has submodules below depth %d", entities.ErrSubmoduleDepthExceeded, wt.GetRootPath(), opts.MaxSubmoduleDepth,
		)
	}

	for _, subPath := range children {
		info, _ := nested.Get(subPath)
		childDir := filepath.Join(wt.GetRootPath(), filepath.FromSlash(subPath))

		child, err := it.download(ctx, info, childDir, opts, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", subPath, err)
		}

		result.Set(subPath, child.VcsInfo)
		for _, grandChild := range child.Submodules.Paths() {
			grandInfo, _ := child.Submodules.Get(grandChild)
			result.Set(subPath+"/"+grandChild, grandInfo)
		}
	}

	return result, nil
}

// directChildren returns, in discovery order, the paths not nested below
// another path of m.
func directChildren(m *entities.SubmoduleMap) []string {
	paths := m.Paths()
	var result []string
	for _, p := range paths {
		nestedBelowOther := false
		for _, other := range paths {
			if other != p && strings.HasPrefix(p, other+"/") {
				nestedBelowOther = true
				break
			}
		}
		if !nestedBelowOther {
			result = append(result, p)
		}
	}
	return result
}

// withTimeout marks err as a timeout when ctx ran out of time.
func withTimeout(ctx context.Context, err error) error {
	if err == nil || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, entities.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%w: %w", entities.ErrTimeout, err)
}
