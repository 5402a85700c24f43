package cvs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
)

// rootMethods are the access methods a CVSROOT may start with.
var rootMethods = []string{":pserver:", ":ext:", ":local:", ":gserver:", ":sspi:", ":fork:"} //nolint:gochecknoglobals // read-only lookup table

// CvsVcsRepository implements repositories.VcsRepository with the cvs
// binary. URLs have the form "<CVSROOT>/<module>".
type CvsVcsRepository struct {
	runner command.Runner
}

var _ repositories.VcsRepository = (*CvsVcsRepository)(nil)

// NewCvsVcsRepository creates the CVS backend.
func NewCvsVcsRepository(runner command.Runner) *CvsVcsRepository {
	return &CvsVcsRepository{runner: runner}
}

func (r *CvsVcsRepository) Type() entities.VcsType { return entities.VcsTypeCvs }

func (r *CvsVcsRepository) Aliases() []string { return []string{"cvs"} }

func (r *CvsVcsRepository) IsApplicableURL(url string) bool {
	url = strings.TrimSpace(url)
	for _, method := range rootMethods {
		if strings.HasPrefix(url, method) {
			return true
		}
	}
	return false
}

func (r *CvsVcsRepository) IsApplicableDirectory(dir string) bool {
	return hasAdminFiles(dir)
}

func (r *CvsVcsRepository) GetWorkingTree(dir string) repositories.WorkingTreeRepository {
	return NewWorkingTree(dir, r.runner)
}

// JoinURL builds the URL of module below root.
func JoinURL(root, module string) string {
	return strings.TrimRight(root, "/") + "/" + strings.Trim(module, "/")
}

// SplitURL splits "<CVSROOT>/<module>" at its last slash.
func SplitURL(url string) (string, string, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	i := strings.LastIndex(url, "/")
	if i <= 0 || i == len(url)-1 || !strings.Contains(url[:i], ":") {
		return "", "", fmt.Errorf("%w: %q is not of the form <CVSROOT>/<module>", entities.ErrInvalidDescriptor, url)
	}
	return url[:i], url[i+1:], nil
}

// CloneOrFetch checks the module out into dir. An existing checkout is left
// alone: CVS has no history to fetch and Checkout talks to the server.
func (r *CvsVcsRepository) CloneOrFetch(
	ctx context.Context,
	url, dir string,
) (repositories.WorkingTreeRepository, error) {
	wt := NewWorkingTree(dir, r.runner)
	if r.IsApplicableDirectory(dir) && wt.IsValid() {
		logger.Debugf("[cvs] Reusing checkout %s", dir)
		return wt, nil
	}

	root, module, err := SplitURL(url)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	parent := filepath.Dir(absDir)
	if mkdirErr := os.MkdirAll(parent, 0o750); mkdirErr != nil { //nolint:mnd // directory permissions
		return nil, fmt.Errorf("failed to create %s: %w", parent, mkdirErr)
	}

	logger.Infof("[cvs] Checking out %s into %s", url, dir)
	if _, runErr := r.runner.Run(ctx, command.Command{
		Dir:  parent,
		Name: binary,
		Args: []string{"-q", "-d", root, "checkout", "-d", filepath.Base(absDir), module},
	}); runErr != nil {
		return nil, fmt.Errorf("failed to check out %s: %w", url, runErr)
	}
	return NewWorkingTree(dir, r.runner), nil
}

// ResolveRevision maps requested to a symbolic name. The empty request is
// the trunk head, which has no name.
func (r *CvsVcsRepository) ResolveRevision(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	requested string,
) (entities.ResolvedRevision, error) {
	cvsTree := r.asWorkingTree(wt)
	if !cvsTree.IsValid() {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: %s", entities.ErrRepositoryNotFound, wt.GetWorkingDir())
	}

	if strings.TrimSpace(requested) == "" {
		return entities.ResolvedRevision{ID: "", Kind: entities.RevisionKindDefault}, nil
	}

	tags, branches, err := cvsTree.symbolicNames(ctx)
	if err != nil {
		return entities.ResolvedRevision{}, fmt.Errorf("failed to list symbolic names: %w", err)
	}

	return entities.ResolveRevisionName(requested, entities.RevisionCandidates{
		Tags:     tags,
		Branches: branches,
	})
}

// Checkout updates the checkout to the resolved name, reverting local
// changes. The trunk head clears any sticky tag.
func (r *CvsVcsRepository) Checkout(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	revision entities.ResolvedRevision,
) error {
	cvsTree := r.asWorkingTree(wt)

	args := []string{"update", "-d", "-P", "-C"}
	if revision.ID == "" {
		args = append(args, "-A")
	} else {
		args = append(args, "-r", revision.ID)
	}

	logger.Debugf("[cvs] Updating %s to %q (%s)", cvsTree.GetRootPath(), revision.ID, revision.Kind)
	if _, err := cvsTree.cvs(ctx, args...); err != nil {
		return fmt.Errorf("failed to update to %q: %w", revision.ID, err)
	}
	return nil
}

func (r *CvsVcsRepository) asWorkingTree(wt repositories.WorkingTreeRepository) *WorkingTree {
	if cvsTree, ok := wt.(*WorkingTree); ok {
		return cvsTree
	}
	return NewWorkingTree(wt.GetWorkingDir(), r.runner)
}
