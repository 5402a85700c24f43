package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/domain/repositories"
)

const fullCommitLength = 40

// urlPattern recognizes the spellings used for Git remotes.
var urlPattern = regexp.MustCompile(
	`^(git(\+[a-z]+)?://|ssh://|[A-Za-z0-9._~-]+@[A-Za-z0-9.-]+:)|\.git$|^https?://(www\.)?(github\.com|gitlab\.com|bitbucket\.org)/`,
)

// GitVcsRepository implements repositories.VcsRepository with go-git, so no
// git binary is required.
type GitVcsRepository struct{}

var _ repositories.VcsRepository = (*GitVcsRepository)(nil)

// NewGitVcsRepository creates the Git backend.
func NewGitVcsRepository() *GitVcsRepository {
	return &GitVcsRepository{}
}

func (r *GitVcsRepository) Type() entities.VcsType { return entities.VcsTypeGit }

func (r *GitVcsRepository) Aliases() []string { return []string{"git"} }

func (r *GitVcsRepository) IsApplicableURL(url string) bool {
	return urlPattern.MatchString(strings.TrimRight(strings.TrimSpace(url), "/"))
}

func (r *GitVcsRepository) IsApplicableDirectory(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func (r *GitVcsRepository) GetWorkingTree(dir string) repositories.WorkingTreeRepository {
	return NewWorkingTree(dir)
}

// CloneOrFetch clones url with all tags, or fetches all branches and tags
// into dir when it already holds a valid Git checkout. The checkout itself is
// left to Checkout.
func (r *GitVcsRepository) CloneOrFetch(
	ctx context.Context,
	url, dir string,
) (repositories.WorkingTreeRepository, error) {
	existing := NewWorkingTree(dir)
	if r.IsApplicableDirectory(dir) && existing.IsValid() && samePath(existing.GetRootPath(), dir) {
		return r.fetch(ctx, existing, url)
	}

	logger.Infof("[git] Cloning %s into %s", url, dir)
	repo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:        url,
		RemoteName: defaultRemoteName,
		Tags:       gogit.AllTags,
		NoCheckout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	return newOpenedWorkingTree(dir, repo), nil
}

func (r *GitVcsRepository) fetch(
	ctx context.Context,
	wt *WorkingTree,
	url string,
) (repositories.WorkingTreeRepository, error) {
	repo, _ := wt.open()

	remoteName, err := ensureRemote(repo, url)
	if err != nil {
		return nil, err
	}

	logger.Infof("[git] Fetching %s into %s", url, wt.GetRootPath())
	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remoteName,
		RemoteURL:  url,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remoteName)),
		},
		Tags:  gogit.AllTags,
		Force: true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	return wt, nil
}

// ensureRemote returns the name of the remote pointing at url, creating
// "origin" when the repository has no remote of that name yet.
func ensureRemote(repo *gogit.Repository, url string) (string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("failed to list remotes: %w", err)
	}

	wanted := entities.NormalizeVcsURL(url)
	for _, remote := range remotes {
		cfg := remote.Config()
		for _, u := range cfg.URLs {
			if entities.NormalizeVcsURL(u) == wanted {
				return cfg.Name, nil
			}
		}
	}

	if _, remoteErr := repo.Remote(defaultRemoteName); remoteErr == nil {
		return defaultRemoteName, nil
	}

	if _, createErr := repo.CreateRemote(&config.RemoteConfig{
		Name: defaultRemoteName,
		URLs: []string{url},
	}); createErr != nil {
		return "", fmt.Errorf("failed to create remote %q: %w", defaultRemoteName, createErr)
	}
	return defaultRemoteName, nil
}

// ResolveRevision maps requested to a commit. An empty request resolves to
// the commit the remote HEAD points to, or the local HEAD when the remote
// cannot be asked.
func (r *GitVcsRepository) ResolveRevision(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	requested string,
) (entities.ResolvedRevision, error) {
	gitTree := asWorkingTree(wt)
	repo, err := gitTree.open()
	if err != nil {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: %w", entities.ErrRepositoryNotFound, err)
	}

	if strings.TrimSpace(requested) == "" {
		return r.resolveDefault(ctx, gitTree, repo)
	}

	candidates, err := revisionCandidates(repo, trackingRemote(repo, gitTree.GetRemoteURL()))
	if err != nil {
		return entities.ResolvedRevision{}, err
	}
	return entities.ResolveRevisionName(requested, candidates)
}

func (r *GitVcsRepository) resolveDefault(
	ctx context.Context,
	wt *WorkingTree,
	repo *gogit.Repository,
) (entities.ResolvedRevision, error) {
	if remoteURL := wt.GetRemoteURL(); remoteURL != "" {
		if refs, err := listRemote(ctx, remoteURL); err == nil {
			if hash := remoteHead(refs); !hash.IsZero() {
				if _, commitErr := repo.CommitObject(hash); commitErr == nil {
					return entities.ResolvedRevision{ID: hash.String(), Kind: entities.RevisionKindDefault}, nil
				}
			}
		} else {
			logger.Debugf("[git] %v", err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return entities.ResolvedRevision{}, fmt.Errorf("%w: no default branch: %w", entities.ErrAmbiguousRevision, err)
	}
	return entities.ResolvedRevision{ID: head.Hash().String(), Kind: entities.RevisionKindDefault}, nil
}

// remoteHead returns the commit advertised for HEAD, following a symbolic HEAD.
func remoteHead(refs []*plumbing.Reference) plumbing.Hash {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	head, ok := byName[plumbing.HEAD]
	for hops := 0; ok && head.Type() == plumbing.SymbolicReference && hops < 5; hops++ {
		head, ok = byName[head.Target()]
	}
	if !ok || head.Type() != plumbing.HashReference {
		return plumbing.ZeroHash
	}
	return head.Hash()
}

// trackingRemote returns the name of the remote whose URL is remoteURL.
func trackingRemote(repo *gogit.Repository, remoteURL string) string {
	if remoteURL != "" {
		if remotes, err := repo.Remotes(); err == nil {
			for _, remote := range remotes {
				cfg := remote.Config()
				if len(cfg.URLs) > 0 && cfg.URLs[0] == remoteURL {
					return cfg.Name
				}
			}
		}
	}
	return defaultRemoteName
}

// revisionCandidates collects tags (peeled to commits), the branches of the
// tracking remote and, where the remote has none of that name, local branches.
func revisionCandidates(repo *gogit.Repository, remoteName string) (entities.RevisionCandidates, error) {
	tags := make(map[string]string)
	branches := make(map[string]string)
	local := make(map[string]string)

	refs, err := repo.References()
	if err != nil {
		return entities.RevisionCandidates{}, fmt.Errorf("failed to list references: %w", err)
	}

	remotePrefix := "refs/remotes/" + remoteName + "/"
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsTag():
			tags[name.Short()] = peel(repo, ref.Hash()).String()
		case strings.HasPrefix(name.String(), remotePrefix):
			branches[strings.TrimPrefix(name.String(), remotePrefix)] = ref.Hash().String()
		case name.IsBranch():
			local[strings.TrimPrefix(name.String(), "refs/heads/")] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return entities.RevisionCandidates{}, fmt.Errorf("failed to list references: %w", err)
	}

	for name, id := range local {
		if _, ok := branches[name]; !ok {
			branches[name] = id
		}
	}

	return entities.RevisionCandidates{
		FullCommitLength: fullCommitLength,
		Tags:             tags,
		Branches:         branches,
		CommitExists: func(id string) bool {
			_, commitErr := repo.CommitObject(plumbing.NewHash(id))
			return commitErr == nil
		},
		CommitsWithPrefix: func(prefix string) []string {
			return commitsWithPrefix(repo, prefix)
		},
	}, nil
}

// peel follows annotated tags down to the tagged commit.
func peel(repo *gogit.Repository, hash plumbing.Hash) plumbing.Hash {
	tag, err := repo.TagObject(hash)
	if err != nil {
		return hash
	}
	commit, err := tag.Commit()
	if err != nil {
		return hash
	}
	return commit.Hash
}

func commitsWithPrefix(repo *gogit.Repository, prefix string) []string {
	iter, err := repo.CommitObjects()
	if err != nil {
		return nil
	}
	defer iter.Close()

	var matches []string
	_ = iter.ForEach(func(c *object.Commit) error {
		if id := c.Hash.String(); strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
		return nil
	})
	return matches
}

// Checkout detaches HEAD at the resolved commit, discarding local changes.
// go-git cannot interrupt a running checkout, so ctx is only honored before
// it starts.
func (r *GitVcsRepository) Checkout(
	ctx context.Context,
	wt repositories.WorkingTreeRepository,
	revision entities.ResolvedRevision,
) error {
	repo, err := asWorkingTree(wt).open()
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrRepositoryNotFound, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("checkout of %s not started: %w", revision.ID, ctxErr)
	}

	logger.Debugf("[git] Checking out %s (%s) in %s", revision.ID, revision.Kind, wt.GetRootPath())
	if checkoutErr := worktree.Checkout(&gogit.CheckoutOptions{
		Hash:  plumbing.NewHash(revision.ID),
		Force: true,
	}); checkoutErr != nil {
		return fmt.Errorf("failed to check out %s: %w", revision.ID, checkoutErr)
	}
	return nil
}

func asWorkingTree(wt repositories.WorkingTreeRepository) *WorkingTree {
	if gitTree, ok := wt.(*WorkingTree); ok {
		return gitTree
	}
	return NewWorkingTree(wt.GetWorkingDir())
}
