//go:build integration

package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/git"
)

type revisionFixture struct {
	dir    string
	first  plumbing.Hash
	second plumbing.Hash
}

// newRevisionFixture creates two commits: "v1.0" (lightweight) and the
// "feature" branch on the first, "v2.0" (annotated) and the default branch on the second.
func newRevisionFixture(t *testing.T) revisionFixture {
	t.Helper()
	dir := t.TempDir()
	repo := initRepository(t, dir)

	first := commitFile(t, repo, "README.md", "v1\n")
	_, err := repo.CreateTag("v1.0", first, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), first),
	))

	second := commitFile(t, repo, "README.md", "v2\n")
	_, err = repo.CreateTag("v2.0", second, &gogit.CreateTagOptions{Tagger: signature(), Message: "release"})
	require.NoError(t, err)

	return revisionFixture{dir: dir, first: first, second: second}
}

func TestGitVcsRepositoryResolveRevision(t *testing.T) {
	t.Parallel()

	backend := git.NewGitVcsRepository()
	ctx := context.Background()

	t.Run("should resolve tags, annotated tags and branches", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)

		// when
		lightweight, errLightweight := backend.ResolveRevision(ctx, wt, "v1.0")
		annotated, errAnnotated := backend.ResolveRevision(ctx, wt, "v2.0")
		branch, errBranch := backend.ResolveRevision(ctx, wt, "feature")

		// then
		require.NoError(t, errLightweight)
		require.NoError(t, errAnnotated)
		require.NoError(t, errBranch)
		assert.Equal(t, entities.ResolvedRevision{Requested: "v1.0", ID: fixture.first.String(), Kind: entities.RevisionKindTag}, lightweight)
		assert.Equal(t, fixture.second.String(), annotated.ID)
		assert.Equal(t, entities.RevisionKindTag, annotated.Kind)
		assert.Equal(t, fixture.first.String(), branch.ID)
		assert.Equal(t, entities.RevisionKindBranch, branch.Kind)
	})

	t.Run("should resolve full and abbreviated commit ids", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)

		// when
		full, errFull := backend.ResolveRevision(ctx, wt, fixture.first.String())
		short, errShort := backend.ResolveRevision(ctx, wt, fixture.second.String()[:12])

		// then
		require.NoError(t, errFull)
		require.NoError(t, errShort)
		assert.Equal(t, entities.RevisionKindCommit, full.Kind)
		assert.Equal(t, fixture.first.String(), full.ID)
		assert.Equal(t, entities.RevisionKindCommit, short.Kind)
		assert.Equal(t, fixture.second.String(), short.ID)
	})

	t.Run("should fall back to the local HEAD for the default revision", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)

		// when
		result, err := backend.ResolveRevision(ctx, wt, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, fixture.second.String(), result.ID)
		assert.Equal(t, entities.RevisionKindDefault, result.Kind)
	})

	t.Run("should fail for unknown revisions", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)

		// when
		_, err := backend.ResolveRevision(ctx, wt, "does-not-exist")

		// then
		require.ErrorIs(t, err, entities.ErrAmbiguousRevision)
	})
}

func TestGitVcsRepositoryCheckout(t *testing.T) {
	t.Parallel()

	t.Run("should detach HEAD at the resolved commit", func(t *testing.T) {
		t.Parallel()

		// given
		backend := git.NewGitVcsRepository()
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)
		resolved, err := backend.ResolveRevision(context.Background(), wt, "v1.0")
		require.NoError(t, err)

		// when
		err = backend.Checkout(context.Background(), wt, resolved)

		// then
		require.NoError(t, err)
		assert.Equal(t, fixture.first.String(), wt.GetRevision())
		content, readErr := os.ReadFile(filepath.Join(fixture.dir, "README.md"))
		require.NoError(t, readErr)
		assert.Equal(t, "v1\n", string(content))
	})

	t.Run("should not start when the deadline already passed", func(t *testing.T) {
		t.Parallel()

		// given
		backend := git.NewGitVcsRepository()
		fixture := newRevisionFixture(t)
		wt := backend.GetWorkingTree(fixture.dir)
		before := wt.GetRevision()
		resolved, err := backend.ResolveRevision(context.Background(), wt, "v1.0")
		require.NoError(t, err)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		// when
		err = backend.Checkout(ctx, wt, resolved)

		// then
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, before, wt.GetRevision())
	})
}

func TestGitVcsRepositoryCloneOrFetch(t *testing.T) {
	t.Parallel()

	t.Run("should clone, check out and report the pinned submodule", func(t *testing.T) {
		t.Parallel()

		// given
		requireGitBinary(t)
		backend := git.NewGitVcsRepository()
		ctx := context.Background()

		libDir := t.TempDir()
		libHead := commitFile(t, initRepository(t, libDir), "lib.txt", "lib\n")

		mainDir := t.TempDir()
		mainRepo := initRepository(t, mainDir)
		commitFile(t, mainRepo, "README.md", "main\n")
		commitFile(t, mainRepo, ".gitmodules", "[submodule \"lib\"]\n\tpath = lib\n\turl = "+libDir+"\n")
		addGitlink(t, mainRepo, "lib", libHead)
		mainHead := commitIndex(t, mainRepo, "add lib")

		target := filepath.Join(t.TempDir(), "checkout")

		// when
		wt, err := backend.CloneOrFetch(ctx, mainDir, target)
		require.NoError(t, err)
		resolved, err := backend.ResolveRevision(ctx, wt, "")
		require.NoError(t, err)
		require.NoError(t, backend.Checkout(ctx, wt, resolved))

		// then
		assert.True(t, wt.IsValid())
		assert.Equal(t, mainHead.String(), wt.GetRevision())
		assert.DirExists(t, filepath.Join(target, "lib"))
		nested := wt.GetNested()
		assert.Equal(t, []string{"lib"}, nested.Paths())
		lib, _ := nested.Get("lib")
		assert.Equal(t, entities.VcsInfo{
			Type:     entities.VcsTypeGit,
			URL:      entities.NormalizeVcsURL(libDir),
			Revision: libHead.String(),
		}, lib)
	})

	t.Run("should fetch into an existing checkout", func(t *testing.T) {
		t.Parallel()

		// given
		requireGitBinary(t)
		backend := git.NewGitVcsRepository()
		ctx := context.Background()
		fixture := newRevisionFixture(t)
		target := filepath.Join(t.TempDir(), "checkout")
		_, err := backend.CloneOrFetch(ctx, fixture.dir, target)
		require.NoError(t, err)

		sourceRepo, err := gogit.PlainOpen(fixture.dir)
		require.NoError(t, err)
		third := commitFile(t, sourceRepo, "CHANGELOG.md", "v3\n")

		// when
		wt, err := backend.CloneOrFetch(ctx, fixture.dir, target)
		require.NoError(t, err)
		resolved, resolveErr := backend.ResolveRevision(ctx, wt, third.String())

		// then
		require.NoError(t, resolveErr)
		assert.Equal(t, entities.RevisionKindCommit, resolved.Kind)
	})
}

func TestGitVcsRepositoryApplicability(t *testing.T) {
	t.Parallel()

	t.Run("should recognize git urls", func(t *testing.T) {
		t.Parallel()

		// given
		backend := git.NewGitVcsRepository()

		// when / then
		assert.True(t, backend.IsApplicableURL("https://github.com/oss/project"))
		assert.True(t, backend.IsApplicableURL("git@example.org:oss/project"))
		assert.True(t, backend.IsApplicableURL("https://example.org/oss/project.git/"))
		assert.False(t, backend.IsApplicableURL("https://svn.example.org/repos/trunk"))
		assert.False(t, backend.IsApplicableURL(":pserver:anonymous@cvs.example.org:/cvsroot/proj"))
	})

	t.Run("should recognize directories holding a .git entry", func(t *testing.T) {
		t.Parallel()

		// given
		backend := git.NewGitVcsRepository()
		repoDir := t.TempDir()
		initRepository(t, repoDir)

		// when / then
		assert.True(t, backend.IsApplicableDirectory(repoDir))
		assert.False(t, backend.IsApplicableDirectory(t.TempDir()))
	})
}
