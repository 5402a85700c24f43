//go:build unit

package cvs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/cvs"
	doubles "github.com/rios0rios0/downloader/test/infrastructure/repositorydoubles"
)

const (
	cvsRoot   = ":pserver:anonymous@cvs.example.org:/cvsroot"
	moduleURL = cvsRoot + "/tools"
	rlogCmd   = "cvs -q -d " + cvsRoot + " rlog -h tools"
)

const rlogOutput = `
RCS file: /cvsroot/tools/main.c,v
head: 1.4
branch:
locks: strict
access list:
symbolic names:
	REL_1_0: 1.2
	STABLE: 1.3.0.2
	VENDOR: 1.1.1
	start: 1.1.1.1
keyword substitution: kv
total revisions: 5
=============================================================================

RCS file: /cvsroot/tools/util.c,v
head: 1.1
symbolic names:
	REL_1_0: 1.1
	REL_2_0: 1.1
keyword substitution: kv
`

// writeAdminFiles creates the CVS administrative directory of dir.
func writeAdminFiles(t *testing.T, dir, repository, tag string) {
	t.Helper()
	admin := filepath.Join(dir, "CVS")
	require.NoError(t, os.MkdirAll(admin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(admin, "Root"), []byte(cvsRoot+"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(admin, "Repository"), []byte(repository+"\n"), 0o600))
	if tag != "" {
		require.NoError(t, os.WriteFile(filepath.Join(admin, "Tag"), []byte(tag+"\n"), 0o600))
	}
}

func newCheckoutDir(t *testing.T, tag string) string {
	t.Helper()
	dir := t.TempDir()
	writeAdminFiles(t, dir, "tools", tag)
	writeAdminFiles(t, filepath.Join(dir, "src"), "/cvsroot/tools/src", tag)
	return dir
}

func TestCvsWorkingTree(t *testing.T) {
	t.Parallel()

	t.Run("should degrade without running cvs for a plain directory", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{})
		wt := cvs.NewWorkingTree(t.TempDir(), runner)

		// when / then
		assert.False(t, wt.IsValid())
		assert.False(t, wt.IsShallow())
		assert.Empty(t, wt.GetRevision())
		assert.Empty(t, wt.GetRemoteURL())
		assert.Empty(t, wt.ListRemoteBranches(context.Background()))
		assert.Empty(t, wt.ListRemoteTags(context.Background()))
		assert.Equal(t, 0, wt.GetNested().Len())
		assert.Empty(t, runner.Calls)
	})

	t.Run("should read root, remote and sticky tag from the administrative files", func(t *testing.T) {
		t.Parallel()

		// given
		dir := newCheckoutDir(t, "NREL_1_0")
		wt := cvs.NewWorkingTree(filepath.Join(dir, "src"), doubles.NewStubCommandRunner(map[string]string{}))

		// when
		root := wt.GetRootPath()

		// then
		assert.Equal(t, dir, root)
		assert.True(t, wt.IsValid())
		assert.Equal(t, "REL_1_0", wt.GetRevision())
		assert.Equal(t, moduleURL, wt.GetRemoteURL())
	})

	t.Run("should report no revision on the trunk", func(t *testing.T) {
		t.Parallel()

		// given
		wt := cvs.NewWorkingTree(newCheckoutDir(t, ""), doubles.NewStubCommandRunner(map[string]string{}))

		// when / then
		assert.Empty(t, wt.GetRevision())
	})

	t.Run("should list branches and tags from the symbolic names", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{rlogCmd: rlogOutput})
		wt := cvs.NewWorkingTree(newCheckoutDir(t, ""), runner)

		// when
		branches := wt.ListRemoteBranches(context.Background())
		tags := wt.ListRemoteTags(context.Background())

		// then
		assert.Equal(t, []string{"STABLE", "VENDOR"}, branches)
		assert.Equal(t, []string{"REL_1_0", "REL_2_0", "start"}, tags)
	})

	t.Run("should swallow listing failures", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{})
		runner.Errors[rlogCmd] = errors.New("connection refused")
		wt := cvs.NewWorkingTree(newCheckoutDir(t, ""), runner)

		// when / then
		assert.Empty(t, wt.ListRemoteTags(context.Background()))
		assert.Empty(t, wt.ListRemoteBranches(context.Background()))
	})
}

func TestSplitURL(t *testing.T) {
	t.Parallel()

	t.Run("should split the module off the CVSROOT", func(t *testing.T) {
		t.Parallel()

		// given / when
		root, module, err := cvs.SplitURL(moduleURL + "/")

		// then
		require.NoError(t, err)
		assert.Equal(t, cvsRoot, root)
		assert.Equal(t, "tools", module)
		assert.Equal(t, moduleURL, cvs.JoinURL(root, module))
	})

	t.Run("should reject a URL without a module", func(t *testing.T) {
		t.Parallel()

		// given / when
		_, _, err := cvs.SplitURL("tools")

		// then
		require.ErrorIs(t, err, entities.ErrInvalidDescriptor)
	})
}

func TestCvsVcsRepository(t *testing.T) {
	t.Parallel()

	t.Run("should check out a missing directory from its parent", func(t *testing.T) {
		t.Parallel()

		// given
		parent := t.TempDir()
		dir := filepath.Join(parent, "nested", "tools")
		runner := doubles.NewStubCommandRunner(map[string]string{
			"cvs -q -d " + cvsRoot + " checkout -d tools tools": "",
		})
		backend := cvs.NewCvsVcsRepository(runner)

		// when
		wt, err := backend.CloneOrFetch(context.Background(), moduleURL, dir)

		// then
		require.NoError(t, err)
		assert.Equal(t, dir, wt.GetWorkingDir())
		require.Len(t, runner.Calls, 1)
		assert.Equal(t, filepath.Join(parent, "nested"), runner.Calls[0].Dir)
	})

	t.Run("should reuse an existing checkout without contacting the server", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{})
		backend := cvs.NewCvsVcsRepository(runner)

		// when
		wt, err := backend.CloneOrFetch(context.Background(), moduleURL, newCheckoutDir(t, ""))

		// then
		require.NoError(t, err)
		assert.True(t, wt.IsValid())
		assert.Empty(t, runner.Calls)
	})

	t.Run("should resolve tags before branches and the default to the trunk", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{rlogCmd: rlogOutput})
		backend := cvs.NewCvsVcsRepository(runner)
		wt := backend.GetWorkingTree(newCheckoutDir(t, ""))

		// when
		tag, tagErr := backend.ResolveRevision(context.Background(), wt, "REL_1_0")
		branch, branchErr := backend.ResolveRevision(context.Background(), wt, "STABLE")
		trunk, trunkErr := backend.ResolveRevision(context.Background(), wt, "")
		_, unknownErr := backend.ResolveRevision(context.Background(), wt, "missing")

		// then
		require.NoError(t, tagErr)
		assert.Equal(t, entities.ResolvedRevision{Requested: "REL_1_0", ID: "REL_1_0", Kind: entities.RevisionKindTag}, tag)
		require.NoError(t, branchErr)
		assert.Equal(t, entities.RevisionKindBranch, branch.Kind)
		require.NoError(t, trunkErr)
		assert.Equal(t, entities.ResolvedRevision{ID: "", Kind: entities.RevisionKindDefault}, trunk)
		require.ErrorIs(t, unknownErr, entities.ErrAmbiguousRevision)
	})

	t.Run("should update to a tag or clear the sticky tag for the trunk", func(t *testing.T) {
		t.Parallel()

		// given
		runner := doubles.NewStubCommandRunner(map[string]string{
			"cvs -q update -d -P -C -r REL_1_0": "",
			"cvs -q update -d -P -C -A":         "",
		})
		backend := cvs.NewCvsVcsRepository(runner)
		wt := backend.GetWorkingTree(newCheckoutDir(t, ""))

		// when
		tagErr := backend.Checkout(context.Background(), wt, entities.ResolvedRevision{ID: "REL_1_0", Kind: entities.RevisionKindTag})
		trunkErr := backend.Checkout(context.Background(), wt, entities.ResolvedRevision{Kind: entities.RevisionKindDefault})

		// then
		require.NoError(t, tagErr)
		require.NoError(t, trunkErr)
		assert.Equal(t, []string{"cvs -q update -d -P -C -r REL_1_0", "cvs -q update -d -P -C -A"}, runner.CommandLines())
	})

	t.Run("should only claim CVSROOT URLs", func(t *testing.T) {
		t.Parallel()

		// given
		backend := cvs.NewCvsVcsRepository(doubles.NewStubCommandRunner(map[string]string{}))

		// when / then
		assert.True(t, backend.IsApplicableURL(moduleURL))
		assert.True(t, backend.IsApplicableURL(":ext:dev@cvs.example.org:/cvs/tools"))
		assert.False(t, backend.IsApplicableURL("https://github.com/example/tools.git"))
	})
}
