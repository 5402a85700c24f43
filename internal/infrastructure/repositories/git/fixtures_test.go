//go:build integration

package git_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func signature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.org", When: time.Unix(1700000000, 0)}
}

func initRepository(t *testing.T, dir string) *gogit.Repository {
	t.Helper()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return repo
}

// commitFile writes name with content, stages it and commits.
func commitFile(t *testing.T, repo *gogit.Repository, name, content string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	path := filepath.Join(wt.Filesystem.Root(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("update "+name, &gogit.CommitOptions{Author: signature()})
	require.NoError(t, err)
	return hash
}

// addGitlink records a submodule commit in the index, the way "git submodule add" does.
func addGitlink(t *testing.T, repo *gogit.Repository, path string, hash plumbing.Hash) {
	t.Helper()
	idx, err := repo.Storer.Index()
	require.NoError(t, err)

	idx.Entries = append(idx.Entries, &index.Entry{Name: path, Hash: hash, Mode: filemode.Submodule})
	sort.Slice(idx.Entries, func(i, j int) bool { return idx.Entries[i].Name < idx.Entries[j].Name })
	require.NoError(t, repo.Storer.SetIndex(idx))
}

func commitIndex(t *testing.T, repo *gogit.Repository, message string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: signature()})
	require.NoError(t, err)
	return hash
}

func addRemote(t *testing.T, repo *gogit.Repository, name, url string) {
	t.Helper()
	_, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(t, err)
}

// requireGitBinary skips tests cloning over the local transport, which runs git-upload-pack.
func requireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available for the local transport")
	}
}
