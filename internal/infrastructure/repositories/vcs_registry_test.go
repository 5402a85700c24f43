//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	domainRepos "github.com/rios0rios0/downloader/internal/domain/repositories"
	"github.com/rios0rios0/downloader/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/downloader/test/infrastructure/repositorydoubles"
)

func newSpyRegistry() (*repositories.VcsRegistry, *doubles.SpyVcsRepository, *doubles.SpyVcsRepository, *doubles.SpyVcsRepository) {
	git := doubles.NewSpyVcsRepository(entities.VcsTypeGit)
	git.AliasNames = []string{"git"}
	hg := doubles.NewSpyVcsRepository(entities.VcsTypeMercurial)
	hg.AliasNames = []string{"hg", "mercurial"}
	svn := doubles.NewSpyVcsRepository(entities.VcsTypeSubversion)
	svn.AliasNames = []string{"svn", "subversion"}

	registry := repositories.NewVcsRegistry()
	registry.Register(git)
	registry.Register(hg)
	registry.Register(svn)
	return registry, git, hg, svn
}

func TestVcsRegistry_ForType(t *testing.T) {
	t.Parallel()

	t.Run("should find backends by type name or alias ignoring case", func(t *testing.T) {
		t.Parallel()

		// given
		registry, git, hg, _ := newSpyRegistry()

		// when
		byName, nameErr := registry.ForType("GIT")
		byAlias, aliasErr := registry.ForType(" Hg ")

		// then
		require.NoError(t, nameErr)
		require.NoError(t, aliasErr)
		assert.Same(t, git, byName)
		assert.Same(t, hg, byAlias)
	})

	t.Run("should fail for an unregistered type", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, _, _ := newSpyRegistry()

		// when
		backend, err := registry.ForType("bazaar")

		// then
		require.ErrorIs(t, err, repositories.ErrUnknownVcsType)
		assert.Nil(t, backend)
	})
}

func TestVcsRegistry_ForDirectory(t *testing.T) {
	t.Parallel()

	t.Run("should break ties by registration order", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, hg, svn := newSpyRegistry()
		hg.DirMatch = true
		svn.DirMatch = true

		// when
		backend := registry.ForDirectory(t.TempDir())

		// then
		assert.Same(t, hg, backend)
	})

	t.Run("should return nil when no backend recognizes the directory", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, _, _ := newSpyRegistry()

		// when
		backend := registry.ForDirectory(t.TempDir())

		// then
		assert.Nil(t, backend)
	})
}

func TestVcsRegistry_ForInfo(t *testing.T) {
	t.Parallel()

	t.Run("should return exactly the backend of a known type", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, _, svn := newSpyRegistry()

		// when
		backends, err := registry.ForInfo(entities.VcsInfo{Type: entities.VcsTypeSubversion, URL: "https://svn.example.org/repo"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []domainRepos.VcsRepository{svn}, backends)
	})

	t.Run("should put URL matches first for an unknown type", func(t *testing.T) {
		t.Parallel()

		// given
		registry, git, hg, svn := newSpyRegistry()
		svn.URLMatch = true

		// when
		backends, err := registry.ForInfo(entities.VcsInfo{URL: "https://svn.example.org/repo"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []domainRepos.VcsRepository{svn, git, hg}, backends)
	})

	t.Run("should fail for a type without backend", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, _, _ := newSpyRegistry()

		// when
		_, err := registry.ForInfo(entities.VcsInfo{Type: entities.VcsTypeCvs, URL: ":pserver:cvs.example.org:/cvs/m"})

		// then
		require.ErrorIs(t, err, repositories.ErrUnknownVcsType)
	})
}

func TestVcsRegistry_Names(t *testing.T) {
	t.Parallel()

	t.Run("should list types in registration order", func(t *testing.T) {
		t.Parallel()

		// given
		registry, _, _, _ := newSpyRegistry()

		// when
		names := registry.Names()

		// then
		assert.Equal(t, []string{"Git", "Mercurial", "Subversion"}, names)
	})
}
