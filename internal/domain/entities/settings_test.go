//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "downloader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

//nolint:tparallel // some subtests use t.Setenv which is incompatible with t.Parallel on parent
func TestNewSettings(t *testing.T) {
	t.Run("should load projects and expand environment variables", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("TEST_DOWNLOADER_STORAGE", "/srv/sources")
		path := writeConfig(t, `
storage_path: ${TEST_DOWNLOADER_STORAGE}
concurrency: 3
timeouts:
  clone: 5m
projects:
  - name: lib
    type: git
    url: https://github.com/oss/lib
    revision: v1.0
  - name: legacy
    type: svn
    url: https://svn.example.org/legacy
    directory: /tmp/legacy
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "/srv/sources", settings.StoragePath)
		assert.Equal(t, 3, settings.Concurrency)
		assert.Equal(t, 5*time.Minute, settings.Timeouts.Clone)
		assert.Equal(t, entities.DefaultCheckoutTimeout, settings.Timeouts.Checkout)
		assert.Equal(t, entities.DefaultMaxSubmoduleDepth, settings.MaxSubmoduleDepth)
		require.Len(t, settings.Projects, 2)
		assert.Equal(t, entities.VcsInfo{
			Type:     entities.VcsTypeGit,
			URL:      "https://github.com/oss/lib",
			Revision: "v1.0",
		}, settings.Projects[0].Vcs)
		assert.Equal(t, entities.VcsTypeSubversion, settings.Projects[1].Vcs.Type)
		assert.Equal(t, filepath.Join("/srv/sources", "lib"), settings.ProjectDirectory(settings.Projects[0]))
		assert.Equal(t, "/tmp/legacy", settings.ProjectDirectory(settings.Projects[1]))
	})

	t.Run("should let projects inherit the default descriptor fields", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
defaults:
  type: hg
  revision: stable
  url: https://hg.example.org/ignored
projects:
  - name: tools
    url: https://hg.example.org/tools
  - name: lib
    type: git
    url: https://github.com/oss/lib
    revision: v2.0
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.VcsInfo{
			Type:     entities.VcsTypeMercurial,
			URL:      "https://hg.example.org/tools",
			Revision: "stable",
		}, settings.Projects[0].Vcs)
		assert.Equal(t, entities.VcsInfo{
			Type:     entities.VcsTypeGit,
			URL:      "https://github.com/oss/lib",
			Revision: "v2.0",
		}, settings.Projects[1].Vcs)
	})

	t.Run("should not inherit the default url", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "defaults:\n  url: https://example.org/any.git\nprojects:\n  - name: lib\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidDescriptor)
	})

	t.Run("should fail when the file does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "missing.yaml")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
	})

	t.Run("should reject a project without url", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "projects:\n  - name: lib\n    type: git\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidDescriptor)
		assert.Contains(t, err.Error(), "projects[0]")
	})
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	t.Run("should require at least one project", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()

		// when
		err := entities.ValidateSettings(settings)

		// then
		require.Error(t, err)
	})

	t.Run("should reject duplicate project names", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		project := entities.ProjectConfig{Name: "lib", Vcs: entities.VcsInfo{URL: "https://example.org/lib.git"}}
		settings.Projects = []entities.ProjectConfig{project, project}

		// when
		err := entities.ValidateSettings(settings)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicates")
	})

	t.Run("should reject a project without name", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Projects = []entities.ProjectConfig{{Vcs: entities.VcsInfo{URL: "https://example.org/lib.git"}}}

		// when
		err := entities.ValidateSettings(settings)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})
}

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	t.Run("should fill every default", func(t *testing.T) {
		t.Parallel()

		// given / when
		settings := entities.DefaultSettings()

		// then
		assert.Equal(t, "downloads", settings.StoragePath)
		assert.Equal(t, 2*runtime.NumCPU(), settings.Concurrency)
		assert.Equal(t, entities.DefaultMaxSubmoduleDepth, settings.MaxSubmoduleDepth)
		assert.Equal(t, entities.DownloadOptions{
			Timeouts: entities.TimeoutSettings{
				Clone:       entities.DefaultCloneTimeout,
				Checkout:    entities.DefaultCheckoutTimeout,
				RemoteQuery: entities.DefaultRemoteQueryTimeout,
			},
			MaxSubmoduleDepth: entities.DefaultMaxSubmoduleDepth,
		}, settings.DownloadOptions())
	})
}

func TestDownloadOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("should keep explicit limits and fill the missing ones", func(t *testing.T) {
		t.Parallel()

		// given
		opts := entities.DownloadOptions{
			Timeouts:          entities.TimeoutSettings{Clone: time.Second},
			MaxSubmoduleDepth: 2,
		}

		// when
		result := opts.WithDefaults()

		// then
		assert.Equal(t, time.Second, result.Timeouts.Clone)
		assert.Equal(t, entities.DefaultCheckoutTimeout, result.Timeouts.Checkout)
		assert.Equal(t, entities.DefaultRemoteQueryTimeout, result.Timeouts.RemoteQuery)
		assert.Equal(t, 2, result.MaxSubmoduleDepth)
	})
}
