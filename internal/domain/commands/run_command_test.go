//go:build unit

package commands_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
	"github.com/rios0rios0/downloader/test/domain/commanddoubles"
	"github.com/rios0rios0/downloader/test/domain/entitybuilders"
)

func newBatchSettings(t *testing.T, projects ...entities.ProjectConfig) *entities.Settings {
	t.Helper()
	settings := &entities.Settings{StoragePath: t.TempDir(), Concurrency: 2, Projects: projects}
	settings.ApplyDefaults()
	return settings
}

func TestRunCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should download every project into its directory", func(t *testing.T) {
		t.Parallel()

		// given
		download := &commanddoubles.StubDownloadCommand{}
		settings := newBatchSettings(t,
			entitybuilders.NewVcsInfoBuilder().WithURL("https://example.com/a.git").BuildProject("a"),
			entitybuilders.NewVcsInfoBuilder().WithURL("https://example.com/b.git").BuildProject("b"),
		)
		cmd := commands.NewRunCommand(download)

		// when
		results, err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Project)
		assert.Equal(t, filepath.Join(settings.StoragePath, "a"), results[0].Directory)
		assert.Equal(t, "https://example.com/a.git", results[0].Provenance.VcsInfo.URL)
		assert.Equal(t, "b", results[1].Project)
		assert.False(t, results[1].Failed())
		for _, call := range download.Calls() {
			assert.Equal(t, settings.DownloadOptions(), call.Opts)
		}
	})

	t.Run("should record a failure and continue with the other projects", func(t *testing.T) {
		t.Parallel()

		// given
		download := &commanddoubles.StubDownloadCommand{
			Errors: map[string]error{
				"https://example.com/broken.git": fmt.Errorf("resolve: %w", entities.ErrAmbiguousRevision),
			},
		}
		settings := newBatchSettings(t,
			entitybuilders.NewVcsInfoBuilder().WithURL("https://example.com/broken.git").BuildProject("broken"),
			entitybuilders.NewVcsInfoBuilder().BuildProject("fine"),
		)
		cmd := commands.NewRunCommand(download)

		// when
		results, err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.True(t, results[0].Failed())
		assert.Contains(t, results[0].Error, "ambiguous revision")
		assert.True(t, results[0].Provenance.VcsInfo.IsEmpty())
		assert.Equal(t, 0, results[0].Provenance.Submodules.Len())
		assert.False(t, results[1].Failed())
		assert.Len(t, download.Calls(), 2)
	})

	t.Run("should respect the ProjectName filter", func(t *testing.T) {
		t.Parallel()

		// given
		download := &commanddoubles.StubDownloadCommand{}
		settings := newBatchSettings(t,
			entitybuilders.NewVcsInfoBuilder().BuildProject("a"),
			entitybuilders.NewVcsInfoBuilder().BuildProject("b"),
		)
		cmd := commands.NewRunCommand(download)

		// when
		results, err := cmd.Execute(context.Background(), settings, commands.RunOptions{ProjectName: "b"})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].Project)
		assert.Len(t, download.Calls(), 1)
	})

	t.Run("should keep project order with more projects than workers", func(t *testing.T) {
		t.Parallel()

		// given
		download := &commanddoubles.StubDownloadCommand{}
		var projects []entities.ProjectConfig
		for i := range 20 {
			url := fmt.Sprintf("https://example.com/p%02d.git", i)
			projects = append(projects, entitybuilders.NewVcsInfoBuilder().WithURL(url).BuildProject(fmt.Sprintf("p%02d", i)))
		}
		settings := newBatchSettings(t, projects...)
		cmd := commands.NewRunCommand(download)

		// when
		results, err := cmd.Execute(context.Background(), settings, commands.RunOptions{Concurrency: 3})

		// then
		require.NoError(t, err)
		require.Len(t, results, 20)
		for i, result := range results {
			assert.Equal(t, fmt.Sprintf("p%02d", i), result.Project)
		}
	})

	t.Run("should return the cancellation of the context", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		settings := newBatchSettings(t, entitybuilders.NewVcsInfoBuilder().BuildProject("a"))
		cmd := commands.NewRunCommand(&commanddoubles.StubDownloadCommand{})

		// when
		_, err := cmd.Execute(ctx, settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, context.Canceled)
	})
}
