//go:build unit

package git_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/git"
)

func TestSelectRemoteURL(t *testing.T) {
	t.Parallel()

	t.Run("should use the upstream remote of the current branch", func(t *testing.T) {
		t.Parallel()

		// given
		remotes := map[string]string{
			"origin":   "https://example.org/fork.git",
			"upstream": "https://example.org/main.git",
		}

		// when
		result := git.SelectRemoteURL(remotes, "upstream")

		// then
		assert.Equal(t, "https://example.org/main.git", result)
	})

	t.Run("should use the single remote regardless of branch configuration", func(t *testing.T) {
		t.Parallel()

		// given
		remotes := map[string]string{"origin": "https://example.org/main.git"}

		// when
		withoutUpstream := git.SelectRemoteURL(remotes, "")
		withMissingUpstream := git.SelectRemoteURL(remotes, "gone")

		// then
		assert.Equal(t, "https://example.org/main.git", withoutUpstream)
		assert.Equal(t, "https://example.org/main.git", withMissingUpstream)
	})

	t.Run("should give up with several remotes and no upstream", func(t *testing.T) {
		t.Parallel()

		// given
		remotes := map[string]string{
			"origin":   "https://example.org/fork.git",
			"upstream": "https://example.org/main.git",
		}

		// when
		result := git.SelectRemoteURL(remotes, "")

		// then
		assert.Empty(t, result)
	})

	t.Run("should return empty without remotes", func(t *testing.T) {
		t.Parallel()

		// given
		remotes := map[string]string{}

		// when
		result := git.SelectRemoteURL(remotes, "origin")

		// then
		assert.Empty(t, result)
	})
}
