//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

const defaultURL = "https://example.com/repo.git"

// VcsInfoBuilder helps create test descriptors with a fluent interface.
type VcsInfoBuilder struct {
	*testkit.BaseBuilder
	vcsType  entities.VcsType
	url      string
	revision string
	path     string
}

// NewVcsInfoBuilder creates a new descriptor builder with sensible defaults.
func NewVcsInfoBuilder() *VcsInfoBuilder {
	return &VcsInfoBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		vcsType:     entities.VcsTypeGit,
		url:         defaultURL,
	}
}

// WithType sets the backend type.
func (b *VcsInfoBuilder) WithType(vcsType entities.VcsType) *VcsInfoBuilder {
	b.vcsType = vcsType
	return b
}

// WithURL sets the repository URL.
func (b *VcsInfoBuilder) WithURL(url string) *VcsInfoBuilder {
	b.url = url
	return b
}

// WithRevision sets the requested revision.
func (b *VcsInfoBuilder) WithRevision(revision string) *VcsInfoBuilder {
	b.revision = revision
	return b
}

// WithPath sets the sub-path.
func (b *VcsInfoBuilder) WithPath(path string) *VcsInfoBuilder {
	b.path = path
	return b
}

// Build creates the descriptor (satisfies testkit.Builder interface).
func (b *VcsInfoBuilder) Build() interface{} {
	return b.BuildVcsInfo()
}

// BuildVcsInfo creates the descriptor with a concrete return type.
func (b *VcsInfoBuilder) BuildVcsInfo() entities.VcsInfo {
	return entities.VcsInfo{
		Type:     b.vcsType,
		URL:      b.url,
		Revision: b.revision,
		Path:     b.path,
	}
}

// BuildProject wraps the descriptor into a batch project.
func (b *VcsInfoBuilder) BuildProject(name string) entities.ProjectConfig {
	return entities.ProjectConfig{Name: name, Vcs: b.BuildVcsInfo()}
}

// Reset clears the builder state, allowing it to be reused.
func (b *VcsInfoBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.vcsType = entities.VcsTypeGit
	b.url = defaultURL
	b.revision = ""
	b.path = ""
	return b
}

// Clone creates a deep copy of the VcsInfoBuilder.
func (b *VcsInfoBuilder) Clone() testkit.Builder {
	return &VcsInfoBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		vcsType:     b.vcsType,
		url:         b.url,
		revision:    b.revision,
		path:        b.path,
	}
}
