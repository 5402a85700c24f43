package repositories

import (
	"context"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// VcsRepository abstracts a version control system backend (Git, Mercurial,
// Subversion, CVS). It materializes working trees and moves them between
// revisions; queries on an existing checkout go through WorkingTreeRepository.
type VcsRepository interface {
	// Type returns the backend type.
	Type() entities.VcsType

	// Aliases returns the lower-case names the backend can be looked up by.
	Aliases() []string

	// IsApplicableURL returns true if the URL looks like a repository of this backend.
	IsApplicableURL(url string) bool

	// IsApplicableDirectory returns true if dir holds this backend's metadata.
	// It only inspects the filesystem and never runs a VCS process.
	IsApplicableDirectory(dir string) bool

	// GetWorkingTree opens the checkout at dir. The result may be invalid.
	GetWorkingTree(dir string) WorkingTreeRepository

	// CloneOrFetch clones url into dir, or fetches into dir when it already
	// holds a valid checkout of this backend.
	CloneOrFetch(ctx context.Context, url, dir string) (WorkingTreeRepository, error)

	// ResolveRevision maps a requested revision to a concrete identifier. An
	// empty request resolves to the default branch tip.
	ResolveRevision(
		ctx context.Context,
		wt WorkingTreeRepository,
		requested string,
	) (entities.ResolvedRevision, error)

	// Checkout moves the working tree to the resolved revision.
	Checkout(ctx context.Context, wt WorkingTreeRepository, revision entities.ResolvedRevision) error
}
