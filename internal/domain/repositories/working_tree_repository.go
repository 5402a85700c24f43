package repositories

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// WorkingTreeRepository abstracts a materialized checkout of one backend.
//
// IsValid is the only gate for trusting the other queries. Every query
// degrades to its empty value (false, "", empty slice or mapping) when the
// repository is missing or corrupt, and never panics. Remote queries also
// swallow transport failures; they are advisory.
type WorkingTreeRepository interface {
	// GetType returns the backend type of the checkout.
	GetType() entities.VcsType

	// GetWorkingDir returns the directory the working tree was opened for.
	GetWorkingDir() string

	// IsValid reports whether the backend's object store for this directory is present and readable.
	IsValid() bool

	// IsShallow reports whether the checkout has truncated history.
	IsShallow() bool

	// GetRevision returns the identifier checked out at HEAD (or the backend equivalent).
	GetRevision() string

	// GetRemoteURL returns the remote of the current branch, the single configured
	// remote, or "" when the choice would be a guess.
	GetRemoteURL() string

	// GetRootPath returns the top-level directory of the checkout, or the working
	// directory when no root can be determined.
	GetRootPath() string

	// ListRemoteBranches returns the branch names advertised by the remote.
	ListRemoteBranches(ctx context.Context) []string

	// ListRemoteTags returns the tag names advertised by the remote.
	ListRemoteTags(ctx context.Context) []string

	// GetNested returns the submodules of the checkout, recursively, keyed by
	// their slash-separated path relative to the root.
	GetNested() *entities.SubmoduleMap
}

// WorkingTreeInfo describes a working tree as a descriptor: backend type,
// normalized remote URL and checked out revision, at the repository root.
func WorkingTreeInfo(wt WorkingTreeRepository) entities.VcsInfo {
	return entities.VcsInfo{
		Type:     wt.GetType(),
		URL:      entities.NormalizeVcsURL(wt.GetRemoteURL()),
		Revision: wt.GetRevision(),
		Path:     "",
	}
}

// PathToRoot returns the slash-separated path of dir relative to the root of
// the working tree. It returns "" for the root itself and for directories
// outside the working tree.
func PathToRoot(wt WorkingTreeRepository, dir string) string {
	root, err := filepath.Abs(wt.GetRootPath())
	if err != nil {
		return ""
	}
	target, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}
