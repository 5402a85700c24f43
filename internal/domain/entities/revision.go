package entities

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// RevisionKind tells which kind of reference a requested revision matched.
type RevisionKind string

const (
	RevisionKindDefault RevisionKind = "default"
	RevisionKindCommit  RevisionKind = "commit"
	RevisionKindTag     RevisionKind = "tag"
	RevisionKindBranch  RevisionKind = "branch"
)

const minAbbreviatedCommitLength = 4

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// ResolvedRevision is a requested revision mapped to a concrete identifier.
type ResolvedRevision struct {
	Requested string
	ID        string // commit id (or the backend equivalent) to check out
	Kind      RevisionKind
}

// RevisionCandidates are the references a backend knows about when resolving a revision name.
type RevisionCandidates struct {
	// FullCommitLength is the length of a complete commit identifier (40 for Git SHA-1).
	// Zero means the backend has no hexadecimal commit identifiers.
	FullCommitLength int
	Tags             map[string]string // tag name -> commit id
	Branches         map[string]string // branch name -> commit id
	// CommitExists reports whether a complete commit id is known.
	CommitExists func(id string) bool
	// CommitsWithPrefix returns the commit ids starting with prefix.
	CommitsWithPrefix func(prefix string) []string
}

// ResolveRevisionName applies the fixed precedence used for non-empty revisions:
// exact commit id, then tag, then branch, then a unique abbreviated commit id.
// Anything else fails with ErrAmbiguousRevision.
func ResolveRevisionName(requested string, candidates RevisionCandidates) (ResolvedRevision, error) {
	name := strings.TrimSpace(requested)
	if name == "" {
		return ResolvedRevision{}, fmt.Errorf("%w: empty revision name", ErrAmbiguousRevision)
	}

	hexName := candidates.FullCommitLength > 0 && hexPattern.MatchString(name)
	if hexName && len(name) == candidates.FullCommitLength &&
		candidates.CommitExists != nil && candidates.CommitExists(strings.ToLower(name)) {
		return ResolvedRevision{Requested: requested, ID: strings.ToLower(name), Kind: RevisionKindCommit}, nil
	}

	if id, ok := candidates.Tags[name]; ok {
		return ResolvedRevision{Requested: requested, ID: id, Kind: RevisionKindTag}, nil
	}

	if id, ok := candidates.Branches[name]; ok {
		return ResolvedRevision{Requested: requested, ID: id, Kind: RevisionKindBranch}, nil
	}

	if hexName && len(name) >= minAbbreviatedCommitLength && len(name) < candidates.FullCommitLength &&
		candidates.CommitsWithPrefix != nil {
		matches := uniqueSorted(candidates.CommitsWithPrefix(strings.ToLower(name)))
		switch len(matches) {
		case 0:
		case 1:
			return ResolvedRevision{Requested: requested, ID: matches[0], Kind: RevisionKindCommit}, nil
		default:
			return ResolvedRevision{}, fmt.Errorf(
				"%w: %q matches %d commits (%s)",
				ErrAmbiguousRevision, name, len(matches), strings.Join(matches, ", "),
			)
		}
	}

	return ResolvedRevision{}, fmt.Errorf(
		"%w: %q is neither a commit, a tag nor a branch", ErrAmbiguousRevision, name,
	)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	sort.Strings(result)
	return result
}
