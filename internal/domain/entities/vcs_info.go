package entities

import (
	"fmt"
	"path"
	"strings"
)

// VcsInfo describes where source code lives in a version control system.
// It is a value type: every method returns a copy and never mutates the receiver.
type VcsInfo struct {
	Type     VcsType `json:"type" yaml:"type"`
	URL      string  `json:"url" yaml:"url"`
	Revision string  `json:"revision" yaml:"revision"` // empty means the default branch tip
	Path     string  `json:"path" yaml:"path"`         // empty means the repository root
}

// EmptyVcsInfo is the descriptor of "no known location".
var EmptyVcsInfo = VcsInfo{} //nolint:gochecknoglobals // zero value alias

// IsEmpty reports whether no field carries information.
func (v VcsInfo) IsEmpty() bool {
	return v == EmptyVcsInfo
}

// Normalize returns a copy with a canonical URL and a clean, slash-separated Path.
func (v VcsInfo) Normalize() VcsInfo {
	return VcsInfo{
		Type:     v.Type,
		URL:      NormalizeVcsURL(v.URL),
		Revision: strings.TrimSpace(v.Revision),
		Path:     cleanSubPath(v.Path),
	}
}

// Validate checks that a descriptor can be downloaded.
func (v VcsInfo) Validate() error {
	if strings.TrimSpace(v.URL) == "" {
		return fmt.Errorf("%w: url is required (type %s)", ErrInvalidDescriptor, v.Type)
	}
	if p := cleanSubPath(v.Path); p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("%w: path %q escapes the repository", ErrInvalidDescriptor, v.Path)
	}
	return nil
}

// WithRevision returns a copy pointing at another revision.
func (v VcsInfo) WithRevision(revision string) VcsInfo {
	v.Revision = revision
	return v
}

// Merge fills the fields of v that are empty (Unknown for Type) with the ones of other.
func (v VcsInfo) Merge(other VcsInfo) VcsInfo {
	if v.Type.IsUnknown() {
		v.Type = other.Type
	}
	if v.URL == "" {
		v.URL = other.URL
	}
	if v.Revision == "" {
		v.Revision = other.Revision
	}
	if v.Path == "" {
		v.Path = other.Path
	}
	return v
}

func (v VcsInfo) String() string {
	s := fmt.Sprintf("%s %s", v.Type, v.URL)
	if v.Revision != "" {
		s += "@" + v.Revision
	}
	if v.Path != "" {
		s += " (" + v.Path + ")"
	}
	return s
}

// cleanSubPath turns a sub-path into a slash-separated relative path without
// leading or trailing separators. The repository root is the empty string.
func cleanSubPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if strings.HasPrefix(p, "..") || strings.Contains(p, "/../") || strings.HasSuffix(p, "/..") {
		// keep escaping paths visible so that Validate can reject them
		cleaned = path.Clean(p)
	}
	if cleaned == "." {
		return ""
	}
	return cleaned
}
