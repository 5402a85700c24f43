package entities

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// VcsType identifies a version control system backend.
type VcsType string

const (
	VcsTypeGit        VcsType = "Git"
	VcsTypeMercurial  VcsType = "Mercurial"
	VcsTypeSubversion VcsType = "Subversion"
	VcsTypeCvs        VcsType = "CVS"
	VcsTypeUnknown    VcsType = ""
)

// vcsTypeAliases maps every accepted lower-case spelling to its canonical type.
var vcsTypeAliases = map[string]VcsType{ //nolint:gochecknoglobals // read-only lookup table
	"git":        VcsTypeGit,
	"hg":         VcsTypeMercurial,
	"mercurial":  VcsTypeMercurial,
	"svn":        VcsTypeSubversion,
	"subversion": VcsTypeSubversion,
	"cvs":        VcsTypeCvs,
}

// ParseVcsType converts a type name or alias (case-insensitive) to a VcsType.
// Unrecognized names map to VcsTypeUnknown.
func ParseVcsType(name string) VcsType {
	if t, ok := vcsTypeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return VcsTypeUnknown
}

// IsUnknown reports whether the type could not be determined.
func (t VcsType) IsUnknown() bool { return t == VcsTypeUnknown }

func (t VcsType) String() string {
	if t.IsUnknown() {
		return "Unknown"
	}
	return string(t)
}

// UnmarshalYAML accepts any alias understood by ParseVcsType.
func (t *VcsType) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = ParseVcsType(raw)
	return nil
}

// UnmarshalText accepts any alias understood by ParseVcsType.
func (t *VcsType) UnmarshalText(text []byte) error {
	*t = ParseVcsType(string(text))
	return nil
}
