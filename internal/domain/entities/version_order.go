package entities

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// SortVersionsDescending orders tags newest first. Tags that parse as
// semantic versions (with or without the "v" prefix) come first, the rest
// follow in lexical order.
func SortVersionsDescending(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		v1 := normalizeVersion(tags[i])
		v2 := normalizeVersion(tags[j])

		valid1, valid2 := semver.IsValid(v1), semver.IsValid(v2)
		switch {
		case valid1 && valid2:
			if c := semver.Compare(v1, v2); c != 0 {
				return c > 0
			}
			return tags[i] < tags[j]
		case valid1 != valid2:
			return valid1
		default:
			return tags[i] < tags[j]
		}
	})
}

// normalizeVersion ensures version has 'v' prefix for semver compatibility
func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
