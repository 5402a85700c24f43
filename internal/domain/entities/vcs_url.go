package entities

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// scpLikePattern matches "user@host:path" remotes that carry no scheme.
	scpLikePattern = regexp.MustCompile(`^([A-Za-z0-9._~-]+)@([A-Za-z0-9.-]+):(.+)$`)

	// shorthandHosts expands "<alias>:owner/repo" specifiers.
	shorthandHosts = map[string]string{ //nolint:gochecknoglobals // read-only lookup table
		"github":    "github.com",
		"gitlab":    "gitlab.com",
		"bitbucket": "bitbucket.org",
	}

	// gitSuffixHosts are hosting services whose repositories always live at "<owner>/<repo>.git".
	gitSuffixHosts = map[string]bool{ //nolint:gochecknoglobals // read-only lookup table
		"github.com":    true,
		"gitlab.com":    true,
		"bitbucket.org": true,
	}
)

// NormalizeVcsURL canonicalizes a repository URL so that equivalent spellings
// compare equal. Applying it twice yields the same result as applying it once.
func NormalizeVcsURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return ""
	}

	if filepath.IsAbs(u) && !strings.Contains(u, "://") {
		return "file://" + filepath.ToSlash(u)
	}

	if scheme, rest, ok := strings.Cut(u, "://"); ok && !strings.ContainsAny(scheme, "/@") {
		u = strings.ToLower(scheme) + "://" + rest
	}
	for strings.HasPrefix(u, "git+") {
		u = strings.TrimPrefix(u, "git+")
	}
	if rest, ok := strings.CutPrefix(u, "git://"); ok {
		u = "https://" + rest
	}

	if !strings.Contains(u, "://") {
		u = expandSchemeless(u)
	}

	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return u
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	if trimmed := strings.TrimPrefix(parsed.Host, "www."); gitSuffixHosts[trimmed] {
		parsed.Host = trimmed
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""

	if gitSuffixHosts[parsed.Hostname()] && (parsed.Scheme == "https" || parsed.Scheme == "ssh") {
		segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
		if len(segments) == 2 && segments[1] != "" && !strings.HasSuffix(segments[1], ".git") { //nolint:mnd // owner/repo
			parsed.Path += ".git"
		}
	}

	return parsed.String()
}

// expandSchemeless rewrites scp-like remotes, hosting shorthands and bare
// "host/owner/repo" specifiers into URLs with an explicit scheme.
func expandSchemeless(u string) string {
	if alias, rest, ok := strings.Cut(u, ":"); ok {
		if host, known := shorthandHosts[strings.ToLower(alias)]; known && !strings.Contains(alias, "@") {
			return "https://" + host + "/" + strings.TrimPrefix(rest, "/")
		}
	}

	if m := scpLikePattern.FindStringSubmatch(u); m != nil {
		return "ssh://" + m[1] + "@" + m[2] + "/" + strings.TrimPrefix(m[3], "/")
	}

	first, _, _ := strings.Cut(u, "/")
	if gitSuffixHosts[strings.TrimPrefix(strings.ToLower(first), "www.")] {
		return "https://" + u
	}

	return u
}

// RepositoryName returns the last path segment of a repository URL without a
// ".git" suffix, or "repository" when the URL has no usable segment.
func RepositoryName(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	u = strings.TrimSuffix(u, ".git")
	if u == "" || u == "." || u == ".." {
		return "repository"
	}
	return u
}
