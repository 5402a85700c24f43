package git

// SelectRemoteURL picks the canonical remote of a checkout. remotes maps
// remote names to their fetch URL and upstream is the remote configured for
// the current branch ("" when detached or not tracking).
//
// The upstream remote wins when it exists. Otherwise a single configured
// remote is used. With several remotes and no upstream the choice would be a
// guess, so the result is empty.
func SelectRemoteURL(remotes map[string]string, upstream string) string {
	if upstream != "" {
		if url, ok := remotes[upstream]; ok && url != "" {
			return url
		}
	}

	if len(remotes) == 1 {
		for _, url := range remotes {
			return url
		}
	}

	return ""
}
