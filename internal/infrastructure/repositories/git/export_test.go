package git

// ResolveSubmoduleURL exports resolveSubmoduleURL for testing.
var ResolveSubmoduleURL = resolveSubmoduleURL //nolint:gochecknoglobals // test export
