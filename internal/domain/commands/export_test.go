package commands

// DirectChildren exports directChildren for testing.
var DirectChildren = directChildren //nolint:gochecknoglobals // test export

// WithTimeout exports withTimeout for testing.
var WithTimeout = withTimeout //nolint:gochecknoglobals // test export
