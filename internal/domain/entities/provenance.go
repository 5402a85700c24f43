package entities

// Provenance is the resolved origin of downloaded source code: the concrete
// descriptor of the root checkout plus every nested submodule below it.
type Provenance struct {
	VcsInfo    VcsInfo       `json:"vcs" yaml:"vcs"`
	Submodules *SubmoduleMap `json:"submodules" yaml:"submodules"`
}

// NewProvenance creates a provenance without submodules.
func NewProvenance(info VcsInfo) *Provenance {
	return &Provenance{VcsInfo: info, Submodules: NewSubmoduleMap()}
}

// DownloadResult is the outcome of downloading a single project. A failed
// download keeps an empty provenance and carries the error message instead.
type DownloadResult struct {
	Project    string      `json:"project" yaml:"project"`
	Directory  string      `json:"directory" yaml:"directory"`
	Requested  VcsInfo     `json:"requested" yaml:"requested"`
	Provenance *Provenance `json:"provenance" yaml:"provenance"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the download ended with an error.
func (r DownloadResult) Failed() bool {
	return r.Error != ""
}
