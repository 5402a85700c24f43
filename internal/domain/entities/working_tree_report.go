package entities

// WorkingTreeReport describes an existing checkout as found on disk.
type WorkingTreeReport struct {
	Directory  string        `json:"directory" yaml:"directory"`
	Root       string        `json:"root" yaml:"root"`
	Valid      bool          `json:"valid" yaml:"valid"`
	Shallow    bool          `json:"shallow" yaml:"shallow"`
	VcsInfo    VcsInfo       `json:"vcs" yaml:"vcs"`
	Submodules *SubmoduleMap `json:"submodules" yaml:"submodules"`
	Branches   []string      `json:"branches,omitempty" yaml:"branches,omitempty"`
	Tags       []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
}
