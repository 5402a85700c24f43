package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCloneTimeout       = 10 * time.Minute
	DefaultCheckoutTimeout    = 2 * time.Minute
	DefaultRemoteQueryTimeout = 30 * time.Second
	DefaultMaxSubmoduleDepth  = 8
	defaultStorageDir         = "downloads"
)

// Settings is the top-level configuration of the downloader.
type Settings struct {
	StoragePath       string          `yaml:"storage_path"`
	Concurrency       int             `yaml:"concurrency"`
	MaxSubmoduleDepth int             `yaml:"max_submodule_depth"`
	Timeouts          TimeoutSettings `yaml:"timeouts"`
	Defaults          VcsInfo         `yaml:"defaults"` // type, revision and path inherited by projects
	Projects          []ProjectConfig `yaml:"projects"`
}

// TimeoutSettings bounds every blocking backend operation.
type TimeoutSettings struct {
	Clone       time.Duration `yaml:"clone"`
	Checkout    time.Duration `yaml:"checkout"`
	RemoteQuery time.Duration `yaml:"remote_query"`
}

// ProjectConfig describes one repository to download in batch mode.
type ProjectConfig struct {
	Name      string  `yaml:"name"`
	Directory string  `yaml:"directory"` // defaults to <storage_path>/<name>
	Vcs       VcsInfo `yaml:",inline"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a settings file, expands environment variables
// and applies defaults.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.StoragePath = expandEnv(settings.StoragePath)
	for i := range settings.Projects {
		settings.Projects[i].Vcs.URL = expandEnv(settings.Projects[i].Vcs.URL)
		settings.Projects[i].Directory = expandEnv(settings.Projects[i].Directory)
	}
	settings.applyProjectDefaults()

	settings.ApplyDefaults()

	if validateErr := ValidateSettings(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// DefaultSettings returns settings suitable for a single ad-hoc download.
func DefaultSettings() *Settings {
	settings := &Settings{} //nolint:exhaustruct // defaults are applied below
	settings.ApplyDefaults()
	return settings
}

// ApplyDefaults fills every unset value.
func (s *Settings) ApplyDefaults() {
	if s.StoragePath == "" {
		s.StoragePath = defaultStorageDir
	}
	if s.Concurrency <= 0 {
		// downloads are network bound, so oversubscribe the CPUs
		s.Concurrency = 2 * runtime.NumCPU() //nolint:mnd // network bound pool
	}
	if s.MaxSubmoduleDepth <= 0 {
		s.MaxSubmoduleDepth = DefaultMaxSubmoduleDepth
	}
	if s.Timeouts.Clone <= 0 {
		s.Timeouts.Clone = DefaultCloneTimeout
	}
	if s.Timeouts.Checkout <= 0 {
		s.Timeouts.Checkout = DefaultCheckoutTimeout
	}
	if s.Timeouts.RemoteQuery <= 0 {
		s.Timeouts.RemoteQuery = DefaultRemoteQueryTimeout
	}
}

// applyProjectDefaults fills the unset descriptor fields of every project from
// Defaults. A default URL would hide missing ones, so it is never inherited.
func (s *Settings) applyProjectDefaults() {
	inherited := s.Defaults
	inherited.URL = ""
	for i := range s.Projects {
		s.Projects[i].Vcs = s.Projects[i].Vcs.Merge(inherited)
	}
}

// ProjectDirectory returns the checkout directory of a project.
func (s *Settings) ProjectDirectory(project ProjectConfig) string {
	if project.Directory != "" {
		return project.Directory
	}
	return filepath.Join(s.StoragePath, project.Name)
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".downloader.yaml",
		".downloader.yml",
		"downloader.yaml",
		"downloader.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ValidateSettings checks for required configuration values.
func ValidateSettings(settings *Settings) error {
	if len(settings.Projects) == 0 {
		return errors.New("at least one project must be configured")
	}

	names := make(map[string]int, len(settings.Projects))
	for i, p := range settings.Projects {
		if p.Name == "" {
			return fmt.Errorf("projects[%d].name is required", i)
		}
		if j, dup := names[p.Name]; dup {
			return fmt.Errorf("projects[%d].name %q duplicates projects[%d]", i, p.Name, j)
		}
		names[p.Name] = i
		if err := p.Vcs.Validate(); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
	}

	return nil
}

// expandEnv expands ${VAR} references, warning about unset variables.
func expandEnv(raw string) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

// DownloadOptions returns the per-download limits derived from the settings.
func (s *Settings) DownloadOptions() DownloadOptions {
	return DownloadOptions{
		Timeouts:          s.Timeouts,
		MaxSubmoduleDepth: s.MaxSubmoduleDepth,
	}
}

// DownloadOptions bounds a single download.
type DownloadOptions struct {
	Timeouts          TimeoutSettings
	MaxSubmoduleDepth int
}

// WithDefaults returns a copy with every unset limit replaced by its default.
func (o DownloadOptions) WithDefaults() DownloadOptions {
	if o.MaxSubmoduleDepth <= 0 {
		o.MaxSubmoduleDepth = DefaultMaxSubmoduleDepth
	}
	if o.Timeouts.Clone <= 0 {
		o.Timeouts.Clone = DefaultCloneTimeout
	}
	if o.Timeouts.Checkout <= 0 {
		o.Timeouts.Checkout = DefaultCheckoutTimeout
	}
	if o.Timeouts.RemoteQuery <= 0 {
		o.Timeouts.RemoteQuery = DefaultRemoteQueryTimeout
	}
	return o
}
