package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rios0rios0/downloader/internal/domain/entities"
	domainRepos "github.com/rios0rios0/downloader/internal/domain/repositories"
)

// ErrUnknownVcsType is returned when no backend is registered under a name.
var ErrUnknownVcsType = errors.New("unknown VCS type")

// VcsRegistry manages all registered VCS backends. Lookups that can match
// several backends follow registration order, so the registry must be filled
// in priority order and is read-only afterwards.
type VcsRegistry struct {
	backends []domainRepos.VcsRepository
}

// NewVcsRegistry creates an empty VCS registry.
func NewVcsRegistry() *VcsRegistry {
	return &VcsRegistry{}
}

// Register appends a backend at the lowest priority.
func (r *VcsRegistry) Register(backend domainRepos.VcsRepository) {
	r.backends = append(r.backends, backend)
}

// ForType returns the backend whose type name or alias matches name, ignoring case.
func (r *VcsRegistry) ForType(name string) (domainRepos.VcsRepository, error) {
	wanted := strings.ToLower(strings.TrimSpace(name))
	for _, b := range r.backends {
		if strings.ToLower(string(b.Type())) == wanted {
			return b, nil
		}
		for _, alias := range b.Aliases() {
			if alias == wanted {
				return b, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVcsType, name)
}

// ForDirectory returns the first backend whose metadata is present in dir,
// or nil when no backend recognizes it.
func (r *VcsRegistry) ForDirectory(dir string) domainRepos.VcsRepository {
	for _, b := range r.backends {
		if b.IsApplicableDirectory(dir) {
			return b
		}
	}
	return nil
}

// ForURL returns the backends whose URL pattern matches, in priority order.
func (r *VcsRegistry) ForURL(url string) []domainRepos.VcsRepository {
	var result []domainRepos.VcsRepository
	for _, b := range r.backends {
		if b.IsApplicableURL(url) {
			result = append(result, b)
		}
	}
	return result
}

// ForInfo returns the backends to try for a descriptor. A known type yields
// exactly its backend. An unknown type yields every backend, the ones whose
// URL pattern matches first.
func (r *VcsRegistry) ForInfo(info entities.VcsInfo) ([]domainRepos.VcsRepository, error) {
	if !info.Type.IsUnknown() {
		backend, err := r.ForType(string(info.Type))
		if err != nil {
			return nil, err
		}
		return []domainRepos.VcsRepository{backend}, nil
	}

	result := r.ForURL(info.URL)
	for _, b := range r.backends {
		if !contains(result, b) {
			result = append(result, b)
		}
	}
	return result, nil
}

// Names returns the type names of the registered backends in priority order.
func (r *VcsRegistry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, string(b.Type()))
	}
	return names
}

func contains(backends []domainRepos.VcsRepository, backend domainRepos.VcsRepository) bool {
	for _, b := range backends {
		if b == backend {
			return true
		}
	}
	return false
}
