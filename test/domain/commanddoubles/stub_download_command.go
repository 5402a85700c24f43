//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// DownloadCall records a single invocation of Download.Execute.
type DownloadCall struct {
	Info      entities.VcsInfo
	TargetDir string
	Opts      entities.DownloadOptions
}

// StubDownloadCommand is a stub implementation of commands.Download. Errors
// and provenances are looked up by URL; unknown URLs succeed with a
// provenance echoing the request.
type StubDownloadCommand struct {
	Provenances map[string]*entities.Provenance
	Errors      map[string]error

	mu    sync.Mutex
	calls []DownloadCall
}

var _ commands.Download = (*StubDownloadCommand)(nil)

func (s *StubDownloadCommand) Execute(
	_ context.Context,
	info entities.VcsInfo,
	targetDir string,
	opts entities.DownloadOptions,
) (*entities.Provenance, error) {
	s.mu.Lock()
	s.calls = append(s.calls, DownloadCall{Info: info, TargetDir: targetDir, Opts: opts})
	s.mu.Unlock()

	if err, ok := s.Errors[info.URL]; ok {
		return nil, err
	}
	if provenance, ok := s.Provenances[info.URL]; ok {
		return provenance, nil
	}
	return entities.NewProvenance(info), nil
}

// Calls returns a copy of the recorded invocations.
func (s *StubDownloadCommand) Calls() []DownloadCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DownloadCall{}, s.calls...)
}
