//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// StubInspectCommand is a stub implementation of commands.Inspect.
type StubInspectCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Report           *entities.WorkingTreeReport
	LastOpts         commands.InspectOptions
}

var _ commands.Inspect = (*StubInspectCommand)(nil)

func (s *StubInspectCommand) Execute(
	_ context.Context,
	opts commands.InspectOptions,
) (*entities.WorkingTreeReport, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Report, s.ExecuteErr
}
