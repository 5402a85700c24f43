//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/downloader/internal/infrastructure/repositories/command"
)

// StubCommandRunner implements command.Runner with canned outputs keyed by
// the command line (binary plus arguments). Unknown commands fail.
type StubCommandRunner struct {
	Outputs map[string]string
	Errors  map[string]error

	mu    sync.Mutex
	Calls []command.Command
}

var _ command.Runner = (*StubCommandRunner)(nil)

// NewStubCommandRunner creates a runner answering with the given outputs.
func NewStubCommandRunner(outputs map[string]string) *StubCommandRunner {
	return &StubCommandRunner{Outputs: outputs, Errors: map[string]error{}}
}

func (s *StubCommandRunner) Run(_ context.Context, cmd command.Command) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, cmd)

	key := cmd.String()
	if err, ok := s.Errors[key]; ok {
		return "", err
	}
	if out, ok := s.Outputs[key]; ok {
		return out, nil
	}
	return "", fmt.Errorf("unexpected command %q", key)
}

// CommandLines returns the recorded command lines in call order.
func (s *StubCommandRunner) CommandLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, 0, len(s.Calls))
	for _, c := range s.Calls {
		lines = append(lines, c.String())
	}
	return lines
}
