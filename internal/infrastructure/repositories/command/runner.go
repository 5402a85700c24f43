package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
)

// LocalQueryTimeout bounds process invocations answering local working tree queries.
const LocalQueryTimeout = 30 * time.Second

// Command describes one VCS process invocation.
type Command struct {
	Dir  string   // working directory, the current one when empty
	Name string   // binary, e.g. "hg"
	Args []string // arguments after the binary
	Env  []string // extra KEY=VALUE pairs on top of the process environment
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes VCS command-line tools.
type Runner interface {
	// Run executes cmd and returns its standard output. A non-zero exit status
	// is an error carrying the standard error output.
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	logger.Debugf("Running %q in %q", cmd.String(), cmd.Dir)
	err := proc.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), fmt.Errorf("%s: %w", cmd.String(), ctxErr)
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s: %s is not installed: %w", cmd.String(), cmd.Name, err)
		}
		return stdout.String(), fmt.Errorf(
			"%s failed: %w\nOutput:\n%s", cmd.String(), err, strings.TrimSpace(stderr.String()),
		)
	}

	return stdout.String(), nil
}

// Lines splits process output into trimmed, non-empty lines.
func Lines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
