package runner

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// OSRunner implements Runner by starting real processes
type OSRunner struct{}

// NewOSRunner creates a new OSRunner
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run starts the command in cmd.Dir and streams its output.
func (r *OSRunner) Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = stdout
	c.Stderr = stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", cmd, err)
	}
	return nil
}

// String renders the command line.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}
