package runner

import (
	"context"
	"io"
)

// Command is one invocation of the external test runner.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Runner executes test runner commands for testability
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) error
}
