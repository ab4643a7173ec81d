package runner

import (
	"context"
	"io"
	"sync"
)

// MockRunner records commands instead of running them
type MockRunner struct {
	mu       sync.Mutex
	commands []Command

	// Output is written to stdout for every command.
	Output string

	// RunError is returned from Run when set.
	RunError error
}

// NewMockRunner creates a new MockRunner
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

func (m *MockRunner) Run(_ context.Context, cmd Command, stdout, _ io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = append(m.commands, cmd)
	if m.Output != "" && stdout != nil {
		if _, err := io.WriteString(stdout, m.Output); err != nil {
			return err
		}
	}
	return m.RunError
}

// Commands returns every command run so far.
func (m *MockRunner) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.commands...)
}
