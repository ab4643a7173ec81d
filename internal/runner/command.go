// Package runner starts the external test runner inside the host workspace.
package runner

import (
	"fmt"
	"strings"
)

// Spec describes how the runner is invoked.
type Spec struct {
	Command     string
	Args        []string
	CIArgs      []string
	ProjectFlag string
}

// Build returns the command running every project, or only project when it
// is not empty. CI runs add the CI arguments.
func (s Spec) Build(dir, project string, ci bool) (Command, error) {
	if strings.TrimSpace(s.Command) == "" {
		return Command{}, fmt.Errorf("runner command is empty")
	}

	args := append([]string{}, s.Args...)
	if ci {
		args = append(args, s.CIArgs...)
	}
	if project != "" {
		if strings.TrimSpace(s.ProjectFlag) == "" {
			return Command{}, fmt.Errorf("runner project flag is empty")
		}
		args = append(args, fmt.Sprintf("%s=%s", s.ProjectFlag, project))
	}

	return Command{Name: s.Command, Args: args, Dir: dir}, nil
}
