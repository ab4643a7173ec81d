// Package graph flattens a module's transitive dependencies and reduces them to
// the modules that opted into test integration.
package graph

import (
	"fmt"
	"strings"

	"github.com/gahjs/e2e-plugin/internal/models"
)

// CycleError indicates that the dependency graph contains a cycle.
type CycleError struct {
	// Path lists the module names from the first repeated module back to itself.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Collect returns every module reachable from deps, each name once, in
// depth-first pre-order. A module already visited is never descended into again;
// reaching a module that is still on the current path returns a *CycleError.
func Collect(deps []*models.Module) ([]*models.Module, error) {
	c := &collector{
		visited: map[string]bool{},
		onPath:  map[string]bool{},
	}
	for _, dep := range deps {
		if err := c.visit(dep); err != nil {
			return nil, err
		}
	}
	return c.result, nil
}

type collector struct {
	visited map[string]bool
	onPath  map[string]bool
	path    []string
	result  []*models.Module
}

func (c *collector) visit(m *models.Module) error {
	if m == nil {
		return nil
	}
	if c.onPath[m.Name] {
		return &CycleError{Path: c.cycleFrom(m.Name)}
	}
	if c.visited[m.Name] {
		return nil
	}

	c.visited[m.Name] = true
	c.result = append(c.result, m)

	c.onPath[m.Name] = true
	c.path = append(c.path, m.Name)
	for _, dep := range m.Dependencies {
		if err := c.visit(dep); err != nil {
			return err
		}
	}
	c.path = c.path[:len(c.path)-1]
	delete(c.onPath, m.Name)

	return nil
}

func (c *collector) cycleFrom(name string) []string {
	for i, n := range c.path {
		if n == name {
			cycle := append([]string{}, c.path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// Configured keeps the modules carrying configured test integration settings.
func Configured(mods []*models.Module) []*models.Module {
	var filtered []*models.Module
	for _, m := range mods {
		if m.IsConfigured() {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// DependencySet returns the configured modules among m's transitive dependencies.
func DependencySet(m *models.Module) ([]*models.Module, error) {
	all, err := Collect(m.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("failed to collect dependencies of %s: %w", m.Name, err)
	}
	return Configured(all), nil
}

// Participates reports whether m takes part in test composition: it opted in
// itself or at least one of its dependencies did.
func Participates(m *models.Module) (bool, error) {
	if m.IsConfigured() {
		return true, nil
	}
	deps, err := DependencySet(m)
	if err != nil {
		return false, err
	}
	return len(deps) > 0, nil
}
