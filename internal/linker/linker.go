// Package linker composes dependency test assets into a target workspace
// through directory links.
package linker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Status is the outcome of applying one LinkEntry.
type Status string

const (
	StatusLinked        Status = "linked"
	StatusAlreadyLinked Status = "already-linked"
	StatusSkipped       Status = "skipped"
	StatusFailed        Status = "failed"
)

// Result records what happened to a single entry.
type Result struct {
	Entry  LinkEntry
	Status Status
	Reason string
}

// Report collects the results of one Apply call in plan order.
type Report struct {
	Results []Result
}

// Count returns how many results have the given status.
func (r Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Degraded reports whether any link failed.
func (r Report) Degraded() bool {
	return r.Count(StatusFailed) > 0
}

// Merge appends the results of another report.
func (r *Report) Merge(other Report) {
	r.Results = append(r.Results, other.Results...)
}

// Linker cleans and populates test roots.
type Linker struct {
	fs          filesystem.FileSystem
	logger      *log.Logger
	concurrency int
}

// Option configures a Linker.
type Option func(*Linker)

// WithLogger sets the logger used for skipped and failed links.
func WithLogger(logger *log.Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency bounds how many links are created at once.
func WithConcurrency(n int) Option {
	return func(l *Linker) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// New creates a Linker.
func New(fs filesystem.FileSystem, options ...Option) *Linker {
	l := &Linker{
		fs:          fs,
		logger:      log.New(io.Discard),
		concurrency: defaultConcurrency,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Clean removes everything below root. Links are removed, their targets stay.
// A missing root is not an error.
func (l *Linker) Clean(root string) error {
	if !filesystem.DirExists(l.fs, root) {
		return nil
	}

	entries, err := l.fs.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", root, err)
	}

	for _, entry := range entries {
		p := filepath.Join(root, entry.Name())
		if err := l.fs.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	l.logger.Debug("cleaned test root", "root", root, "entries", len(entries))
	return nil
}

// Apply creates the planned links. Entries target disjoint destinations, so
// they are applied concurrently. A failing entry is logged and recorded; it
// never stops the others.
func (l *Linker) Apply(ctx context.Context, entries []LinkEntry) Report {
	results := make([]Result, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Entry: entry, Status: StatusFailed, Reason: err.Error()}
			continue
		}

		g.Go(func() error {
			res := l.apply(entry)
			results[i] = res

			switch res.Status {
			case StatusFailed:
				l.logger.Warn("failed to link", "module", entry.Module, "kind", entry.Kind, "destination", entry.Destination, "err", res.Reason)
			case StatusSkipped:
				l.logger.Debug("skipped link", "module", entry.Module, "kind", entry.Kind, "reason", res.Reason)
			default:
				l.logger.Debug("linked", "module", entry.Module, "kind", entry.Kind, "destination", entry.Destination)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Results: results}
}

func (l *Linker) apply(entry LinkEntry) Result {
	if entry.Invalid != "" {
		return Result{Entry: entry, Status: StatusFailed, Reason: entry.Invalid}
	}

	// Opting in before any tests exist is valid.
	if !filesystem.DirExists(l.fs, entry.Source) {
		return Result{Entry: entry, Status: StatusSkipped, Reason: "source directory does not exist"}
	}

	if link, ok := l.linkedParent(entry); ok {
		return Result{Entry: entry, Status: StatusFailed, Reason: fmt.Sprintf("destination lies inside linked directory %s", link)}
	}

	if existing, err := l.fs.Readlink(entry.Destination); err == nil {
		if filepath.Clean(existing) == filepath.Clean(entry.Source) {
			return Result{Entry: entry, Status: StatusAlreadyLinked}
		}
		return Result{Entry: entry, Status: StatusFailed, Reason: fmt.Sprintf("destination links to %s", existing)}
	}
	if _, err := l.fs.Lstat(entry.Destination); err == nil {
		return Result{Entry: entry, Status: StatusFailed, Reason: "destination already exists"}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{Entry: entry, Status: StatusFailed, Reason: err.Error()}
	}

	if err := l.fs.MkdirAll(filepath.Dir(entry.Destination), 0755); err != nil {
		return Result{Entry: entry, Status: StatusFailed, Reason: fmt.Sprintf("failed to create parent directory: %v", err)}
	}
	if err := l.fs.Symlink(entry.Source, entry.Destination); err != nil {
		return Result{Entry: entry, Status: StatusFailed, Reason: err.Error()}
	}

	return Result{Entry: entry, Status: StatusLinked}
}

// linkedParent returns the first symlink between the entry's root and its
// destination. Creating parents through it would write into the link target.
func (l *Linker) linkedParent(entry LinkEntry) (string, bool) {
	if entry.Root == "" {
		return "", false
	}
	rel, err := filepath.Rel(entry.Root, filepath.Dir(entry.Destination))
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}

	current := filepath.Clean(entry.Root)
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := l.fs.Lstat(current)
		if err != nil {
			return "", false
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return current, true
		}
	}
	return "", false
}
