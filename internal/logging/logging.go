// Package logging builds the structured loggers used across gah-e2e.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

const Prefix = "gah-e2e"

// New returns a logger writing to w at the given level ("debug", "info", ...).
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: Prefix,
		Level:  lvl,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
