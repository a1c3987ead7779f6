// Package logging builds the charm logger used across tracecfg and an
// Observer that reports graph construction events through it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "tracecfg "

// Options come from the log-level, log-prefix and log-file settings.
type Options struct {
	Level  string
	Prefix string
	// File appends to the named file instead of the writer passed to New.
	File string
	// Caller adds the source location to every entry.
	Caller bool
}

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the log file, if one was opened.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to a level. Anything else is
// info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// New returns a logger writing to w, or to o.File when set. A nil w means
// stderr.
func New(w io.Writer, o Options) (*LoggerCloser, error) {
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	prefix := o.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    o.Caller,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(o.Level),
		Prefix:          prefix,
	})
	return &LoggerCloser{Logger: lg, closer: closer}, nil
}
