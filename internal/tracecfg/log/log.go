package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"tracecfg/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	logger      *logging.LoggerCloser
)

// Setup installs the charm logger built from o as the slog default. It
// fails only when o names a log file that cannot be opened. Later calls are
// no-ops.
func Setup(o logging.Options) error {
	return SetupWithWriter(nil, o)
}

// SetupWithWriter is Setup writing to w unless o names a log file.
func SetupWithWriter(w io.Writer, o logging.Options) error {
	var err error
	initOnce.Do(func() {
		var lc *logging.LoggerCloser
		if lc, err = logging.New(w, o); err != nil {
			return
		}
		logger = lc
		slog.SetDefault(slog.New(logger.Logger))
		initialized.Store(true)
	})
	return err
}

func Initialized() bool {
	return initialized.Load()
}

// Logger returns the installed logger, or a stderr logger before Setup.
func Logger() *charmlog.Logger {
	if logger == nil {
		return charmlog.NewWithOptions(os.Stderr, charmlog.Options{})
	}
	return logger.Logger
}

// Close releases a log file opened by Setup.
func Close() error {
	if logger == nil {
		return nil
	}
	return logger.Close()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		} else {
			fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", name, r, debug.Stack())
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
