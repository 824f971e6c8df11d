// Package logx configures the process-wide leveled logger.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/op/go-logging"
)

// Log is the shared salescast logger.
var Log = logging.MustGetLogger("salescast")

const format = `%{time:2006-01-02 15:04:05} %{level:.5s} %{shortfile} %{message}`

// Init routes log output to w at the given level ("DEBUG", "INFO",
// "WARNING", "ERROR"). An empty level means WARNING.
func Init(w io.Writer, level string) error {
	if level == "" {
		level = "WARNING"
	}
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")

	logging.SetBackend(leveled)
	return nil
}

// InitFile opens (appending) the log file at path and routes output there.
// The returned closer must be called on exit.
func InitFile(path, level string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from cache dir
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	if err := Init(f, level); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Discard silences all logging.
func Discard() {
	_ = Init(io.Discard, "CRITICAL")
}
