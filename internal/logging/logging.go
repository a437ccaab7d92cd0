// Package logging configures the process-wide logger. The TUI owns the
// terminal, so logs go to a file or nowhere.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing to the file at path, creating it if needed.
// An empty path or an unwritable file yields a disabled logger.
func New(path string) zerolog.Logger {
	if path == "" {
		return zerolog.New(io.Discard)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.New(io.Discard)
	}
	return zerolog.New(f).With().Timestamp().Logger()
}
