// Package logging builds the root zerolog logger shared by all components.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON to stderr. Level falls back to info when
// the value is empty or unknown.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
