package main

import (
	"io"
	"log"

	"github.com/rs/zerolog"
)

// newLogger builds a zerolog console writer at the level implied by
// verbose (0=warn, 1=info, 2=debug), and wraps it in a *log.Logger so the
// core packages (which only know about the standard log.Logger, to stay
// free of a zerolog import) can still log through it. Lines written through
// the *log.Logger carry no zerolog level, so they are printed at every
// verbosity; the level filters only events logged on zerolog directly.
func newLogger(w io.Writer, verbose int) *log.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbose >= 2:
		level = zerolog.DebugLevel
	case verbose == 1:
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	return log.New(zl, "", 0)
}
