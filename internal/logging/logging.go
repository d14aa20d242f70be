// Package logging provides the zerolog based loggers used across helloweb.
//
// Components get a child logger tagged with their name:
//
//	log := logging.For("web")
//	log.Info().Int("port", 8000).Msg("Starting web server")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Options configures a logger.
type Options struct {
	Level  string    // trace, debug, info, warn, error; empty means info
	Format string    // auto, console or json
	Output io.Writer // defaults to os.Stderr
}

// New creates a logger from opts.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(opts.Format)
	if format == "" || format == "auto" {
		format = "json"
		if IsTerminal(out) {
			format = "console"
		}
	}

	var writer io.Writer
	switch format {
	case "console":
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
			NoColor:    os.Getenv("NO_COLOR") != "" || !IsTerminal(out),
		}
	case "json":
		writer = out
	default:
		return zerolog.Nop(), errors.Errorf("unknown log format %q", opts.Format)
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, nil
}

// Configure replaces the default logger.
func Configure(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// Default returns the process wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// For returns a child of the default logger tagged with component.
func For(component string) zerolog.Logger {
	return defaultLogger.With().Str("component", component).Logger()
}

// ParseLevel maps a level name to a zerolog level, empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "off", "none":
		return zerolog.Disabled, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
