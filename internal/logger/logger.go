package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Logger is the application logger instance
var Logger zerolog.Logger

// Init initializes the logger with the given configuration, writing to out
// (os.Stdout when nil). The CLI passes os.Stderr so command output stays clean.
func Init(level, format string, out io.Writer) {
	Logger = New(level, format, out)

	// Set the global logger
	log.Logger = Logger
}

// New builds a logger without touching the global one
func New(level, format string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	// Set log level
	zerolog.SetGlobalLevel(parseLogLevel(level))

	// Configure output format
	if strings.ToLower(format) == "json" {
		return zerolog.New(out).With().
			Timestamp().
			Caller().
			Logger()
	}

	// Console format, colored only on a terminal
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(out),
	}
	return zerolog.New(output).With().
		Timestamp().
		Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseLogLevel parses string log level to zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
