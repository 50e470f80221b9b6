package app

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the command logger. Format "auto" picks console output
// when stderr is a terminal and JSON otherwise.
func newLogger(verbose bool, format string) zerolog.Logger {
	var writer io.Writer = os.Stderr

	useConsole := format == "console"
	if format == "auto" {
		useConsole = isTerminal(os.Stderr)
	}
	if useConsole {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
