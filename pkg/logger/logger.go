package logger

import (
	"camera-ingest/constant"
	"context"
	"github.com/rs/zerolog"
	"io"
	"os"
	"time"
)

// New builds the process logger. Develop environments log at debug level.
func New(environment string, w io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return zerolog.New(w).With().Timestamp().Logger()
}

// Context returns a background context carrying a stdout logger.
func Context(environment string) context.Context {
	logger := New(environment, os.Stdout)
	return logger.WithContext(context.Background())
}

// ConsoleContext returns a background context carrying a human readable
// stderr logger for interactive commands.
func ConsoleContext(environment string) context.Context {
	logger := New(environment, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return logger.WithContext(context.Background())
}
