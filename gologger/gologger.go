package gologger

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	ReqIDKey ctxKey = "reqID"

	ServiceName = "bqconnector"
)

func init() {
	l := NewLogger()
	zerolog.DefaultContextLogger = &l
	// package/file.go:line is enough to find a log line in this repo
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file)) + ":" + strconv.Itoa(line)
	}
}

// NewLogger builds the service logger. PRETTY=1 switches to the console writer.
func NewLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"
	zerolog.SetGlobalLevel(LevelFromEnv())

	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Str("service", ServiceName).Logger()
	if os.Getenv("PRETTY") == "1" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

// LevelFromEnv reads LOG_LEVEL, falling back to debug when DEBUG=1 and info otherwise
func LevelFromEnv() zerolog.Level {
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if lvl, err := zerolog.ParseLevel(raw); err == nil {
			return lvl
		}
	}
	if os.Getenv("DEBUG") == "1" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
