// Package logger defines the logging contract used across the SDK and a
// zerolog-backed implementation of it.
package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Logger is the minimal structured logging surface the SDK depends on.
// Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
}

// New creates a Logger writing structured JSON lines to w.
func New(w io.Writer) *ZeroLogger {
	return &ZeroLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: l}
}

// Nop returns a Logger that discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{logger: zerolog.Nop()}
}

func (l *ZeroLogger) Debug(msg string, args ...any) {
	emit(l.logger.Debug(), msg, args)
}

func (l *ZeroLogger) Info(msg string, args ...any) {
	emit(l.logger.Info(), msg, args)
}

func (l *ZeroLogger) Warn(msg string, args ...any) {
	emit(l.logger.Warn(), msg, args)
}

func (l *ZeroLogger) Error(msg string, args ...any) {
	emit(l.logger.Error(), msg, args)
}

func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
