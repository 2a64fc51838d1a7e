package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options задаёт вывод логгера.
type Options struct {
	AppEnv string
	Format string
	Out    io.Writer
	// Escalation получает только события уровня error и выше.
	Escalation io.Writer
}

// NewLogger создаёт настроенный zerolog.
func NewLogger(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.AppEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	var w io.Writer = out
	if opts.Escalation != nil {
		w = zerolog.MultiLevelWriter(out, errorWriter{w: opts.Escalation})
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

type errorWriter struct {
	w io.Writer
}

func (e errorWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e errorWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}
