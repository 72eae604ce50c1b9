package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kwakusharp7/fleet-managment/pkg/env"
	"github.com/Kwakusharp7/fleet-managment/pkg/instance"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. Format falls back to LOG_FORMAT.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Format      string
	Output      io.Writer
}

// Logger carries per-request fields through context.Context.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.Get("LOG_FORMAT", FormatJSON)
	}
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	base := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", opts.ServiceName).
		Str("instance", instance.GetID()).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// ParseLevel maps a configured level name to zerolog, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return &l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := build(l.from(ctx).With()).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

// WithActor tags entries with the identity asserted by the caller.
func (l *Logger) WithActor(ctx context.Context, actorID, role string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("actor_id", actorID).Str("actor_role", role)
	})
}

func (l *Logger) WithLoadID(ctx context.Context, loadID string) context.Context {
	return l.WithField(ctx, "load_id", loadID)
}

func (l *Logger) WithProject(ctx context.Context, projectCode string) context.Context {
	return l.WithField(ctx, "project_code", projectCode)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.from(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.from(ctx).Warn()
	if l.warnStack {
		event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always attaches a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.from(ctx).Error().Err(err).Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
