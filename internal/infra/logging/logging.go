package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/config"
)

// New builds the process logger. Levels: trace|debug|info|warn|error;
// formats: json|console. Dev mode forces console output with callers and
// disables sampling.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return newWithWriter(cfg, dev, os.Stdout)
}

func newWithWriter(cfg config.LogConfig, dev bool, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	out := w
	if dev || strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zc := zerolog.New(out).With().Timestamp().Str("service", "ai-coach-chat")
	if dev {
		zc = zc.Caller()
	}
	l := zc.Logger()
	if cfg.Sampling && !dev {
		// first 100 per second, then every 100th
		l = l.Sample(&zerolog.BurstSampler{Burst: 100, Period: time.Second, NextSampler: &zerolog.BasicSampler{N: 100}})
	}
	return &l
}

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxUserID  ctxKey = "user_id"
	ctxJobID   ctxKey = "job_id"
)

// With returns base enriched with the trace_id, user_id and job_id carried
// by ctx.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	zc := base.With()
	for _, k := range []ctxKey{ctxTraceID, ctxUserID, ctxJobID} {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			zc = zc.Str(string(k), v)
		}
	}
	l := zc.Logger()
	return &l
}

// TraceDuration logs entry and exit of name at trace level.
//
//	defer logging.TraceDuration(logger, "ChatJobUC.CreateJob")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact shortens user identifiers (emails) outside dev mode.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	r := []rune(s)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:4]) + "..." + string(r[len(r)-2:])
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}

func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxJobID, id)
}

func TraceIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}

// Detach keeps the values of ctx but not its cancellation or deadline.
// Background work started from a request uses this.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
