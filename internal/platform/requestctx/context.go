package requestctx

import (
	"context"

	"go.uber.org/zap"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

type contextKey string

const (
	loggerContextKey  contextKey = "aiupd8/requestctx/logger"
	traceContextKey   contextKey = "aiupd8/requestctx/trace"
	localeContextKey  contextKey = "aiupd8/requestctx/locale"
	projectContextKey contextKey = "aiupd8/requestctx/project"
	visitorContextKey contextKey = "aiupd8/requestctx/visitor"
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores the trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace retrieves the trace metadata from context when available.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// TraceID extracts the trace identifier from context when present.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithLocale records the locale negotiated for the request.
func WithLocale(ctx context.Context, locale i18n.Locale) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey, locale)
}

// Locale returns the request locale, falling back to the site default.
func Locale(ctx context.Context) i18n.Locale {
	if ctx != nil {
		if l, ok := ctx.Value(localeContextKey).(i18n.Locale); ok && l != "" {
			return l
		}
	}
	return i18n.Default
}

// WithProject records the active project id.
func WithProject(ctx context.Context, projectID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, projectContextKey, projectID)
}

// Project returns the active project id or "" when none was negotiated.
func Project(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(projectContextKey).(string)
	return id
}

// WithVisitor records the anonymous visitor id used to key favourites.
func WithVisitor(ctx context.Context, visitorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, visitorContextKey, visitorID)
}

// Visitor returns the visitor id when present.
func Visitor(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(visitorContextKey).(string)
	return id, ok && id != ""
}
