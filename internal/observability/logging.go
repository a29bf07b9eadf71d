// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// StoreLogger provides structured logging for entity store operations.
type StoreLogger struct {
	component string
	logger    *Logger
}

// NewStoreLogger creates a new StoreLogger for the given component.
func NewStoreLogger(component string) *StoreLogger {
	return &StoreLogger{
		component: component,
		logger:    GlobalLogger,
	}
}

// LogError logs a store operation that failed for good.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "store error",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogRetry logs a retried store operation before the backoff sleep.
func (l *StoreLogger) LogRetry(ctx context.Context, operation string, attempt int, err error) {
	l.logger.WarnContext(ctx, "store retry",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
}

// FeedLogger provides structured logging for feed hub operations.
type FeedLogger struct {
	logger *Logger
}

// NewFeedLogger creates a new FeedLogger.
func NewFeedLogger() *FeedLogger {
	return &FeedLogger{logger: GlobalLogger}
}

// LogSubscribe logs a feed subscription event.
func (l *FeedLogger) LogSubscribe(ctx context.Context, userID string) {
	l.logger.InfoContext(ctx, "feed subscribed",
		slog.String("user_id", userID),
	)
}

// LogUnsubscribe logs a feed unsubscription event.
func (l *FeedLogger) LogUnsubscribe(ctx context.Context, userID string, reason string) {
	l.logger.InfoContext(ctx, "feed unsubscribed",
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
}

// LogPublish logs a published feed snapshot.
func (l *FeedLogger) LogPublish(ctx context.Context, posts int, subscribers int) {
	l.logger.InfoContext(ctx, "feed snapshot published",
		slog.Int("posts", posts),
		slog.Int("subscribers", subscribers),
	)
}

// LogError logs a feed hub error.
func (l *FeedLogger) LogError(ctx context.Context, err error, event string) {
	l.logger.ErrorContext(ctx, "feed error",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}
