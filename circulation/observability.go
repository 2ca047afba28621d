package circulation

import (
	"context"
	"strconv"
	"time"
)

// Logger interface for operational logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// This interface is dependency-free, allowing users to integrate with any logging
// backend (OpenTelemetry, structured loggers, etc.) that supports context-based
// correlation and automatic trace/span ID inclusion.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods
// for better tracing integration. Implementations can use the context for trace
// correlation, span propagation, and other contextual metadata. This interface is
// optional - callers use the context-aware methods when available, falling back
// to the base MetricsCollector interface for backward compatibility.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from
// lifecycle operations. Dependency-free like MetricsCollector, so any tracing
// backend (OpenTelemetry, Jaeger, Zipkin, etc.) can be plugged in.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

const (
	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "BorrowResource")
	//   - attempt_number: Which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: Category of error causing retry (e.g., "tx_conflict")
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks retry backoff delays in command handlers.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"
)

const (
	// LogAttrCommandType identifies the command type in logs and metric labels.
	LogAttrCommandType = "command_type"

	// LogAttrAttemptNumber identifies the retry attempt number in metric labels.
	LogAttrAttemptNumber = "attempt_number"

	// LogAttrErrorType categorizes the error causing a retry in metric labels.
	LogAttrErrorType = "error_type"
)

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}
