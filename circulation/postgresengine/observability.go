package postgresengine

import (
	"context"
	"time"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	metricTxDuration  = "circulation_tx_duration_seconds"
	metricTxConflicts = "circulation_tx_conflicts_total"

	spanNameTx        = "circulation.store.tx"
	spanAttrErrorType = "error_type"

	labelStatus = "status"

	statusSuccess  = "success"
	statusConflict = "conflict"
	statusError    = "error"
)

// WithContextualLogger sets a context-aware logger for trace correlation.
// When both a Logger and a ContextualLogger are configured, the contextual
// one wins for messages that have a context at hand.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the collector for transaction duration and conflict metrics.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(s *Store) error {
		s.metrics = collector
		return nil
	}
}

// WithTracing sets the collector that wraps every transaction in a span.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(s *Store) error {
		s.tracing = collector
		return nil
	}
}

// txObservation carries the span and start time of one store transaction.
type txObservation struct {
	store     *Store
	ctx       context.Context
	span      circulation.SpanContext
	startedAt time.Time
}

func (s *Store) observeTx(ctx context.Context) (context.Context, *txObservation) {
	observation := &txObservation{store: s, ctx: ctx, startedAt: time.Now()}

	if s.tracing != nil {
		ctx, observation.span = s.tracing.StartSpan(ctx, spanNameTx, nil)
		observation.ctx = ctx
	}

	return ctx, observation
}

func (o *txObservation) finish(status string, err error) {
	o.store.recordTxDuration(o.ctx, time.Since(o.startedAt), status)

	if status == statusConflict {
		o.store.recordTxConflict(o.ctx)
	}

	if o.span == nil {
		return
	}

	attrs := map[string]string{}
	if err != nil {
		attrs[spanAttrErrorType] = err.Error()
	}

	o.store.tracing.FinishSpan(o.span, status, attrs)
}

func (s *Store) recordTxDuration(ctx context.Context, duration time.Duration, status string) {
	if s.metrics == nil {
		return
	}

	labels := map[string]string{labelStatus: status}

	if contextual, ok := s.metrics.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricTxDuration, duration, labels)
		return
	}

	s.metrics.RecordDuration(metricTxDuration, duration, labels)
}

func (s *Store) recordTxConflict(ctx context.Context) {
	if s.metrics == nil {
		return
	}

	if contextual, ok := s.metrics.(circulation.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricTxConflicts, nil)
		return
	}

	s.metrics.IncrementCounter(metricTxConflicts, nil)
}

// logInfoContext prefers the contextual logger when one is configured.
func (s *Store) logInfoContext(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
