package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMetrics tracks idempotency-related statistics
type IdempotencyMetrics struct {
	EventsProcessed atomic.Int64
	EventsDuplicate atomic.Int64
	EventsFailed    atomic.Int64
}

// Stats returns a snapshot of the current metrics
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: m.EventsProcessed.Load(),
		EventsDuplicate: m.EventsDuplicate.Load(),
		EventsFailed:    m.EventsFailed.Load(),
	}
}

// IdempotencyStats is a snapshot of idempotency metrics
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// ByOutcome keys the snapshot by step outcome for the saga.steps counter
func (s IdempotencyStats) ByOutcome() map[string]int64 {
	return map[string]int64{
		"processed": s.EventsProcessed,
		"duplicate": s.EventsDuplicate,
		"failed":    s.EventsFailed,
	}
}

// IdempotentHandler runs a saga step at most once per event. With a locker
// it also serializes steps that touch the same aggregate across processes.
// A failed step forgets its key so the outbox retry runs it again.
type IdempotentHandler struct {
	handler     shared.EventHandler
	store       shared.IdempotencyStore
	locker      shared.Locker
	lockTTL     time.Duration
	config      shared.IdempotencyConfig
	logger      *zap.Logger
	metrics     *IdempotencyMetrics
	handlerName string
}

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithIdempotencyMetrics sets the metrics collector
func WithIdempotencyMetrics(metrics *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// WithStepLock holds a lock keyed by the event's aggregate while the step runs
func WithStepLock(locker shared.Locker, ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.locker = locker
		h.lockTTL = ttl
	}
}

// WithHandlerName scopes idempotency keys, so two handlers of the same
// event keep separate marks
func WithHandlerName(name string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.handlerName = name
	}
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
		lockTTL: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes returns the event types this handler is interested in
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event with idempotency checking
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.locker != nil {
		lock, err := h.locker.Obtain(ctx, "saga:"+event.AggregateType()+":"+event.AggregateID().String(), h.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("failed to release step lock", zap.Error(err))
			}
		}()
	}

	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.key(event)
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		// Saga steps are themselves state-checked, so running twice is safe
		h.logger.Warn("failed to check idempotency, processing anyway",
			zap.String("event_id", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	} else if !isNew {
		h.metrics.EventsDuplicate.Add(1)
		h.logger.Debug("duplicate event detected, skipping",
			zap.String("event_id", key),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.EventsFailed.Add(1)
		h.logger.Error("event handler failed",
			zap.String("event_id", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		if fErr := h.store.Forget(context.WithoutCancel(ctx), key); fErr != nil {
			h.logger.Warn("failed to forget idempotency key", zap.String("event_id", key), zap.Error(fErr))
		}
		return err
	}

	h.metrics.EventsProcessed.Add(1)
	h.logger.Debug("event processed successfully",
		zap.String("event_id", key),
		zap.String("event_type", event.EventType()),
	)

	return nil
}

func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	if h.handlerName == "" {
		return event.EventID().String()
	}
	return h.handlerName + ":" + event.EventID().String()
}

// GetMetrics returns the metrics for this handler
func (h *IdempotentHandler) GetMetrics() *IdempotencyMetrics {
	return h.metrics
}

// GetWrappedHandler returns the underlying handler
func (h *IdempotentHandler) GetWrappedHandler() shared.EventHandler {
	return h.handler
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

// WrapHandlersWithIdempotency wraps multiple handlers with idempotency checking
func WrapHandlersWithIdempotency(
	handlers []shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) []shared.EventHandler {
	wrapped := make([]shared.EventHandler, len(handlers))
	for i, h := range handlers {
		wrapped[i] = NewIdempotentHandler(h, store, logger, opts...)
	}
	return wrapped
}
