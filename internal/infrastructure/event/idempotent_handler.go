package event

import (
	"context"
	"sync/atomic"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// IdempotencyStats is a snapshot of deduplication counters
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
	StoreErrs  int64 `json:"store_errors"`
}

// KeyFunc derives the deduplication key for an event
type KeyFunc func(event shared.DomainEvent) string

// EventIDKey dedupes on the event's own identifier
func EventIDKey(event shared.DomainEvent) string {
	return event.EventType() + ":" + event.EventID().String()
}

// IdempotentHandler wraps an EventHandler so that each key is handled at most
// once per TTL window, even when the same event is delivered repeatedly.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	keyFunc KeyFunc
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
	storeErrs  atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets TTL and the enabled flag
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithKeyFunc replaces the default EventIDKey
func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if fn != nil {
			h.keyFunc = fn
		}
	}
}

// NewIdempotentHandler wraps handler with store-backed deduplication
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	log *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		keyFunc: EventIDKey,
		logger:  log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event's key and runs the wrapped handler if the claim is new.
// A store failure does not block delivery: a duplicate alert beats a lost one.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled || h.store == nil {
		return h.run(ctx, event)
	}

	key := h.keyFunc(event)
	log := logger.Ctx(ctx, h.logger).With(
		zap.String("event_type", event.EventType()),
		zap.String("idempotency_key", key),
	)

	isNew, err := h.store.Claim(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.storeErrs.Add(1)
		log.Warn("idempotency store unavailable, delivering anyway", zap.Error(err))
	case !isNew:
		h.duplicates.Add(1)
		log.Debug("duplicate event skipped")
		return nil
	}

	// The key is kept on failure so a flapping channel is not hammered; it expires with the TTL
	return h.run(ctx, event)
}

func (h *IdempotentHandler) run(ctx context.Context, event shared.DomainEvent) error {
	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
		StoreErrs:  h.storeErrs.Load(),
	}
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
