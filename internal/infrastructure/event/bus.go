package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	// ErrBusStopped is returned when publishing to a bus that has been stopped
	ErrBusStopped = errors.New("event bus stopped")
	// ErrBusNotStarted is returned when publishing to an async bus before Start
	ErrBusNotStarted = errors.New("event bus not started")
)

// envelope carries an event to the async dispatchers
type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus delivers domain events to subscribed handlers in-process.
//
// With no options every Publish dispatches synchronously. WithAsyncDelivery
// moves dispatch onto background workers so a slow alert channel never holds
// up the request that applied the movement.
type InMemoryEventBus struct {
	subs   *subscriptions
	logger *zap.Logger

	workers int
	buffer  int

	mu      sync.RWMutex
	queue   chan envelope
	running atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithAsyncDelivery dispatches events on workers goroutines fed by a queue
// of the given size. Start must be called before events are delivered.
func WithAsyncDelivery(workers, buffer int) BusOption {
	return func(b *InMemoryEventBus) {
		if workers < 1 {
			workers = 1
		}
		if buffer < 0 {
			buffer = 0
		}
		b.workers = workers
		b.buffer = buffer
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(log *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		subs:   newSubscriptions(),
		logger: log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsAsync reports whether the bus dispatches on background workers
func (b *InMemoryEventBus) IsAsync() bool {
	return b.workers > 0
}

// Publish hands events to every matching handler.
// Handler failures are logged and counted; they are never returned to the publisher.
// On an async bus Publish never blocks: events that find the queue full are
// dropped, logged and counted.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	if !b.IsAsync() {
		for _, event := range events {
			b.dispatch(ctx, event)
		}
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.queue == nil {
		if b.stopped.Load() {
			return ErrBusStopped
		}
		return ErrBusNotStarted
	}
	// Detach from the request so cancellation after the response does not drop the event
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		default:
			b.dropped.Add(1)
			logger.Ctx(ctx, b.logger).Warn("event queue full, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Int("buffer", b.buffer),
			)
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
		zap.String("handler", fmt.Sprintf("%T", handler)),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
	b.logger.Debug("handler unsubscribed", zap.String("handler", fmt.Sprintf("%T", handler)))
}

// Start launches the async dispatchers. It is a no-op for a synchronous bus.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	if b.IsAsync() {
		b.mu.Lock()
		b.queue = make(chan envelope, b.buffer)
		queue := b.queue
		b.mu.Unlock()

		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.worker(queue)
		}
	}
	b.logger.Info("event bus started",
		zap.Bool("async", b.IsAsync()),
		zap.Int("workers", b.workers),
	)
	return nil
}

// Stop drains queued events and waits for the dispatchers to exit.
// ctx bounds how long Stop waits for the drain.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.stopped.CompareAndSwap(false, true) {
		return nil
	}
	b.running.Store(false)

	b.mu.Lock()
	if b.queue != nil {
		close(b.queue)
		b.queue = nil
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out before queue drained")
		return ctx.Err()
	}

	b.logger.Info("event bus stopped",
		zap.Int64("delivered", b.delivered.Load()),
		zap.Int64("failed", b.failed.Load()),
		zap.Int64("dropped", b.dropped.Load()),
	)
	return nil
}

// Stats returns delivered and failed handler invocation counts
func (b *InMemoryEventBus) Stats() (delivered, failed int64) {
	return b.delivered.Load(), b.failed.Load()
}

// Dropped returns how many events were discarded because the async queue was full
func (b *InMemoryEventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *InMemoryEventBus) worker(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.subs.handlersFor(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.failed.Add(1)
			logger.Ctx(ctx, b.logger).Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
			continue
		}
		b.delivered.Add(1)
	}
}

// dispatchToHandler converts a handler panic into an error
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
