package event

import (
	"maps"
	"slices"
	"sync"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
)

// anyType is the subscription key for handlers that receive every event
const anyType = "*"

// subscriptions maps event types to handlers in subscription order
type subscriptions struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

// add subscribes h to eventTypes, or to every type when none are given.
// A repeated subscription is ignored.
func (s *subscriptions) add(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{anyType}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		if !slices.Contains(s.byType[t], h) {
			s.byType[t] = append(s.byType[t], h)
		}
	}
}

// remove drops every subscription held by h
func (s *subscriptions) remove(h shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, handlers := range s.byType {
		handlers = slices.DeleteFunc(slices.Clone(handlers), func(x shared.EventHandler) bool { return x == h })
		if len(handlers) == 0 {
			delete(s.byType, t)
		} else {
			s.byType[t] = handlers
		}
	}
}

// handlersFor returns the handlers subscribed to eventType, then the catch-all ones
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Concat(s.byType[eventType], s.byType[anyType])
}

// types returns the sorted event types with a dedicated subscriber
func (s *subscriptions) types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := slices.Sorted(maps.Keys(s.byType))
	return slices.DeleteFunc(types, func(t string) bool { return t == anyType })
}
