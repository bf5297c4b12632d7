package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
)

// CostRegistry resolves an item's valuation method to the strategy that prices it.
// Each method is served by exactly one strategy.
type CostRegistry struct {
	mu       sync.RWMutex
	byMethod map[strategy.CostMethod]strategy.CostCalculationStrategy
	names    map[string]strategy.CostMethod
}

// NewCostRegistry creates an empty registry
func NewCostRegistry() *CostRegistry {
	return &CostRegistry{
		byMethod: make(map[strategy.CostMethod]strategy.CostCalculationStrategy),
		names:    make(map[string]strategy.CostMethod),
	}
}

// Register adds s. Reusing a name or a method is rejected.
func (r *CostRegistry) Register(s strategy.CostCalculationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[s.Name()]; taken {
		return fmt.Errorf("%w: cost strategy '%s' already registered", shared.ErrAlreadyExists, s.Name())
	}
	if owner, taken := r.byMethod[s.Method()]; taken {
		return fmt.Errorf("%w: cost method '%s' already served by '%s'", shared.ErrAlreadyExists, s.Method(), owner.Name())
	}
	r.byMethod[s.Method()] = s
	r.names[s.Name()] = s.Method()
	return nil
}

// ForMethod returns the strategy serving method
func (r *CostRegistry) ForMethod(method strategy.CostMethod) (strategy.CostCalculationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: no cost strategy for method '%s'", shared.ErrNotFound, method)
	}
	return s, nil
}

// Methods returns the served methods in name order
func (r *CostRegistry) Methods() []strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)

	methods := make([]strategy.CostMethod, len(names))
	for i, name := range names {
		methods[i] = r.names[name]
	}
	return methods
}

// Unregister removes the strategy serving method
func (r *CostRegistry) Unregister(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byMethod[method]
	if !ok {
		return fmt.Errorf("%w: no cost strategy for method '%s'", shared.ErrNotFound, method)
	}
	delete(r.byMethod, method)
	delete(r.names, s.Name())
	return nil
}
