package strategy

import (
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults creates a registry serving FIFO, LIFO and AVG
func NewRegistryWithDefaults() (*CostRegistry, error) {
	r := NewCostRegistry()
	for _, s := range []strategy.CostCalculationStrategy{
		cost.NewFIFOCostStrategy(),
		cost.NewLIFOCostStrategy(),
		cost.NewMovingAverageCostStrategy(),
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}
