package strategy

import (
	"github.com/kitsbundles/backend/internal/infrastructure/strategy/pricing"
)

// NewRegistryWithDefaults registers one strategy per bundle pricing method.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	if err := r.RegisterPricingStrategy(pricing.NewWeightedAllocationStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterPricingStrategy(pricing.NewFlatDiscountStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterPricingStrategy(pricing.NewPassThroughStrategy()); err != nil {
		return nil, err
	}
	return r, nil
}
