package pricing

import (
	"context"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// PassThroughStrategy prices NoDiscount bundles: every variant keeps its own price.
type PassThroughStrategy struct {
	strategy.BaseStrategy
}

// NewPassThroughStrategy creates a new pass-through pricing strategy
func NewPassThroughStrategy() *PassThroughStrategy {
	return &PassThroughStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"pass_through",
			strategy.StrategyTypePricing,
			"Charges each variant its original unit price",
		),
	}
}

func (s *PassThroughStrategy) Method() bundle.MethodKind {
	return bundle.MethodNoDiscount
}

// Price returns the original unit price of every requested variant.
func (s *PassThroughStrategy) Price(_ context.Context, in bundle.PricingInput) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(in.Variants))
	for _, v := range in.Variants {
		prices[v.ID] = v.Price.Amount
	}
	return prices, nil
}
