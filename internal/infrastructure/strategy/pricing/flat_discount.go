package pricing

import (
	"context"
	"fmt"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FlatDiscountStrategy prices DiscountedSum bundles.
type FlatDiscountStrategy struct {
	strategy.BaseStrategy
}

// NewFlatDiscountStrategy creates a new flat discount pricing strategy
func NewFlatDiscountStrategy() *FlatDiscountStrategy {
	return &FlatDiscountStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"flat_discount",
			strategy.StrategyTypePricing,
			"Takes the same percentage off every requested variant",
		),
	}
}

func (s *FlatDiscountStrategy) Method() bundle.MethodKind {
	return bundle.MethodDiscountedSum
}

// Price applies unit = original × (1 − percent/100) to required and optional variants alike.
// The quantity multiplier does not affect the unit price.
func (s *FlatDiscountStrategy) Price(_ context.Context, in bundle.PricingInput) (map[string]decimal.Decimal, error) {
	method, ok := in.Spec.Pricing.(bundle.DiscountedSum)
	if !ok {
		return nil, fmt.Errorf("flat discount cannot price a %s bundle", in.Spec.Pricing.Kind())
	}

	// Shift(-2) divides by 100 without rounding.
	factor := decimal.NewFromInt(1).Sub(method.Percent.Shift(-2))

	prices := make(map[string]decimal.Decimal, len(in.Variants))
	for _, v := range in.Variants {
		prices[v.ID] = v.Price.Amount.Mul(factor)
	}
	return prices, nil
}
