package pricing

import (
	"context"
	"fmt"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// WeightedAllocationStrategy prices FixedPrice bundles. The fixed price is shared among
// the required variants in proportion to their original prices, then divided by each
// variant's quantity multiplier so that unit × line quantity adds back up to the price.
type WeightedAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewWeightedAllocationStrategy creates a new weighted allocation pricing strategy
func NewWeightedAllocationStrategy() *WeightedAllocationStrategy {
	return &WeightedAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"weighted_allocation",
			strategy.StrategyTypePricing,
			"Distributes a fixed bundle price across required variants by value",
		),
	}
}

func (s *WeightedAllocationStrategy) Method() bundle.MethodKind {
	return bundle.MethodFixedPrice
}

// Price computes, per requested variant:
//
//	required: fixedPrice × original / Σ original(required) / multiplier
//	optional: (override or original) / multiplier
//	other:    original
func (s *WeightedAllocationStrategy) Price(_ context.Context, in bundle.PricingInput) (map[string]decimal.Decimal, error) {
	method, ok := in.Spec.Pricing.(bundle.FixedPrice)
	if !ok {
		return nil, fmt.Errorf("weighted allocation cannot price a %s bundle", in.Spec.Pricing.Kind())
	}

	facts := make(map[string]bundle.VariantFacts, len(in.Variants))
	currency := ""
	for _, v := range in.Variants {
		facts[v.ID] = v
		if currency == "" {
			currency = v.Price.Currency
		} else if v.Price.Currency != "" && v.Price.Currency != currency {
			return nil, bundle.NewValidationError(
				bundle.MsgInvalidConfiguration + ": variants are priced in different currencies")
		}
	}

	total := decimal.Zero
	for _, id := range in.Spec.RequiredVariantIDs {
		v, ok := facts[id]
		if !ok {
			return nil, fmt.Errorf("required variant %s was not fetched", id)
		}
		total = total.Add(v.Price.Amount)
	}
	if total.IsZero() {
		return nil, bundle.NewValidationError(
			bundle.MsgInvalidConfiguration + ": required variants have zero total price")
	}

	prices := make(map[string]decimal.Decimal, len(in.Variants))
	for _, v := range in.Variants {
		original := v.Price.Amount

		if !in.Spec.IsRequired(v.ID) && !in.Spec.IsOptional(v.ID) {
			prices[v.ID] = original
			continue
		}

		multiplier, ok := in.Spec.QuantityMap[v.ID]
		if !ok || multiplier <= 0 {
			return nil, fmt.Errorf("variant %s has no positive quantity multiplier", v.ID)
		}
		divisor := decimal.NewFromInt(int64(multiplier))

		if in.Spec.IsRequired(v.ID) {
			prices[v.ID] = method.Amount.Mul(original).Div(total.Mul(divisor))
			continue
		}

		base := original
		if override := in.Spec.OptionalVariantPrices[v.ID]; override != nil {
			base = *override
		}
		prices[v.ID] = base.Div(divisor)
	}
	return prices, nil
}
