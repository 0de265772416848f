package bundle

import (
	"context"

	"github.com/kitsbundles/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// PricingInput carries everything a pricing strategy needs.
type PricingInput struct {
	Spec *Spec
	// Variants are the requested variants in request order.
	Variants []VariantFacts
}

// PricingStrategy computes an unrounded per-unit price for every requested variant.
type PricingStrategy interface {
	strategy.Strategy
	Method() MethodKind
	Price(ctx context.Context, in PricingInput) (map[string]decimal.Decimal, error)
}

// StrategyResolver returns the strategy registered for a pricing method.
type StrategyResolver interface {
	ForMethod(kind MethodKind) (PricingStrategy, error)
}
