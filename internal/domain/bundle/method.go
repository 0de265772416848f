package bundle

import (
	"github.com/shopspring/decimal"
)

// MethodKind names a pricing method. The values double as the product metadata keys
// that select the method.
type MethodKind string

const (
	MethodFixedPrice    MethodKind = "fixedPrice"
	MethodDiscountedSum MethodKind = "discountedSum"
	MethodNoDiscount    MethodKind = "noDiscount"
)

// MethodKinds lists every method in the order they are reported in foundMethods.
func MethodKinds() []MethodKind {
	return []MethodKind{MethodDiscountedSum, MethodFixedPrice, MethodNoDiscount}
}

func (k MethodKind) String() string {
	return string(k)
}

// PricingMethod is the validated pricing configuration of a bundle. Exactly one of
// FixedPrice, DiscountedSum or NoDiscount.
type PricingMethod interface {
	Kind() MethodKind
	isPricingMethod()
}

// FixedPrice sells the required variants together for Amount.
type FixedPrice struct {
	Amount decimal.Decimal
}

// DiscountedSum takes Percent off every requested variant.
type DiscountedSum struct {
	Percent decimal.Decimal
}

// NoDiscount charges the variants' own prices.
type NoDiscount struct{}

func (FixedPrice) Kind() MethodKind    { return MethodFixedPrice }
func (DiscountedSum) Kind() MethodKind { return MethodDiscountedSum }
func (NoDiscount) Kind() MethodKind    { return MethodNoDiscount }

func (FixedPrice) isPricingMethod()    {}
func (DiscountedSum) isPricingMethod() {}
func (NoDiscount) isPricingMethod()    {}
