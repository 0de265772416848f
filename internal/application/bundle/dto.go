package bundle

import "github.com/kitsbundles/backend/internal/domain/bundle"

// AddBundleResult is the outcome of a successful AddBundle call.
type AddBundleResult struct {
	Spec *bundle.Spec
	// Lines are the lines sent upstream, in request order.
	Lines []bundle.Line
	// Checkout is the checkout after the lines were added. Its metadata carries the
	// updated ledger.
	Checkout *bundle.Checkout
	// NewLines are the checkout lines created by this call.
	NewLines []bundle.CheckoutLine
}

// InspectResult is the bundle product and the variants that could be fetched.
type InspectResult struct {
	Product  *bundle.Product
	Variants []bundle.VariantFacts
}
