package bundle

import "fmt"

// MaxBundleQuantity bounds bundle_quantity so line quantities stay far from int overflow.
const MaxBundleQuantity = 10000

// Request is an inbound add-bundle call.
type Request struct {
	ProductID      string
	BundleQuantity int
	Variants       []string
	CheckoutID     string
}

// Validate performs the structural checks, in order: product_id, bundle_quantity, variants.
// A nil Variants slice means the field was absent; an empty slice is accepted. Each
// variant id may appear once.
func (r *Request) Validate() error {
	switch {
	case r.ProductID == "":
		return NewValidationError("product_id is required")
	case r.BundleQuantity == 0:
		return NewValidationError("bundle_quantity is required")
	case r.BundleQuantity < 0:
		return NewValidationError("bundle_quantity must be a positive integer")
	case r.BundleQuantity > MaxBundleQuantity:
		return NewValidationError(fmt.Sprintf("bundle_quantity must be at most %d", MaxBundleQuantity))
	case r.Variants == nil:
		return NewValidationError("variants array is required")
	}
	seen := make(map[string]struct{}, len(r.Variants))
	for _, id := range r.Variants {
		if id == "" {
			return NewValidationError("variants must not contain empty ids")
		}
		if _, dup := seen[id]; dup {
			return NewValidationError("variants must not contain duplicate ids")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// RequestedVariants returns a copy of the requested variant ids in request order, which
// is also the stock scan order.
func (r *Request) RequestedVariants() []string {
	return append(make([]string, 0, len(r.Variants)), r.Variants...)
}
