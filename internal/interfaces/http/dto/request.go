package dto

import "github.com/kitsbundles/backend/internal/domain/bundle"

// AddBundleRequest is the body of add-bundle and inspect-bundle. Binding failures are
// reported field by field in declaration order.
type AddBundleRequest struct {
	ProductID      string   `json:"product_id" binding:"required"`
	BundleQuantity int      `json:"bundle_quantity" binding:"required,min=1,max=10000"`
	Variants       []string `json:"variants" binding:"required,unique,dive,required"`
	CheckoutID     string   `json:"checkoutId"`
}

// ToDomain converts the request.
func (r AddBundleRequest) ToDomain() bundle.Request {
	return bundle.Request{
		ProductID:      r.ProductID,
		BundleQuantity: r.BundleQuantity,
		Variants:       r.Variants,
		CheckoutID:     r.CheckoutID,
	}
}
