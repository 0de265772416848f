package bundle

import "context"

// Gateway is the commerce API as seen by the bundle pipeline. Implementations return
// *UpstreamError when the API reports errors and wrap shared.ErrNotFound when an
// entity does not exist.
type Gateway interface {
	Product(ctx context.Context, id, channel string) (*Product, error)
	Variant(ctx context.Context, id, channel string) (*VariantFacts, error)
	Checkout(ctx context.Context, id string) (*Checkout, error)
	CreateCheckout(ctx context.Context, channel string, lines []Line) (*Checkout, error)
	AddCheckoutLines(ctx context.Context, checkoutID string, lines []Line) (*Checkout, error)
	UpdateMetadata(ctx context.Context, id string, items []MetadataItem) error
}
