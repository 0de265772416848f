package dto

import "github.com/kitsbundles/backend/internal/domain/bundle"

// MsgBundleProcessed is the message of every successful bundle call.
const MsgBundleProcessed = "Bundle processed successfully"

// MetadataItem is one metadata entry as exposed by the commerce API.
type MetadataItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Money mirrors the commerce API's {amount, currency}.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// TaxedMoney mirrors the commerce API's gross-only price shape.
type TaxedMoney struct {
	Gross Money `json:"gross"`
}

type VariantRef struct {
	ID string `json:"id"`
}

// CheckoutLine is one line of the returned checkout.
type CheckoutLine struct {
	ID        string     `json:"id"`
	Quantity  int        `json:"quantity"`
	Variant   VariantRef `json:"variant"`
	UnitPrice TaxedMoney `json:"unitPrice"`
}

// Checkout is the checkout returned by add-bundle.
type Checkout struct {
	ID         string         `json:"id"`
	Token      string         `json:"token"`
	Lines      []CheckoutLine `json:"lines"`
	TotalPrice TaxedMoney     `json:"totalPrice"`
	Metadata   []MetadataItem `json:"metadata"`
}

// AddBundleResponse is the body of a successful add-bundle call.
type AddBundleResponse struct {
	Message  string   `json:"message"`
	Checkout Checkout `json:"checkout"`
}

// Product is the bundle product as read upstream.
type Product struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata []MetadataItem `json:"metadata"`
}

type VariantPricing struct {
	Price TaxedMoney `json:"price"`
}

// Variant is one entry of variantDetails.
type Variant struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	SKU               string         `json:"sku"`
	QuantityAvailable int            `json:"quantityAvailable"`
	Pricing           VariantPricing `json:"pricing"`
}

// InspectBundleResponse is the body of a successful inspect-bundle call.
type InspectBundleResponse struct {
	Message        string    `json:"message"`
	ProductData    Product   `json:"productData"`
	VariantDetails []Variant `json:"variantDetails"`
}

func toMetadata(items []bundle.MetadataItem) []MetadataItem {
	out := make([]MetadataItem, len(items))
	for i, item := range items {
		out[i] = MetadataItem{Key: item.Key, Value: item.Value}
	}
	return out
}

func toTaxedMoney(m bundle.Money) TaxedMoney {
	return TaxedMoney{Gross: Money{Amount: m.Amount.InexactFloat64(), Currency: m.Currency}}
}

// NewCheckout converts a domain checkout.
func NewCheckout(c *bundle.Checkout) Checkout {
	lines := make([]CheckoutLine, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = CheckoutLine{
			ID:        l.ID,
			Quantity:  l.Quantity,
			Variant:   VariantRef{ID: l.VariantID},
			UnitPrice: toTaxedMoney(l.UnitPrice),
		}
	}
	return Checkout{
		ID:         c.ID,
		Token:      c.Token,
		Lines:      lines,
		TotalPrice: toTaxedMoney(c.TotalPrice),
		Metadata:   toMetadata(c.Metadata),
	}
}

// NewProduct converts a domain product.
func NewProduct(p *bundle.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Metadata: toMetadata(p.Metadata)}
}

// NewVariants converts fetched variant facts, keeping their order.
func NewVariants(variants []bundle.VariantFacts) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		out[i] = Variant{
			ID:                v.ID,
			Name:              v.Name,
			SKU:               v.SKU,
			QuantityAvailable: v.QuantityAvailable,
			Pricing:           VariantPricing{Price: toTaxedMoney(v.Price)},
		}
	}
	return out
}
