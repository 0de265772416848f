package bundle

import "github.com/shopspring/decimal"

// MetadataItem is one key/value pair of upstream metadata.
type MetadataItem struct {
	Key   string
	Value string
}

// Product is the bundle product as read from the commerce API.
type Product struct {
	ID       string
	Name     string
	Metadata []MetadataItem
}

// MetadataValue returns the value stored under key.
func (p *Product) MetadataValue(key string) (string, bool) {
	return lookup(p.Metadata, key)
}

// HasMetadata reports whether key is present, whatever its value.
func (p *Product) HasMetadata(key string) bool {
	_, ok := lookup(p.Metadata, key)
	return ok
}

func lookup(items []MetadataItem, key string) (string, bool) {
	for _, item := range items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return "", false
}

// Money is an amount in a currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// VariantFacts is the price and availability of one variant in the sales channel.
type VariantFacts struct {
	ID                string
	Name              string
	SKU               string
	Price             Money
	QuantityAvailable int
}

// InStock reports whether at least one unit can be sold.
func (v *VariantFacts) InStock() bool {
	return v.QuantityAvailable > 0
}
