package bundle

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Line metadata keys written on every checkout line added by a bundle.
const (
	LineMetaName    = "bundle_name"
	LineMetaStatus  = "bundle_status"
	LineMetaMessage = "bundle_message"
)

// PricePlaces is the number of decimal places sent upstream for unit prices.
const PricePlaces = 2

// LineStatus is the role a checkout line plays in its bundle.
type LineStatus string

const (
	StatusRequired LineStatus = "required"
	StatusOptional LineStatus = "optional"
	StatusUnknown  LineStatus = "unknown"
)

// Message is the human readable note stored next to the status.
func (s LineStatus) Message(bundleName string) string {
	switch s {
	case StatusRequired:
		return fmt.Sprintf("Required item of bundle %s", bundleName)
	case StatusOptional:
		return fmt.Sprintf("Optional add-on of bundle %s", bundleName)
	default:
		return fmt.Sprintf("Item added with bundle %s", bundleName)
	}
}

// Line is one checkout line to be created for a requested variant.
type Line struct {
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// BuildLines turns per-unit prices into checkout lines in request order.
// Quantity is QuantityMap[id] × bundleQuantity for every pricing method.
func BuildLines(spec *Spec, requested []string, prices map[string]decimal.Decimal, bundleQuantity int) ([]Line, error) {
	lines := make([]Line, 0, len(requested))
	for _, id := range requested {
		multiplier, ok := spec.QuantityMap[id]
		if !ok {
			return nil, fmt.Errorf("no quantity multiplier for variant %s", id)
		}
		if bundleQuantity > 0 && multiplier > math.MaxInt/bundleQuantity {
			return nil, invalidConfig(MetaQuantities,
				fmt.Errorf("quantity %d for %s overflows at bundle quantity %d", multiplier, id, bundleQuantity))
		}
		price, ok := prices[id]
		if !ok {
			return nil, fmt.Errorf("no price computed for variant %s", id)
		}
		lines = append(lines, Line{
			VariantID: id,
			Quantity:  multiplier * bundleQuantity,
			UnitPrice: price.Round(PricePlaces),
		})
	}
	return lines, nil
}

// LineMetadata returns the three bookkeeping entries for a line holding variantID.
func LineMetadata(spec *Spec, variantID string) []MetadataItem {
	status := spec.StatusOf(variantID)
	return []MetadataItem{
		{Key: LineMetaName, Value: spec.Name},
		{Key: LineMetaStatus, Value: string(status)},
		{Key: LineMetaMessage, Value: status.Message(spec.Name)},
	}
}
