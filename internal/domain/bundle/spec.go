package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product metadata keys describing a bundle, besides the pricing method keys.
const (
	MetaRequired   = "required"
	MetaOptional   = "optional"
	MetaQuantities = "quantities"
)

// Spec is the validated bundle definition of one product. It is rebuilt from product
// metadata on every request.
type Spec struct {
	ProductID string
	Name      string
	Pricing   PricingMethod

	RequiredVariantIDs []string
	// OptionalVariantPrices keys define the optional set. A nil price means the
	// variant keeps its original price.
	OptionalVariantPrices map[string]*decimal.Decimal
	QuantityMap           map[string]int

	required map[string]struct{}

	// raw metadata values, decoded by CheckQuantities
	rawOptional   string
	rawQuantities string
}

// ResolvePricingMethod finds the single pricing method key on the product.
func ResolvePricingMethod(p *Product) (MethodKind, error) {
	var found []string
	for _, kind := range MethodKinds() {
		if p.HasMetadata(kind.String()) {
			found = append(found, kind.String())
		}
	}

	switch len(found) {
	case 0:
		return "", NewValidationError(MsgPricingNotSet)
	case 1:
		return MethodKind(found[0]), nil
	default:
		err := NewValidationError(MsgMultiplePricing)
		err.FoundMethods = found
		return "", err
	}
}

// ParseSpec builds a Spec from product metadata. The pricing method must be unique and
// the required list well-formed. The optional and quantities values are kept raw until
// CheckQuantities, so a missing required variant is reported before a bad quantity map.
func ParseSpec(p *Product) (*Spec, error) {
	kind, err := ResolvePricingMethod(p)
	if err != nil {
		return nil, err
	}

	pricing, err := parsePricing(p, kind)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		ProductID:             p.ID,
		Name:                  p.Name,
		Pricing:               pricing,
		OptionalVariantPrices: map[string]*decimal.Decimal{},
		QuantityMap:           map[string]int{},
		required:              map[string]struct{}{},
	}

	if raw, ok := p.MetadataValue(MetaRequired); ok && raw != "" {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, invalidConfig(MetaRequired, err)
		}
		for _, id := range ids {
			if _, dup := spec.required[id]; dup {
				continue
			}
			spec.required[id] = struct{}{}
			spec.RequiredVariantIDs = append(spec.RequiredVariantIDs, id)
		}
	}

	spec.rawOptional, _ = p.MetadataValue(MetaOptional)
	spec.rawQuantities, _ = p.MetadataValue(MetaQuantities)

	return spec, nil
}

func parsePricing(p *Product, kind MethodKind) (PricingMethod, error) {
	raw, _ := p.MetadataValue(kind.String())

	switch kind {
	case MethodFixedPrice:
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, invalidConfig(kind.String(), err)
		}
		if amount.IsNegative() {
			return nil, invalidConfig(kind.String(), fmt.Errorf("amount %s is negative", raw))
		}
		return FixedPrice{Amount: amount}, nil
	case MethodDiscountedSum:
		percent, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, invalidConfig(kind.String(), err)
		}
		if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, invalidConfig(kind.String(), fmt.Errorf("percent %s is outside 0-100", raw))
		}
		return DiscountedSum{Percent: percent}, nil
	default:
		return NoDiscount{}, nil
	}
}

// parseOptional accepts either {"id": price|null} or a plain ["id", ...] list.
func parseOptional(raw string) (map[string]*decimal.Decimal, error) {
	out := map[string]*decimal.Decimal{}

	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[id] = nil
		}
		return out, nil
	}

	var prices map[string]*decimal.Decimal
	if err := json.Unmarshal(trimmed, &prices); err != nil {
		return nil, err
	}
	for id, price := range prices {
		if price != nil && price.IsNegative() {
			return nil, fmt.Errorf("price for %s is negative", id)
		}
		out[id] = price
	}
	return out, nil
}

func parseQuantities(raw string) (map[string]int, error) {
	var quantities map[string]int
	if err := json.Unmarshal([]byte(raw), &quantities); err != nil {
		return nil, err
	}
	for id, qty := range quantities {
		if qty <= 0 {
			return nil, fmt.Errorf("quantity for %s must be positive, got %d", id, qty)
		}
	}
	return quantities, nil
}

func invalidConfig(key string, cause error) *Error {
	err := NewValidationError(fmt.Sprintf("%s: %s", MsgInvalidConfiguration, key))
	err.Cause = cause
	return err
}

// CheckRequired fails with the required ids that are absent from requested.
func (s *Spec) CheckRequired(requested []string) error {
	present := toSet(requested)
	var missing []string
	for _, id := range s.RequiredVariantIDs {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		err := NewValidationError(MsgRequiredMissing)
		err.MissingVariants = missing
		return err
	}
	return nil
}

// CheckQuantities decodes the quantities and optional metadata, then fails with the
// requested ids that have no quantity multiplier.
func (s *Spec) CheckQuantities(requested []string) error {
	if s.rawQuantities != "" {
		quantities, err := parseQuantities(s.rawQuantities)
		if err != nil {
			return invalidConfig(MetaQuantities, err)
		}
		s.QuantityMap = quantities
		s.rawQuantities = ""
	}

	var missing []string
	for _, id := range requested {
		if _, ok := s.QuantityMap[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		err := NewValidationError(MsgQuantityMissing)
		err.MissingQuantityVariants = missing
		return err
	}

	if s.rawOptional != "" {
		optional, err := parseOptional(s.rawOptional)
		if err != nil {
			return invalidConfig(MetaOptional, err)
		}
		s.OptionalVariantPrices = optional
		s.rawOptional = ""
	}
	return nil
}

// IsRequired reports whether id is one of the bundle's required variants.
func (s *Spec) IsRequired(id string) bool {
	if s.required == nil {
		s.required = toSet(s.RequiredVariantIDs)
	}
	_, ok := s.required[id]
	return ok
}

// IsOptional reports whether id is one of the bundle's optional variants.
func (s *Spec) IsOptional(id string) bool {
	_, ok := s.OptionalVariantPrices[id]
	return ok
}

// StatusOf classifies a variant within the bundle. Required wins over optional.
func (s *Spec) StatusOf(id string) LineStatus {
	switch {
	case s.IsRequired(id):
		return StatusRequired
	case s.IsOptional(id):
		return StatusOptional
	default:
		return StatusUnknown
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
