package saleor

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/kitsbundles/backend/internal/domain/bundle"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// mutationError is the per-payload error list returned by Saleor mutations.
type mutationError struct {
	Field   *string `json:"field"`
	Message string  `json:"message"`
	Code    string  `json:"code"`
}

// ---------------------------------------------------------------------------
// Shared shapes
// ---------------------------------------------------------------------------

type metadataItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type taxedMoney struct {
	Gross money `json:"gross"`
}

func (m money) toDomain() bundle.Money {
	return bundle.Money{Amount: m.Amount, Currency: m.Currency}
}

func toDomainMetadata(items []metadataItem) []bundle.MetadataItem {
	out := make([]bundle.MetadataItem, 0, len(items))
	for _, item := range items {
		out = append(out, bundle.MetadataItem{Key: item.Key, Value: item.Value})
	}
	return out
}

func fromDomainMetadata(items []bundle.MetadataItem) []metadataItem {
	out := make([]metadataItem, 0, len(items))
	for _, item := range items {
		out = append(out, metadataItem{Key: item.Key, Value: item.Value})
	}
	return out
}

// ---------------------------------------------------------------------------
// Product and variant
// ---------------------------------------------------------------------------

type productData struct {
	Product *product `json:"product"`
}

type product struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata []metadataItem `json:"metadata"`
}

type variantData struct {
	ProductVariant *productVariant `json:"productVariant"`
}

type productVariant struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	QuantityAvailable *int   `json:"quantityAvailable"`
	Pricing           *struct {
		Price *taxedMoney `json:"price"`
	} `json:"pricing"`
}

func (v *productVariant) toDomain() *bundle.VariantFacts {
	facts := &bundle.VariantFacts{
		ID:   v.ID,
		Name: v.Name,
		SKU:  v.SKU,
	}
	// a null quantityAvailable counts as zero
	if v.QuantityAvailable != nil {
		facts.QuantityAvailable = *v.QuantityAvailable
	}
	if v.Pricing != nil && v.Pricing.Price != nil {
		facts.Price = v.Pricing.Price.Gross.toDomain()
	}
	return facts
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

type checkout struct {
	ID         string         `json:"id"`
	Token      string         `json:"token"`
	TotalPrice *taxedMoney    `json:"totalPrice"`
	Metadata   []metadataItem `json:"metadata"`
	Lines      []checkoutLine `json:"lines"`
}

type checkoutLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Variant  struct {
		ID string `json:"id"`
	} `json:"variant"`
	UnitPrice *taxedMoney `json:"unitPrice"`
}

func (c *checkout) toDomain() *bundle.Checkout {
	out := &bundle.Checkout{
		ID:       c.ID,
		Token:    c.Token,
		Metadata: toDomainMetadata(c.Metadata),
		Lines:    make([]bundle.CheckoutLine, 0, len(c.Lines)),
	}
	if c.TotalPrice != nil {
		out.TotalPrice = c.TotalPrice.Gross.toDomain()
	}
	for _, line := range c.Lines {
		l := bundle.CheckoutLine{
			ID:        line.ID,
			VariantID: line.Variant.ID,
			Quantity:  line.Quantity,
		}
		if line.UnitPrice != nil {
			l.UnitPrice = line.UnitPrice.Gross.toDomain()
		}
		out.Lines = append(out.Lines, l)
	}
	return out
}

type checkoutData struct {
	Checkout *checkout `json:"checkout"`
}

type checkoutPayload struct {
	Checkout *checkout       `json:"checkout"`
	Errors   []mutationError `json:"errors"`
}

type checkoutCreateData struct {
	CheckoutCreate *checkoutPayload `json:"checkoutCreate"`
}

type checkoutLinesAddData struct {
	CheckoutLinesAdd *checkoutPayload `json:"checkoutLinesAdd"`
}

type updateMetadataData struct {
	UpdateMetadata *struct {
		Errors []mutationError `json:"errors"`
	} `json:"updateMetadata"`
}

// checkoutLineInput is one line sent to checkoutCreate or checkoutLinesAdd. The price is
// a JSON number with exactly two decimal places. ForceNewLine disables Saleor's matching
// of lines by variant.
type checkoutLineInput struct {
	VariantID    string      `json:"variantId"`
	Quantity     int         `json:"quantity"`
	Price        json.Number `json:"price"`
	ForceNewLine bool        `json:"forceNewLine"`
}

func toLineInputs(lines []bundle.Line) []checkoutLineInput {
	out := make([]checkoutLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, checkoutLineInput{
			VariantID:    line.VariantID,
			Quantity:     line.Quantity,
			Price:        json.Number(line.UnitPrice.StringFixed(bundle.PricePlaces)),
			ForceNewLine: true,
		})
	}
	return out
}
