package bundle

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(meta ...string) *Product {
	p := &Product{ID: "UHJvZHVjdDox", Name: "Starter Kit"}
	for i := 0; i+1 < len(meta); i += 2 {
		p.Metadata = append(p.Metadata, MetadataItem{Key: meta[i], Value: meta[i+1]})
	}
	return p
}

func asBundleError(t *testing.T, err error) *Error {
	t.Helper()
	var bErr *Error
	require.True(t, errors.As(err, &bErr), "expected *bundle.Error, got %T", err)
	return bErr
}

func TestResolvePricingMethod(t *testing.T) {
	tests := []struct {
		name      string
		product   *Product
		want      MethodKind
		wantMsg   string
		wantFound []string
	}{
		{
			name:    "no method",
			product: product(MetaRequired, `["V1"]`),
			wantMsg: MsgPricingNotSet,
		},
		{
			name:    "fixed price",
			product: product("fixedPrice", "100"),
			want:    MethodFixedPrice,
		},
		{
			name:    "discounted sum",
			product: product("discountedSum", "10"),
			want:    MethodDiscountedSum,
		},
		{
			name:    "no discount with empty value",
			product: product("noDiscount", ""),
			want:    MethodNoDiscount,
		},
		{
			name:      "two methods",
			product:   product("noDiscount", "", "fixedPrice", "10"),
			wantMsg:   MsgMultiplePricing,
			wantFound: []string{"fixedPrice", "noDiscount"},
		},
		{
			name:      "three methods",
			product:   product("fixedPrice", "10", "discountedSum", "5", "noDiscount", "true"),
			wantMsg:   MsgMultiplePricing,
			wantFound: []string{"discountedSum", "fixedPrice", "noDiscount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ResolvePricingMethod(tt.product)
			if tt.wantMsg != "" {
				bErr := asBundleError(t, err)
				assert.Equal(t, KindValidation, bErr.Kind)
				assert.Equal(t, tt.wantMsg, bErr.Message)
				assert.Equal(t, tt.wantFound, bErr.FoundMethods)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestParseSpec_FixedPrice(t *testing.T) {
	p := product(
		"fixedPrice", "100",
		MetaRequired, `["V1","V2","V1"]`,
		MetaOptional, `{"V3": "5.50", "V4": null}`,
		MetaQuantities, `{"V1":1,"V2":2,"V3":1,"V4":3}`,
	)

	spec, err := ParseSpec(p)
	require.NoError(t, err)
	require.NoError(t, spec.CheckQuantities([]string{"V1", "V2"}))

	assert.Equal(t, "UHJvZHVjdDox", spec.ProductID)
	assert.Equal(t, "Starter Kit", spec.Name)
	fixed, ok := spec.Pricing.(FixedPrice)
	require.True(t, ok)
	assert.True(t, fixed.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []string{"V1", "V2"}, spec.RequiredVariantIDs)
	require.Contains(t, spec.OptionalVariantPrices, "V3")
	require.NotNil(t, spec.OptionalVariantPrices["V3"])
	assert.True(t, spec.OptionalVariantPrices["V3"].Equal(decimal.RequireFromString("5.50")))
	require.Contains(t, spec.OptionalVariantPrices, "V4")
	assert.Nil(t, spec.OptionalVariantPrices["V4"])
	assert.Equal(t, map[string]int{"V1": 1, "V2": 2, "V3": 1, "V4": 3}, spec.QuantityMap)
}

func TestParseSpec_OptionalAsList(t *testing.T) {
	spec, err := ParseSpec(product("noDiscount", "", MetaOptional, `["V9"]`, MetaQuantities, `{"V9":1}`))
	require.NoError(t, err)
	require.NoError(t, spec.CheckQuantities(nil))

	assert.True(t, spec.IsOptional("V9"))
	assert.Nil(t, spec.OptionalVariantPrices["V9"])
	assert.IsType(t, NoDiscount{}, spec.Pricing)
}

func TestParseSpec_DiscountedSum(t *testing.T) {
	spec, err := ParseSpec(product("discountedSum", "12.5"))
	require.NoError(t, err)

	discount, ok := spec.Pricing.(DiscountedSum)
	require.True(t, ok)
	assert.True(t, discount.Percent.Equal(decimal.RequireFromString("12.5")))
	assert.Empty(t, spec.RequiredVariantIDs)
	assert.Empty(t, spec.QuantityMap)
}

func TestParseSpec_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		p    *Product
		key  string
	}{
		{"fixed price not a number", product("fixedPrice", "abc"), "fixedPrice"},
		{"fixed price negative", product("fixedPrice", "-1"), "fixedPrice"},
		{"discount above 100", product("discountedSum", "120"), "discountedSum"},
		{"discount negative", product("discountedSum", "-5"), "discountedSum"},
		{"required not json", product("noDiscount", "", MetaRequired, "V1,V2"), MetaRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.p)
			bErr := asBundleError(t, err)
			assert.Equal(t, KindValidation, bErr.Kind)
			assert.Equal(t, MsgInvalidConfiguration+": "+tt.key, bErr.Message)
			assert.Error(t, bErr.Unwrap())
		})
	}
}

func TestSpec_CheckQuantities_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		p    *Product
		key  string
	}{
		{"optional bad price", product("noDiscount", "", MetaQuantities, `{"V1":1}`, MetaOptional, `{"V1":"x"}`), MetaOptional},
		{"optional negative price", product("noDiscount", "", MetaQuantities, `{"V1":1}`, MetaOptional, `{"V1":"-2"}`), MetaOptional},
		{"quantities not json", product("noDiscount", "", MetaQuantities, "{"), MetaQuantities},
		{"quantity zero", product("noDiscount", "", MetaQuantities, `{"V1":0}`), MetaQuantities},
		{"quantity not a number", product("noDiscount", "", MetaQuantities, `{"V1":"one"}`), MetaQuantities},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpec(tt.p)
			require.NoError(t, err)

			err = spec.CheckQuantities([]string{"V1"})
			bErr := asBundleError(t, err)
			assert.Equal(t, KindValidation, bErr.Kind)
			assert.Equal(t, MsgInvalidConfiguration+": "+tt.key, bErr.Message)
			assert.Error(t, bErr.Unwrap())
		})
	}
}

func TestSpec_RequiredCheckedBeforeQuantityMetadata(t *testing.T) {
	spec, err := ParseSpec(product(
		"noDiscount", "",
		MetaRequired, `["V1","V2"]`,
		MetaQuantities, `{"V1":"one"}`,
		MetaOptional, "not-json",
	))
	require.NoError(t, err)

	bErr := asBundleError(t, spec.CheckRequired([]string{"V1"}))
	assert.Equal(t, MsgRequiredMissing, bErr.Message)
	assert.Equal(t, []string{"V2"}, bErr.MissingVariants)
}

func TestSpec_MissingQuantityCheckedBeforeOptionalMetadata(t *testing.T) {
	spec, err := ParseSpec(product("noDiscount", "", MetaQuantities, `{"V1":1}`, MetaOptional, "not-json"))
	require.NoError(t, err)

	bErr := asBundleError(t, spec.CheckQuantities([]string{"V1", "V2"}))
	assert.Equal(t, MsgQuantityMissing, bErr.Message)
	assert.Equal(t, []string{"V2"}, bErr.MissingQuantityVariants)
}

func TestParseSpec_PricingCheckedBeforeValues(t *testing.T) {
	_, err := ParseSpec(product(MetaRequired, "not-json"))

	bErr := asBundleError(t, err)
	assert.Equal(t, MsgPricingNotSet, bErr.Message)
}

func TestSpec_CheckRequired(t *testing.T) {
	spec, err := ParseSpec(product("noDiscount", "", MetaRequired, `["V1","V2","V3"]`))
	require.NoError(t, err)

	require.NoError(t, spec.CheckRequired([]string{"V3", "V2", "V1", "V9"}))

	err = spec.CheckRequired([]string{"V2"})
	bErr := asBundleError(t, err)
	assert.Equal(t, MsgRequiredMissing, bErr.Message)
	assert.Equal(t, []string{"V1", "V3"}, bErr.MissingVariants)
}

func TestSpec_CheckQuantities(t *testing.T) {
	spec, err := ParseSpec(product("noDiscount", "", MetaQuantities, `{"V1":1}`))
	require.NoError(t, err)

	require.NoError(t, spec.CheckQuantities([]string{"V1"}))

	err = spec.CheckQuantities([]string{"V2", "V1", "V3"})
	bErr := asBundleError(t, err)
	assert.Equal(t, MsgQuantityMissing, bErr.Message)
	assert.Equal(t, []string{"V2", "V3"}, bErr.MissingQuantityVariants)
}

func TestSpec_StatusOf(t *testing.T) {
	spec := &Spec{
		RequiredVariantIDs:    []string{"V1"},
		OptionalVariantPrices: map[string]*decimal.Decimal{"V1": nil, "V2": nil},
	}

	assert.Equal(t, StatusRequired, spec.StatusOf("V1"))
	assert.Equal(t, StatusOptional, spec.StatusOf("V2"))
	assert.Equal(t, StatusUnknown, spec.StatusOf("V3"))
}
