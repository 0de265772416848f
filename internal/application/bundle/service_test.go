package bundle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
	"github.com/kitsbundles/backend/internal/infrastructure/strategy"
)

const testChannel = "default-channel"

// MockGateway is a mock implementation of bundle.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Product(ctx context.Context, id, channel string) (*bundle.Product, error) {
	args := m.Called(ctx, id, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.Product), args.Error(1)
}

func (m *MockGateway) Variant(ctx context.Context, id, channel string) (*bundle.VariantFacts, error) {
	args := m.Called(ctx, id, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.VariantFacts), args.Error(1)
}

func (m *MockGateway) Checkout(ctx context.Context, id string) (*bundle.Checkout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.Checkout), args.Error(1)
}

func (m *MockGateway) CreateCheckout(ctx context.Context, channel string, lines []bundle.Line) (*bundle.Checkout, error) {
	args := m.Called(ctx, channel, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.Checkout), args.Error(1)
}

func (m *MockGateway) AddCheckoutLines(ctx context.Context, checkoutID string, lines []bundle.Line) (*bundle.Checkout, error) {
	args := m.Called(ctx, checkoutID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.Checkout), args.Error(1)
}

func (m *MockGateway) UpdateMetadata(ctx context.Context, id string, items []bundle.MetadataItem) error {
	args := m.Called(ctx, id, items)
	return args.Error(0)
}

type stubFactory struct {
	gw    bundle.Gateway
	err   error
	calls int
}

func (f *stubFactory) ForTenant(*credential.AuthData) (bundle.Gateway, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.gw, nil
}

func (f *stubFactory) Channel() string {
	return testChannel
}

type recordedMetrics struct {
	processed []string
	failures  []string
	tagged    int
}

func (m *recordedMetrics) RecordProcessed(_ context.Context, method string) {
	m.processed = append(m.processed, method)
}

func (m *recordedMetrics) RecordFailure(_ context.Context, kind string) {
	m.failures = append(m.failures, kind)
}

func (m *recordedMetrics) RecordLinesTagged(_ context.Context, n int) {
	m.tagged += n
}

type fakeLocker struct {
	err      error
	locked   []string
	unlocked int
}

func (l *fakeLocker) Lock(_ context.Context, checkoutID string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, checkoutID)
	return func(context.Context) error {
		l.unlocked++
		return nil
	}, nil
}

var testAuth = &credential.AuthData{SaleorAPIURL: "https://shop.saleor.cloud/graphql/", Token: "t"}

func newTestService(t *testing.T, gw *MockGateway, opts ...Option) (*Service, *stubFactory) {
	t.Helper()
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	factory := &stubFactory{gw: gw}
	return NewService(factory, registry, opts...), factory
}

func kitProduct(meta ...bundle.MetadataItem) *bundle.Product {
	if meta == nil {
		meta = []bundle.MetadataItem{
			{Key: "fixedPrice", Value: "100"},
			{Key: "required", Value: `["V1","V2"]`},
			{Key: "quantities", Value: `{"V1":1,"V2":2}`},
		}
	}
	return &bundle.Product{ID: "P1", Name: "Kit", Metadata: meta}
}

func variant(id string, amount int64, stock int) *bundle.VariantFacts {
	return &bundle.VariantFacts{
		ID:                id,
		Name:              "Variant " + id,
		SKU:               "SKU-" + id,
		Price:             bundle.Money{Amount: decimal.NewFromInt(amount), Currency: "USD"},
		QuantityAvailable: stock,
	}
}

func kitRequest(checkoutID string, quantity int) bundle.Request {
	return bundle.Request{
		ProductID:      "P1",
		BundleQuantity: quantity,
		Variants:       []string{"V1", "V2"},
		CheckoutID:     checkoutID,
	}
}

func lineMeta(status, message string) []bundle.MetadataItem {
	return []bundle.MetadataItem{
		{Key: bundle.LineMetaName, Value: "Kit"},
		{Key: bundle.LineMetaStatus, Value: status},
		{Key: bundle.LineMetaMessage, Value: message},
	}
}

func ledgerItem(value string) []bundle.MetadataItem {
	return []bundle.MetadataItem{{Key: bundle.LedgerKey, Value: value}}
}

func checkoutWith(lines ...bundle.CheckoutLine) *bundle.Checkout {
	return &bundle.Checkout{ID: "C1", Token: "tok", Lines: lines}
}

func line(id, variantID string) bundle.CheckoutLine {
	return bundle.CheckoutLine{ID: id, VariantID: variantID}
}

func expectCatalogReads(gw *MockGateway) {
	gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil).Once()
	gw.On("Variant", mock.Anything, "V1", testChannel).Return(variant("V1", 80, 10), nil).Once()
	gw.On("Variant", mock.Anything, "V2", testChannel).Return(variant("V2", 40, 10), nil).Once()
}

func asBundleError(t *testing.T, err error) *bundle.Error {
	t.Helper()
	var bundleErr *bundle.Error
	require.ErrorAs(t, err, &bundleErr)
	return bundleErr
}

func TestAddBundle_CreatesCheckout(t *testing.T) {
	gw := new(MockGateway)
	metrics := &recordedMetrics{}
	svc, _ := newTestService(t, gw, WithMetrics(metrics))

	expectCatalogReads(gw)
	created := checkoutWith(line("L1", "V1"), line("L2", "V2"))
	gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).Return(created, nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L1", lineMeta("required", "Required item of bundle Kit")).Return(nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L2", lineMeta("required", "Required item of bundle Kit")).Return(nil).Once()
	gw.On("Checkout", mock.Anything, "C1").Return(checkoutWith(line("L1", "V1"), line("L2", "V2")), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "C1", ledgerItem(`{"Kit":1}`)).Return(nil).Once()

	result, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	assert.Equal(t, "V1", result.Lines[0].VariantID)
	assert.Equal(t, 1, result.Lines[0].Quantity)
	assert.Equal(t, "66.67", result.Lines[0].UnitPrice.String())
	assert.Equal(t, "V2", result.Lines[1].VariantID)
	assert.Equal(t, 2, result.Lines[1].Quantity)
	assert.Equal(t, "16.67", result.Lines[1].UnitPrice.String())

	assert.Equal(t, []bundle.CheckoutLine{line("L1", "V1"), line("L2", "V2")}, result.NewLines)
	ledger, ok := result.Checkout.MetadataValue(bundle.LedgerKey)
	assert.True(t, ok)
	assert.Equal(t, `{"Kit":1}`, ledger)

	assert.Equal(t, []string{"fixedPrice"}, metrics.processed)
	assert.Equal(t, 2, metrics.tagged)
	assert.Empty(t, metrics.failures)
	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "AddCheckoutLines", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddBundle_AppendsToExistingCheckout(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	expectCatalogReads(gw)
	existing := checkoutWith(line("L0", "V1"))
	gw.On("Checkout", mock.Anything, "C1").Return(existing, nil).Once()
	gw.On("AddCheckoutLines", mock.Anything, "C1", mock.MatchedBy(func(lines []bundle.Line) bool {
		return len(lines) == 2 && lines[0].Quantity == 3 && lines[1].Quantity == 6
	})).Return(checkoutWith(line("L0", "V1"), line("L1", "V1"), line("L2", "V2")), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L1", mock.Anything).Return(nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L2", mock.Anything).Return(nil).Once()

	withLedger := checkoutWith(line("L0", "V1"), line("L1", "V1"), line("L2", "V2"))
	withLedger.Metadata = ledgerItem(`{"Kit":2,"Other":1}`)
	gw.On("Checkout", mock.Anything, "C1").Return(withLedger, nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "C1", ledgerItem(`{"Kit":5,"Other":1}`)).Return(nil).Once()

	result, err := svc.AddBundle(context.Background(), testAuth, kitRequest("C1", 3))
	require.NoError(t, err)

	assert.Equal(t, []bundle.CheckoutLine{line("L1", "V1"), line("L2", "V2")}, result.NewLines)
	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "UpdateMetadata", mock.Anything, "L0", mock.Anything)
	gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddBundle_RepeatedCallsTagDisjointLines(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	tagged := map[string]int{}
	gw.On("UpdateMetadata", mock.Anything, mock.MatchedBy(func(id string) bool { return id != "C1" }), mock.Anything).
		Run(func(args mock.Arguments) { tagged[args.String(1)]++ }).
		Return(nil)
	gw.On("UpdateMetadata", mock.Anything, "C1", mock.Anything).Return(nil)

	first := checkoutWith(line("L1", "V1"), line("L2", "V2"))
	second := checkoutWith(line("L1", "V1"), line("L2", "V2"), line("L3", "V1"), line("L4", "V2"))

	expectCatalogReads(gw)
	gw.On("Checkout", mock.Anything, "C1").Return(first, nil).Once()
	gw.On("AddCheckoutLines", mock.Anything, "C1", mock.Anything).Return(second, nil).Once()
	gw.On("Checkout", mock.Anything, "C1").Return(second, nil).Once()

	result, err := svc.AddBundle(context.Background(), testAuth, kitRequest("C1", 1))
	require.NoError(t, err)

	assert.Equal(t, []bundle.CheckoutLine{line("L3", "V1"), line("L4", "V2")}, result.NewLines)
	assert.Equal(t, map[string]int{"L3": 1, "L4": 1}, tagged)
	gw.AssertExpectations(t)
}

func TestAddBundle_UnreadableLedgerStartsOver(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	expectCatalogReads(gw)
	gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
		Return(checkoutWith(line("L1", "V1"), line("L2", "V2")), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L1", mock.Anything).Return(nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L2", mock.Anything).Return(nil).Once()
	corrupt := checkoutWith()
	corrupt.Metadata = ledgerItem("not json")
	gw.On("Checkout", mock.Anything, "C1").Return(corrupt, nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "C1", ledgerItem(`{"Kit":2}`)).Return(nil).Once()

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 2))
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestAddBundle_LedgerOverflowIsNotWritten(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	expectCatalogReads(gw)
	gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
		Return(checkoutWith(line("L1", "V1"), line("L2", "V2")), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L1", mock.Anything).Return(nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L2", mock.Anything).Return(nil).Once()
	full := checkoutWith()
	full.Metadata = ledgerItem(fmt.Sprintf(`{"Kit":%d}`, math.MaxInt))
	gw.On("Checkout", mock.Anything, "C1").Return(full, nil).Once()

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))

	bundleErr := asBundleError(t, err)
	assert.Equal(t, bundle.KindValidation, bundleErr.Kind)
	gw.AssertNotCalled(t, "UpdateMetadata", mock.Anything, "C1", mock.Anything)
	gw.AssertExpectations(t)
}

func TestAddBundle_ValidationStopsBeforeVariantFetches(t *testing.T) {
	tests := []struct {
		name    string
		product *bundle.Product
		req     bundle.Request
		check   func(t *testing.T, err *bundle.Error)
	}{
		{
			name:    "no pricing method",
			product: kitProduct(bundle.MetadataItem{Key: "required", Value: `["V1"]`}),
			req:     kitRequest("", 1),
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgPricingNotSet, err.Message)
			},
		},
		{
			name: "several pricing methods",
			product: kitProduct(
				bundle.MetadataItem{Key: "fixedPrice", Value: "10"},
				bundle.MetadataItem{Key: "noDiscount", Value: ""},
			),
			req: kitRequest("", 1),
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgMultiplePricing, err.Message)
				assert.Equal(t, []string{"fixedPrice", "noDiscount"}, err.FoundMethods)
			},
		},
		{
			name:    "required variant missing",
			product: kitProduct(),
			req:     bundle.Request{ProductID: "P1", BundleQuantity: 1, Variants: []string{"V2"}},
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgRequiredMissing, err.Message)
				assert.Equal(t, []string{"V1"}, err.MissingVariants)
			},
		},
		{
			name: "required variant missing before malformed quantities",
			product: kitProduct(
				bundle.MetadataItem{Key: "noDiscount", Value: ""},
				bundle.MetadataItem{Key: "required", Value: `["V1","V2"]`},
				bundle.MetadataItem{Key: "quantities", Value: `{"V1":"one"}`},
			),
			req: bundle.Request{ProductID: "P1", BundleQuantity: 1, Variants: []string{"V1"}},
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgRequiredMissing, err.Message)
				assert.Equal(t, []string{"V2"}, err.MissingVariants)
			},
		},
		{
			name: "malformed quantities",
			product: kitProduct(
				bundle.MetadataItem{Key: "noDiscount", Value: ""},
				bundle.MetadataItem{Key: "quantities", Value: `{"V1":"one"}`},
			),
			req: bundle.Request{ProductID: "P1", BundleQuantity: 1, Variants: []string{"V1"}},
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgInvalidConfiguration+": quantities", err.Message)
			},
		},
		{
			name:    "quantity missing",
			product: kitProduct(),
			req:     bundle.Request{ProductID: "P1", BundleQuantity: 1, Variants: []string{"V1", "V2", "V3"}},
			check: func(t *testing.T, err *bundle.Error) {
				assert.Equal(t, bundle.MsgQuantityMissing, err.Message)
				assert.Equal(t, []string{"V3"}, err.MissingQuantityVariants)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			svc, _ := newTestService(t, gw)
			gw.On("Product", mock.Anything, "P1", testChannel).Return(tt.product, nil).Once()

			_, err := svc.AddBundle(context.Background(), testAuth, tt.req)

			bundleErr := asBundleError(t, err)
			assert.Equal(t, bundle.KindValidation, bundleErr.Kind)
			assert.Equal(t, http.StatusBadRequest, bundleErr.HTTPStatus())
			tt.check(t, bundleErr)
			gw.AssertNotCalled(t, "Variant", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAddBundle_InvalidRequestMakesNoUpstreamCall(t *testing.T) {
	gw := new(MockGateway)
	svc, factory := newTestService(t, gw)

	_, err := svc.AddBundle(context.Background(), testAuth, bundle.Request{BundleQuantity: 1, Variants: []string{}})

	bundleErr := asBundleError(t, err)
	assert.Equal(t, "product_id is required", bundleErr.Message)
	assert.Zero(t, factory.calls)
	gw.AssertExpectations(t)
}

func TestAddBundle_StockAbortsScan(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil).Once()
	gw.On("Variant", mock.Anything, "V1", testChannel).Return(variant("V1", 80, 0), nil).Once()

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))

	bundleErr := asBundleError(t, err)
	assert.Equal(t, bundle.KindStock, bundleErr.Kind)
	assert.Equal(t, bundle.MsgOutOfStock, bundleErr.PublicMessage())
	gw.AssertNotCalled(t, "Variant", mock.Anything, "V2", mock.Anything)
	gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddBundle_ZeroRequiredTotalIsRejected(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil).Once()
	gw.On("Variant", mock.Anything, "V1", testChannel).Return(variant("V1", 0, 5), nil).Once()
	gw.On("Variant", mock.Anything, "V2", testChannel).Return(variant("V2", 0, 5), nil).Once()

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))

	bundleErr := asBundleError(t, err)
	assert.Equal(t, bundle.KindValidation, bundleErr.Kind)
	assert.Contains(t, bundleErr.Message, bundle.MsgInvalidConfiguration)
	gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddBundle_ErrorMapping(t *testing.T) {
	upstream := func(messages ...string) error {
		return fmt.Errorf("%w: %w", errors.New("graphql"), &bundle.UpstreamError{Messages: messages})
	}

	tests := []struct {
		name       string
		checkoutID string
		setup      func(gw *MockGateway)
		kind       bundle.Kind
		status     int
		message    string
	}{
		{
			name: "product not found",
			setup: func(gw *MockGateway) {
				gw.On("Product", mock.Anything, "P1", testChannel).
					Return(nil, fmt.Errorf("%w: product P1", shared.ErrNotFound))
			},
			kind:    bundle.KindNotFound,
			status:  http.StatusNotFound,
			message: bundle.MsgProductNotFound,
		},
		{
			name: "product query errors",
			setup: func(gw *MockGateway) {
				gw.On("Product", mock.Anything, "P1", testChannel).Return(nil, upstream("a", "b"))
			},
			kind:    bundle.KindUpstream,
			status:  http.StatusBadRequest,
			message: "GraphQL errors: a, b",
		},
		{
			name: "variant not found",
			setup: func(gw *MockGateway) {
				gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil)
				gw.On("Variant", mock.Anything, "V1", testChannel).
					Return(nil, fmt.Errorf("%w: variant V1", shared.ErrNotFound))
			},
			kind:    bundle.KindNotFound,
			status:  http.StatusBadRequest,
			message: "Variant V1 not found",
		},
		{
			name: "transport failure",
			setup: func(gw *MockGateway) {
				gw.On("Product", mock.Anything, "P1", testChannel).Return(nil, errors.New("connection refused"))
			},
			kind:    bundle.KindUnexpected,
			status:  http.StatusInternalServerError,
			message: bundle.MsgInternal,
		},
		{
			name: "checkout create errors",
			setup: func(gw *MockGateway) {
				expectCatalogReads(gw)
				gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
					Return(nil, upstream("Variant is not available", "Insufficient stock"))
			},
			kind:    bundle.KindUpstream,
			status:  http.StatusBadRequest,
			message: "Could not create checkout. Error: Variant is not available, Insufficient stock",
		},
		{
			name:       "unknown checkout",
			checkoutID: "C1",
			setup: func(gw *MockGateway) {
				expectCatalogReads(gw)
				gw.On("Checkout", mock.Anything, "C1").Return(nil, fmt.Errorf("%w: checkout C1", shared.ErrNotFound))
			},
			kind:    bundle.KindNotFound,
			status:  http.StatusNotFound,
			message: bundle.MsgCheckoutNotFound,
		},
		{
			name:       "lines add errors",
			checkoutID: "C1",
			setup: func(gw *MockGateway) {
				expectCatalogReads(gw)
				gw.On("Checkout", mock.Anything, "C1").Return(checkoutWith(), nil)
				gw.On("AddCheckoutLines", mock.Anything, "C1", mock.Anything).Return(nil, upstream("Checkout is locked"))
			},
			kind:    bundle.KindUpstream,
			status:  http.StatusBadRequest,
			message: "Could not add lines to checkout. Error: Checkout is locked",
		},
		{
			name: "line tagging errors",
			setup: func(gw *MockGateway) {
				expectCatalogReads(gw)
				gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
					Return(checkoutWith(line("L1", "V1")), nil)
				gw.On("UpdateMetadata", mock.Anything, "L1", mock.Anything).Return(upstream("Permission denied"))
			},
			kind:    bundle.KindUpstream,
			status:  http.StatusBadRequest,
			message: "Could not update line metadata. Error: Permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			metrics := &recordedMetrics{}
			svc, _ := newTestService(t, gw, WithMetrics(metrics))
			tt.setup(gw)

			_, err := svc.AddBundle(context.Background(), testAuth, kitRequest(tt.checkoutID, 1))

			bundleErr := asBundleError(t, err)
			assert.Equal(t, tt.kind, bundleErr.Kind)
			assert.Equal(t, tt.status, bundleErr.HTTPStatus())
			assert.Equal(t, tt.message, bundleErr.PublicMessage())
			assert.Equal(t, []string{string(tt.kind)}, metrics.failures)
			assert.Empty(t, metrics.processed)
		})
	}
}

func TestAddBundle_GatewayFactoryFailure(t *testing.T) {
	gw := new(MockGateway)
	svc, factory := newTestService(t, gw)
	factory.err = errors.New("bad endpoint")

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))

	bundleErr := asBundleError(t, err)
	assert.Equal(t, bundle.KindUnexpected, bundleErr.Kind)
}

func TestAddBundle_UnexpectedCauseIsLogged(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw, WithLogger(zap.New(core)))
	gw.On("Product", mock.Anything, "P1", testChannel).Return(nil, errors.New("connection refused"))

	_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))
	require.Error(t, err)

	entries := recorded.FilterMessage("add bundle failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
}

func TestAddBundle_LedgerLock(t *testing.T) {
	setup := func(gw *MockGateway) {
		expectCatalogReads(gw)
		gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
			Return(checkoutWith(line("L1", "V1"), line("L2", "V2")), nil).Once()
		gw.On("UpdateMetadata", mock.Anything, "L1", mock.Anything).Return(nil).Once()
		gw.On("UpdateMetadata", mock.Anything, "L2", mock.Anything).Return(nil).Once()
	}

	t.Run("wraps the ledger update", func(t *testing.T) {
		gw := new(MockGateway)
		locker := &fakeLocker{}
		svc, _ := newTestService(t, gw, WithLedgerLocker(locker))
		setup(gw)
		gw.On("Checkout", mock.Anything, "C1").Return(checkoutWith(), nil).Once()
		gw.On("UpdateMetadata", mock.Anything, "C1", ledgerItem(`{"Kit":1}`)).Return(nil).Once()

		_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))
		require.NoError(t, err)

		assert.Equal(t, []string{"C1"}, locker.locked)
		assert.Equal(t, 1, locker.unlocked)
		gw.AssertExpectations(t)
	})

	t.Run("failing to lock is an internal error", func(t *testing.T) {
		gw := new(MockGateway)
		locker := &fakeLocker{err: fmt.Errorf("%w: checkout C1", shared.ErrLockNotAcquired)}
		svc, _ := newTestService(t, gw, WithLedgerLocker(locker))
		setup(gw)

		_, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 1))

		bundleErr := asBundleError(t, err)
		assert.Equal(t, http.StatusInternalServerError, bundleErr.HTTPStatus())
		assert.ErrorIs(t, err, shared.ErrLockNotAcquired)
		gw.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
		gw.AssertNotCalled(t, "UpdateMetadata", mock.Anything, "C1", mock.Anything)
	})
}

func TestAddBundle_DiscountedSumAppliesToEveryVariant(t *testing.T) {
	gw := new(MockGateway)
	svc, _ := newTestService(t, gw)

	product := kitProduct(
		bundle.MetadataItem{Key: "discountedSum", Value: "25"},
		bundle.MetadataItem{Key: "required", Value: `["V1"]`},
		bundle.MetadataItem{Key: "optional", Value: `["V2"]`},
		bundle.MetadataItem{Key: "quantities", Value: `{"V1":1,"V2":4}`},
	)
	gw.On("Product", mock.Anything, "P1", testChannel).Return(product, nil).Once()
	gw.On("Variant", mock.Anything, "V1", testChannel).Return(variant("V1", 80, 10), nil).Once()
	gw.On("Variant", mock.Anything, "V2", testChannel).Return(variant("V2", 40, 10), nil).Once()
	gw.On("CreateCheckout", mock.Anything, testChannel, mock.Anything).
		Return(checkoutWith(line("L1", "V1"), line("L2", "V2")), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L1", lineMeta("required", "Required item of bundle Kit")).Return(nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "L2", lineMeta("optional", "Optional add-on of bundle Kit")).Return(nil).Once()
	gw.On("Checkout", mock.Anything, "C1").Return(checkoutWith(), nil).Once()
	gw.On("UpdateMetadata", mock.Anything, "C1", ledgerItem(`{"Kit":2}`)).Return(nil).Once()

	result, err := svc.AddBundle(context.Background(), testAuth, kitRequest("", 2))
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].UnitPrice.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 2, result.Lines[0].Quantity)
	assert.True(t, result.Lines[1].UnitPrice.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 8, result.Lines[1].Quantity)
	gw.AssertExpectations(t)
}

func TestInspectBundle(t *testing.T) {
	t.Run("skips variants that cannot be fetched", func(t *testing.T) {
		gw := new(MockGateway)
		svc, _ := newTestService(t, gw)

		gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil).Once()
		gw.On("Variant", mock.Anything, "V1", testChannel).
			Return(nil, fmt.Errorf("%w: variant V1", shared.ErrNotFound)).Once()
		gw.On("Variant", mock.Anything, "V2", testChannel).Return(variant("V2", 40, 0), nil).Once()

		result, err := svc.InspectBundle(context.Background(), testAuth, kitRequest("", 1))
		require.NoError(t, err)

		assert.Equal(t, "Kit", result.Product.Name)
		require.Len(t, result.Variants, 1)
		assert.Equal(t, "V2", result.Variants[0].ID)
		gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
		gw.AssertNotCalled(t, "UpdateMetadata", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("product query errors", func(t *testing.T) {
		gw := new(MockGateway)
		svc, _ := newTestService(t, gw)
		gw.On("Product", mock.Anything, "P1", testChannel).
			Return(nil, &bundle.UpstreamError{Messages: []string{"Invalid ID"}}).Once()

		_, err := svc.InspectBundle(context.Background(), testAuth, kitRequest("", 1))

		bundleErr := asBundleError(t, err)
		assert.Equal(t, "GraphQL errors: Invalid ID", bundleErr.PublicMessage())
		assert.Equal(t, http.StatusBadRequest, bundleErr.HTTPStatus())
	})

	t.Run("required variant missing", func(t *testing.T) {
		gw := new(MockGateway)
		svc, _ := newTestService(t, gw)
		gw.On("Product", mock.Anything, "P1", testChannel).Return(kitProduct(), nil).Once()

		req := bundle.Request{ProductID: "P1", BundleQuantity: 1, Variants: []string{"V1"}}
		_, err := svc.InspectBundle(context.Background(), testAuth, req)

		bundleErr := asBundleError(t, err)
		assert.Equal(t, []string{"V2"}, bundleErr.MissingVariants)
		gw.AssertNotCalled(t, "Variant", mock.Anything, mock.Anything, mock.Anything)
	})
}
