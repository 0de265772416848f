// Package bundle runs the add-bundle pipeline: load the bundle product, validate the
// request against it, check stock, price the lines, append them to a checkout and tag
// the new lines.
package bundle

import (
	"context"
	"errors"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/logger"
	"github.com/kitsbundles/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GatewayFactory builds a commerce API gateway for an installed tenant.
type GatewayFactory interface {
	ForTenant(auth *credential.AuthData) (bundle.Gateway, error)
	Channel() string
}

// Metrics receives pipeline outcomes. telemetry.BundleMetrics satisfies it.
type Metrics interface {
	RecordProcessed(ctx context.Context, pricingMethod string)
	RecordFailure(ctx context.Context, kind string)
	RecordLinesTagged(ctx context.Context, n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordProcessed(context.Context, string) {}
func (noopMetrics) RecordFailure(context.Context, string)   {}
func (noopMetrics) RecordLinesTagged(context.Context, int)  {}

// Option configures a Service.
type Option func(*Service)

// WithLedgerLocker serialises ledger updates per checkout.
func WithLedgerLocker(locker bundle.LedgerLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithMetrics records pipeline outcomes on m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the fallback logger used when the request context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service handles bundle operations for installed tenants
type Service struct {
	gateways   GatewayFactory
	strategies bundle.StrategyResolver
	locker     bundle.LedgerLocker
	metrics    Metrics
	logger     *zap.Logger
}

// NewService creates a new Service
func NewService(gateways GatewayFactory, strategies bundle.StrategyResolver, opts ...Option) *Service {
	s := &Service{
		gateways:   gateways,
		strategies: strategies,
		metrics:    noopMetrics{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddBundle adds the requested bundle to a new or existing checkout. Every failure is
// returned as a *bundle.Error. Steps already applied upstream are not rolled back.
func (s *Service) AddBundle(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*AddBundleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "AddBundle",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
		telemetry.WithAttribute(telemetry.SpanAttrBundleQuantity, req.BundleQuantity),
		telemetry.WithAttribute(telemetry.SpanAttrVariantCount, len(req.Variants)),
	)
	defer span.End()

	result, err := s.addBundle(ctx, auth, req)
	if err != nil {
		bundleErr := s.fail(ctx, "add bundle failed", err)
		telemetry.RecordError(span, bundleErr)
		return nil, bundleErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBundleName, result.Spec.Name,
		telemetry.SpanAttrPricingMethod, result.Spec.Pricing.Kind(),
		telemetry.SpanAttrCheckoutID, result.Checkout.ID,
	)
	telemetry.SetOK(span)
	s.metrics.RecordProcessed(ctx, result.Spec.Pricing.Kind().String())
	s.log(ctx).Info("bundle added to checkout",
		zap.String("product_id", req.ProductID),
		zap.String("bundle", result.Spec.Name),
		zap.String("checkout_id", result.Checkout.ID),
		zap.Int("new_lines", len(result.NewLines)),
	)
	return result, nil
}

func (s *Service) addBundle(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*AddBundleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gw, err := s.gateways.ForTenant(auth)
	if err != nil {
		return nil, bundle.NewUnexpectedError(err)
	}
	channel := s.gateways.Channel()

	product, err := s.loadProduct(ctx, gw, req.ProductID, channel)
	if err != nil {
		return nil, err
	}

	spec, err := bundle.ParseSpec(product)
	if err != nil {
		return nil, err
	}
	requested := req.RequestedVariants()
	if err := spec.CheckRequired(requested); err != nil {
		return nil, err
	}
	if err := spec.CheckQuantities(requested); err != nil {
		return nil, err
	}

	variants, err := s.checkStock(ctx, gw, requested, channel)
	if err != nil {
		return nil, err
	}

	lines, err := s.price(ctx, spec, requested, variants, req.BundleQuantity)
	if err != nil {
		return nil, err
	}

	checkout, newLines, err := s.reconcile(ctx, gw, channel, req.CheckoutID, lines)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithCheckoutID(ctx, checkout.ID)

	if err := s.tag(ctx, gw, spec, checkout, newLines, req.BundleQuantity); err != nil {
		return nil, err
	}

	return &AddBundleResult{
		Spec:     spec,
		Lines:    lines,
		Checkout: checkout,
		NewLines: newLines,
	}, nil
}

// fail converts err into a *bundle.Error, counts it and logs unexpected causes.
func (s *Service) fail(ctx context.Context, msg string, err error) *bundle.Error {
	var bundleErr *bundle.Error
	if !errors.As(err, &bundleErr) {
		bundleErr = bundle.NewUnexpectedError(err)
	}
	s.metrics.RecordFailure(ctx, string(bundleErr.Kind))

	if bundleErr.Kind == bundle.KindUnexpected {
		s.log(ctx).Error(msg, zap.Error(bundleErr.Cause))
	} else {
		s.log(ctx).Warn(msg,
			zap.String("kind", string(bundleErr.Kind)),
			zap.String("reason", bundleErr.Message),
		)
	}
	return bundleErr
}

func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	if _, ok := logger.Lookup(ctx); !ok {
		ctx = logger.WithContext(ctx, s.logger)
	}
	return logger.L(ctx)
}
