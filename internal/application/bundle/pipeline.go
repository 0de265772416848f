package bundle

import (
	"context"
	"errors"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func (s *Service) loadProduct(ctx context.Context, gw bundle.Gateway, productID, channel string) (*bundle.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "bundle.load",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
	)
	defer span.End()

	product, err := gw.Product(ctx, productID, channel)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, gatewayError(err, "", productNotFound())
	}
	return product, nil
}

// checkStock fetches the requested variants one by one and stops at the first variant
// that is missing or sold out. Variants after it are never fetched.
func (s *Service) checkStock(ctx context.Context, gw bundle.Gateway, requested []string, channel string) ([]bundle.VariantFacts, error) {
	ctx, span := telemetry.StartSpan(ctx, "bundle.stock",
		telemetry.WithAttribute(telemetry.SpanAttrVariantCount, len(requested)),
	)
	defer span.End()

	variants := make([]bundle.VariantFacts, 0, len(requested))
	for _, id := range requested {
		variant, err := gw.Variant(ctx, id, channel)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, gatewayError(err, "", variantNotFound(id))
		}
		if !variant.InStock() {
			telemetry.AddEvent(span, "out_of_stock", telemetry.SpanAttrVariantID, id)
			return nil, bundle.NewStockError()
		}
		variants = append(variants, *variant)
	}
	return variants, nil
}

func (s *Service) price(ctx context.Context, spec *bundle.Spec, requested []string, variants []bundle.VariantFacts, bundleQuantity int) ([]bundle.Line, error) {
	kind := spec.Pricing.Kind()
	ctx, span := telemetry.StartSpan(ctx, "bundle.price",
		telemetry.WithAttribute(telemetry.SpanAttrPricingMethod, kind),
	)
	defer span.End()

	strategy, err := s.strategies.ForMethod(kind)
	if err != nil {
		return nil, bundle.NewUnexpectedError(err)
	}

	prices, err := strategy.Price(ctx, bundle.PricingInput{Spec: spec, Variants: variants})
	if err != nil {
		telemetry.RecordError(span, err)
		var bundleErr *bundle.Error
		if errors.As(err, &bundleErr) {
			return nil, bundleErr
		}
		return nil, bundle.NewUnexpectedError(err)
	}

	lines, err := bundle.BuildLines(spec, requested, prices, bundleQuantity)
	if err != nil {
		return nil, bundle.NewUnexpectedError(err)
	}
	return lines, nil
}

// reconcile appends lines to the checkout, creating one when checkoutID is empty, and
// returns the lines that were not on the checkout before.
func (s *Service) reconcile(ctx context.Context, gw bundle.Gateway, channel, checkoutID string, lines []bundle.Line) (*bundle.Checkout, []bundle.CheckoutLine, error) {
	ctx, span := telemetry.StartSpan(ctx, "bundle.reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, checkoutID),
	)
	defer span.End()

	var (
		before map[string]struct{}
		after  *bundle.Checkout
		err    error
	)
	if checkoutID == "" {
		after, err = gw.CreateCheckout(ctx, channel, lines)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, gatewayError(err, ctxCreateCheckout, nil)
		}
	} else {
		existing, err := gw.Checkout(ctx, checkoutID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, gatewayError(err, ctxLoadCheckout, checkoutNotFound())
		}
		before = existing.LineIDs()

		after, err = gw.AddCheckoutLines(ctx, checkoutID, lines)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, gatewayError(err, ctxAddLines, checkoutNotFound())
		}
	}

	added := bundle.NewLines(before, after)
	ids := make([]string, len(added))
	for i, line := range added {
		ids[i] = line.ID
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckoutID, after.ID,
		telemetry.SpanAttrNewLines, ids,
	)
	return after, added, nil
}

// tag writes the bundle metadata on every new line, then adds bundleQuantity to the
// checkout's ledger.
func (s *Service) tag(ctx context.Context, gw bundle.Gateway, spec *bundle.Spec, checkout *bundle.Checkout, added []bundle.CheckoutLine, bundleQuantity int) error {
	ctx, span := telemetry.StartSpan(ctx, "bundle.tag",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, checkout.ID),
		telemetry.WithAttribute(telemetry.SpanAttrBundleName, spec.Name),
	)
	defer span.End()

	for _, line := range added {
		if err := gw.UpdateMetadata(ctx, line.ID, bundle.LineMetadata(spec, line.VariantID)); err != nil {
			telemetry.RecordError(span, err)
			return gatewayError(err, ctxTagLine, nil)
		}
	}
	s.metrics.RecordLinesTagged(ctx, len(added))

	if err := s.updateLedger(ctx, gw, spec.Name, checkout, bundleQuantity); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// updateLedger is a read-modify-write of the checkout's bundle_quantities entry. Without
// a locker concurrent requests on the same checkout may lose an update.
func (s *Service) updateLedger(ctx context.Context, gw bundle.Gateway, bundleName string, checkout *bundle.Checkout, bundleQuantity int) error {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, checkout.ID)
		if err != nil {
			return bundle.NewUnexpectedError(err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log(ctx).Warn("failed to release ledger lock", zap.Error(err))
			}
		}()
	}

	current, err := gw.Checkout(ctx, checkout.ID)
	if err != nil {
		return gatewayError(err, ctxLoadCheckout, checkoutNotFound())
	}

	raw, present := current.MetadataValue(bundle.LedgerKey)
	ledger, ok := bundle.ParseLedger(raw, present)
	if !ok {
		s.log(ctx).Warn("discarding unreadable bundle ledger", zap.String("value", raw))
	}
	total, err := ledger.Add(bundleName, bundleQuantity)
	if err != nil {
		return err
	}

	encoded, err := ledger.Encode()
	if err != nil {
		return bundle.NewUnexpectedError(err)
	}
	item := bundle.MetadataItem{Key: bundle.LedgerKey, Value: encoded}
	if err := gw.UpdateMetadata(ctx, checkout.ID, []bundle.MetadataItem{item}); err != nil {
		return gatewayError(err, ctxUpdateLedger, nil)
	}

	checkout.SetMetadata(bundle.LedgerKey, encoded)
	s.log(ctx).Debug("bundle ledger updated",
		zap.String("bundle", bundleName),
		zap.Int("total", total),
	)
	return nil
}
