package bundle

import (
	"context"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InspectBundle loads the bundle product, checks the pricing method and required
// variants, and returns the details of the requested variants. Nothing is written
// upstream. Variants that cannot be fetched are left out of the result.
func (s *Service) InspectBundle(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*InspectResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "InspectBundle",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
		telemetry.WithAttribute(telemetry.SpanAttrVariantCount, len(req.Variants)),
	)
	defer span.End()

	result, err := s.inspect(ctx, auth, req)
	if err != nil {
		bundleErr := s.fail(ctx, "inspect bundle failed", err)
		telemetry.RecordError(span, bundleErr)
		return nil, bundleErr
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *Service) inspect(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*InspectResult, error) {
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

	variants := make([]bundle.VariantFacts, 0, len(requested))
	for _, id := range requested {
		variant, err := gw.Variant(ctx, id, channel)
		if err != nil {
			s.log(ctx).Warn("skipping variant", zap.String("variant_id", id), zap.Error(err))
			continue
		}
		variants = append(variants, *variant)
	}

	return &InspectResult{Product: product, Variants: variants}, nil
}
