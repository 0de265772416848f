package saleor

import (
	"context"
	"fmt"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

// Product fetches a product with its metadata in channel.
func (c *Client) Product(ctx context.Context, id, channel string) (*bundle.Product, error) {
	var data productData
	vars := map[string]any{"id": id, "channel": channel}
	if err := c.execute(ctx, OpProduct, productQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
	}
	return &bundle.Product{
		ID:       data.Product.ID,
		Name:     data.Product.Name,
		Metadata: toDomainMetadata(data.Product.Metadata),
	}, nil
}

// Variant fetches a variant's price and availability in channel.
func (c *Client) Variant(ctx context.Context, id, channel string) (*bundle.VariantFacts, error) {
	var data variantData
	vars := map[string]any{"id": id, "channel": channel}
	if err := c.execute(ctx, OpVariant, variantQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.ProductVariant == nil {
		return nil, fmt.Errorf("%w: variant %s", shared.ErrNotFound, id)
	}
	return data.ProductVariant.toDomain(), nil
}

// Checkout fetches a checkout with its lines and metadata.
func (c *Client) Checkout(ctx context.Context, id string) (*bundle.Checkout, error) {
	var data checkoutData
	if err := c.execute(ctx, OpCheckout, checkoutQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Checkout == nil {
		return nil, fmt.Errorf("%w: checkout %s", shared.ErrNotFound, id)
	}
	return data.Checkout.toDomain(), nil
}

// CreateCheckout creates a checkout in channel holding lines.
func (c *Client) CreateCheckout(ctx context.Context, channel string, lines []bundle.Line) (*bundle.Checkout, error) {
	var data checkoutCreateData
	vars := map[string]any{
		"input": map[string]any{
			"channel": channel,
			"lines":   toLineInputs(lines),
		},
	}
	if err := c.execute(ctx, OpCheckoutCreate, checkoutCreateMutation, vars, &data); err != nil {
		return nil, err
	}
	return checkoutFromPayload(OpCheckoutCreate, data.CheckoutCreate)
}

// AddCheckoutLines appends lines to an existing checkout. Lines are never merged into
// existing lines for the same variant.
func (c *Client) AddCheckoutLines(ctx context.Context, checkoutID string, lines []bundle.Line) (*bundle.Checkout, error) {
	var data checkoutLinesAddData
	vars := map[string]any{
		"id":    checkoutID,
		"lines": toLineInputs(lines),
	}
	if err := c.execute(ctx, OpCheckoutLinesAdd, checkoutLinesAddMutation, vars, &data); err != nil {
		return nil, err
	}
	return checkoutFromPayload(OpCheckoutLinesAdd, data.CheckoutLinesAdd)
}

func checkoutFromPayload(operation string, payload *checkoutPayload) (*bundle.Checkout, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: %s returned no payload", ErrInvalidResponse, operation)
	}
	if err := mutationErrors(operation, payload.Errors); err != nil {
		return nil, err
	}
	if payload.Checkout == nil {
		return nil, fmt.Errorf("%w: %s returned no checkout", ErrInvalidResponse, operation)
	}
	return payload.Checkout.toDomain(), nil
}

// UpdateMetadata writes items on the object with the given id. Existing keys are
// overwritten and other keys are kept.
func (c *Client) UpdateMetadata(ctx context.Context, id string, items []bundle.MetadataItem) error {
	var data updateMetadataData
	vars := map[string]any{
		"id":    id,
		"input": fromDomainMetadata(items),
	}
	if err := c.execute(ctx, OpUpdateMetadata, updateMetadataMutation, vars, &data); err != nil {
		return err
	}
	if data.UpdateMetadata == nil {
		return fmt.Errorf("%w: %s returned no payload", ErrInvalidResponse, OpUpdateMetadata)
	}
	return mutationErrors(OpUpdateMetadata, data.UpdateMetadata.Errors)
}
