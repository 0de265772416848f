package bundle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

// Contexts prefixed to upstream error messages of each call.
const (
	ctxLoadCheckout   = "Could not load checkout"
	ctxCreateCheckout = "Could not create checkout"
	ctxAddLines       = "Could not add lines to checkout"
	ctxTagLine        = "Could not update line metadata"
	ctxUpdateLedger   = "Could not update bundle ledger"
)

// gatewayError maps a Gateway error onto the public error kinds. notFound is used when
// the gateway reports a missing entity; upstream messages are prefixed with prefix.
func gatewayError(err error, prefix string, notFound *bundle.Error) *bundle.Error {
	var upstream *bundle.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return bundle.NewUpstreamError(prefix, upstream)
	case notFound != nil && errors.Is(err, shared.ErrNotFound):
		notFound.Cause = err
		return notFound
	default:
		return bundle.NewUnexpectedError(err)
	}
}

func productNotFound() *bundle.Error {
	return bundle.NewNotFoundError(bundle.MsgProductNotFound, http.StatusNotFound)
}

func variantNotFound(id string) *bundle.Error {
	return bundle.NewNotFoundError(fmt.Sprintf("Variant %s not found", id), http.StatusBadRequest)
}

func checkoutNotFound() *bundle.Error {
	return bundle.NewNotFoundError(bundle.MsgCheckoutNotFound, http.StatusNotFound)
}
