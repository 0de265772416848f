package bundle

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure of the add-bundle pipeline.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindStock      Kind = "stock"
	KindUnexpected Kind = "unexpected"
)

// Messages returned to callers. They are part of the public contract of the API.
const (
	MsgPricingNotSet        = "Pricing is not set for this bundle"
	MsgMultiplePricing      = "Pricing is not set for this bundle - multiple pricing methods found"
	MsgRequiredMissing      = "Required variant is missing"
	MsgQuantityMissing      = "Quantity is not set for some variants"
	MsgProductNotFound      = "Product not found"
	MsgCheckoutNotFound     = "Checkout not found"
	MsgOutOfStock           = "One or more variants are out of stock"
	MsgInvalidConfiguration = "Invalid bundle configuration"
	MsgInternal             = "Internal server error"
)

// Error is the single error type surfaced by the bundle pipeline. The optional detail
// slices are echoed back to the caller next to the message.
type Error struct {
	Kind                    Kind
	Status                  int
	Message                 string
	MissingVariants         []string
	MissingQuantityVariants []string
	FoundMethods            []string
	Cause                   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the response status for the error.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindUnexpected:
		return http.StatusInternalServerError
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// PublicMessage hides the message of unexpected errors.
func (e *Error) PublicMessage() string {
	if e.Kind == KindUnexpected {
		return MsgInternal
	}
	return e.Message
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError builds a not-found error answered with status.
func NewNotFoundError(message string, status int) *Error {
	return &Error{Kind: KindNotFound, Message: message, Status: status}
}

func NewStockError() *Error {
	return &Error{Kind: KindStock, Message: MsgOutOfStock}
}

// NewUpstreamError prefixes the joined upstream messages with context. Without a
// context the message reads "GraphQL errors: a, b".
func NewUpstreamError(context string, cause *UpstreamError) *Error {
	message := cause.Error()
	if context != "" {
		message = fmt.Sprintf("%s. Error: %s", context, strings.Join(cause.Messages, ", "))
	}
	return &Error{
		Kind:    KindUpstream,
		Message: message,
		Cause:   cause,
	}
}

func NewUnexpectedError(cause error) *Error {
	return &Error{Kind: KindUnexpected, Message: MsgInternal, Cause: cause}
}

// UpstreamError is returned by a Gateway when the commerce API answers with an error list.
type UpstreamError struct {
	Operation string
	Messages  []string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GraphQL errors: %s", strings.Join(e.Messages, ", "))
}
