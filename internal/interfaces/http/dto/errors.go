package dto

import (
	"fmt"

	"github.com/kitsbundles/backend/internal/domain/bundle"
)

// Messages of errors raised by the HTTP layer itself.
const (
	MsgTenantHeaderRequired = "Saleor-Domain header is required"
	MsgInvalidBody          = "Invalid request body"
	MsgBodyTooLarge         = "Request body exceeds maximum allowed size"
	MsgInternal             = bundle.MsgInternal
)

// MsgTenantNotInstalled is returned when no credentials are stored for tenant.
func MsgTenantNotInstalled(tenant string) string {
	return fmt.Sprintf("No auth data found for %s. Is the app installed?", tenant)
}

// ErrorResponse is the body of every failed request. The detail lists are only
// present for the validation failures that produce them.
type ErrorResponse struct {
	ErrorMessage            string   `json:"errorMessage"`
	MissingVariants         []string `json:"missingVariants,omitempty"`
	MissingQuantityVariants []string `json:"missingQuantityVariants,omitempty"`
	FoundMethods            []string `json:"foundMethods,omitempty"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{ErrorMessage: message}
}

// NewBundleErrorResponse renders err with its public message and detail lists.
func NewBundleErrorResponse(err *bundle.Error) ErrorResponse {
	return ErrorResponse{
		ErrorMessage:            err.PublicMessage(),
		MissingVariants:         err.MissingVariants,
		MissingQuantityVariants: err.MissingQuantityVariants,
		FoundMethods:            err.FoundMethods,
	}
}
