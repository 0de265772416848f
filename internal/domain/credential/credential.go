// Package credential describes the per-tenant authentication data the app receives when
// it is installed on a Saleor instance, and the stores that keep it.
package credential

import (
	"context"
	"errors"
	"strings"
)

// DefaultAppName scopes stored credentials when no app name is configured.
const DefaultAppName = "kits-and-bundles"

// AuthData is what an installed app needs to call a Saleor API. The JSON shape matches
// the records written by the Saleor app SDK so existing rows remain readable.
type AuthData struct {
	SaleorAPIURL string `json:"saleorApiUrl"`
	Token        string `json:"token"`
	AppID        string `json:"appId"`
	Domain       string `json:"domain,omitempty"`
	JWKS         string `json:"jwks,omitempty"`
}

// Validate checks the fields required to call the API.
func (a *AuthData) Validate() error {
	if strings.TrimSpace(a.SaleorAPIURL) == "" {
		return errors.New("saleorApiUrl is required")
	}
	if a.Token == "" {
		return errors.New("token is required")
	}
	return nil
}

// Reader resolves the credentials of a tenant. Implementations wrap shared.ErrNotFound
// when the tenant has no active credentials.
type Reader interface {
	Get(ctx context.Context, saleorAPIURL string) (*AuthData, error)
}

// Store is the full credential store (the "APL" of Saleor apps).
type Store interface {
	Reader
	// Set upserts the record and marks it active.
	Set(ctx context.Context, data *AuthData) error
	// Delete deactivates the record without removing it.
	Delete(ctx context.Context, saleorAPIURL string) error
	// Activate re-enables a deactivated record.
	Activate(ctx context.Context, saleorAPIURL string) error
	// GetAll lists every active record.
	GetAll(ctx context.Context) ([]AuthData, error)
	// IsReady reports whether the backing storage is reachable.
	IsReady(ctx context.Context) error
}
