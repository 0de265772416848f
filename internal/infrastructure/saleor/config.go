package saleor

import (
	"errors"
	"time"
)

const (
	// DefaultChannel is the sales channel used when none is configured.
	DefaultChannel = "default-channel"
	// DefaultTimeout bounds one GraphQL round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxResponseSize is the largest response body accepted (10MB).
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// Errors for client configuration and transport failures.
var (
	ErrMissingEndpoint = errors.New("saleor: api url is required")
	ErrMissingToken    = errors.New("saleor: app token is required")
	ErrUnavailable     = errors.New("saleor: api temporarily unavailable")
	ErrRequestFailed   = errors.New("saleor: request failed")
	ErrInvalidResponse = errors.New("saleor: invalid response")
	ErrGraphQL         = errors.New("saleor: graphql errors")
)

// Config holds the client settings shared by every tenant.
type Config struct {
	Channel         string
	Timeout         time.Duration
	MaxResponseSize int64
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		Channel:         DefaultChannel,
		Timeout:         DefaultTimeout,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	return c
}
