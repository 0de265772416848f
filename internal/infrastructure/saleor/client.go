// Package saleor is the GraphQL client for the Saleor commerce API. It implements
// bundle.Gateway for one installed tenant.
package saleor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/telemetry"
)

// HeaderAuthorization carries the app token. Saleor apps use this header rather than
// the standard Authorization one.
const HeaderAuthorization = "Authorization-Bearer"

// DurationRecorder observes the latency of every GraphQL round trip.
type DurationRecorder interface {
	RecordUpstreamDuration(ctx context.Context, operation string, d time.Duration, err error)
}

// Option customises clients built by NewClient and Factory.
type Option func(*options)

type options struct {
	httpClient *http.Client
	recorder   DurationRecorder
}

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRecorder reports request durations to r.
func WithRecorder(r DurationRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func buildOptions(cfg Config, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return o
}

// Client talks to one Saleor API on behalf of one installed app.
type Client struct {
	endpoint        string
	token           string
	httpClient      *http.Client
	maxResponseSize int64
	recorder        DurationRecorder
}

var _ bundle.Gateway = (*Client)(nil)

// NewClient creates a client for the API at endpoint authenticated with token.
func NewClient(endpoint, token string, cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	return newClient(endpoint, token, cfg, buildOptions(cfg, opts))
}

func newClient(endpoint, token string, cfg Config, o options) (*Client, error) {
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		endpoint:        endpoint,
		token:           token,
		httpClient:      o.httpClient,
		maxResponseSize: cfg.MaxResponseSize,
		recorder:        o.recorder,
	}, nil
}

// Factory builds tenant clients that share one HTTP client.
type Factory struct {
	config  Config
	options options
}

// NewFactory creates a Factory from cfg.
func NewFactory(cfg Config, opts ...Option) *Factory {
	cfg = cfg.withDefaults()
	return &Factory{
		config:  cfg,
		options: buildOptions(cfg, opts),
	}
}

// Channel returns the sales channel every request is made in.
func (f *Factory) Channel() string {
	return f.config.Channel
}

// ForTenant returns a Gateway for the tenant described by auth.
func (f *Factory) ForTenant(auth *credential.AuthData) (bundle.Gateway, error) {
	return newClient(auth.SaleorAPIURL, auth.Token, f.config, f.options)
}

// execute runs one GraphQL operation and decodes its data into out. Top-level errors
// become a *bundle.UpstreamError wrapped with ErrGraphQL.
func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "saleor."+operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrOperation, operation),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordUpstreamDuration(ctx, operation, time.Since(start), err)
		}
		telemetry.RecordError(span, err)
	}()

	body, err := c.doRequest(ctx, query, variables)
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrInvalidResponse, err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return upstreamError(operation, messages)
	}
	if len(resp.Data) == 0 || bytes.Equal(resp.Data, []byte("null")) {
		return fmt.Errorf("%w: %s returned no data", ErrInvalidResponse, operation)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s data: %v", ErrInvalidResponse, operation, err)
	}
	return nil
}

// doRequest performs the HTTP round trip.
func (c *Client) doRequest(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("saleor: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("saleor: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAuthorization, c.token)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("saleor: failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, c.maxResponseSize)
	}

	if resp.StatusCode >= 400 {
		// invalid queries come back as 400 with a regular errors list
		var gql graphQLResponse
		if json.Unmarshal(body, &gql) == nil && len(gql.Errors) > 0 {
			return body, nil
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}

func upstreamError(operation string, messages []string) error {
	return fmt.Errorf("%w: %w", ErrGraphQL, &bundle.UpstreamError{Operation: operation, Messages: messages})
}

func mutationErrors(operation string, errs []mutationError) error {
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return upstreamError(operation, messages)
}
