package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// BundleMeterName is the meter name for the bundle pipeline instruments.
const BundleMeterName = "kits-and-bundles/bundle"

// BundleMetrics holds the counters and histograms of the add-bundle pipeline and of
// the commerce API client.
type BundleMetrics struct {
	processed        *Counter
	failures         *Counter
	linesTagged      *Counter
	upstreamDuration *Histogram
}

// NewBundleMetrics creates every bundle instrument on meter.
func NewBundleMetrics(meter metric.Meter) (*BundleMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewBundleMetrics", Message: "meter is required"}
	}

	processed, err := NewCounter(meter, "bundles_processed_total",
		"Bundles added to a checkout", "{bundle}")
	if err != nil {
		return nil, err
	}
	failures, err := NewCounter(meter, "bundle_failures_total",
		"Add-bundle requests that failed, by error kind", "{request}")
	if err != nil {
		return nil, err
	}
	linesTagged, err := NewCounter(meter, "bundle_lines_tagged_total",
		"Checkout lines tagged with bundle metadata", "{line}")
	if err != nil {
		return nil, err
	}
	upstreamDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "upstream_request_duration_seconds",
		Description: "Duration of commerce API GraphQL requests",
		Unit:        "s",
		Boundaries:  UpstreamDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &BundleMetrics{
		processed:        processed,
		failures:         failures,
		linesTagged:      linesTagged,
		upstreamDuration: upstreamDuration,
	}, nil
}

// RecordProcessed counts one successfully added bundle.
func (m *BundleMetrics) RecordProcessed(ctx context.Context, pricingMethod string) {
	m.processed.Inc(ctx, AttrPricingMethod.String(pricingMethod))
}

// RecordFailure counts one failed request.
func (m *BundleMetrics) RecordFailure(ctx context.Context, kind string) {
	m.failures.Inc(ctx, AttrFailureKind.String(kind))
}

// RecordLinesTagged counts lines that received bundle metadata.
func (m *BundleMetrics) RecordLinesTagged(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.linesTagged.Add(ctx, int64(n))
}

// RecordUpstreamDuration observes one GraphQL round trip.
func (m *BundleMetrics) RecordUpstreamDuration(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// MetricsError reports an invalid metrics setup.
type MetricsError struct {
	Op      string
	Message string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Message
}
