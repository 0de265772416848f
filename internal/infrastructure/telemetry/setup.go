package telemetry

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kitsbundles/backend/internal/infrastructure/config"
)

// Providers holds the trace, metric and log providers of one process.
type Providers struct {
	Tracer *TracerProvider
	Meter  *MeterProvider
	Logger *LoggerProvider
}

// Setup creates every provider from cfg. Disabled signals get no-op providers, so the
// returned fields are never nil.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*Providers, error) {
	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	mp, err := NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	return &Providers{Tracer: tp, Meter: mp, Logger: lp}, nil
}

// LogCore returns the zap core that forwards entries at level and above to the log
// provider. It is a no-op core when logs are disabled.
func (p *Providers) LogCore(serviceName string, level zapcore.Level) zapcore.Core {
	return NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    serviceName,
		LoggerProvider: p.Logger,
		Level:          level,
	})
}

// Shutdown flushes and stops the providers in reverse order of creation.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Logger.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Tracer.Shutdown(ctx),
	)
}
