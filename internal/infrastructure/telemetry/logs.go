package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogExporter ships zap entries to the collector through the otelzap bridge,
// next to the spans of the same request.
type LogExporter struct {
	provider    *sdklog.LoggerProvider
	serviceName string
	logger      *zap.Logger
}

// NewLogExporter exports logs over OTLP/gRPC when both telemetry and log export
// are enabled. Otherwise the returned exporter leaves loggers untouched.
func NewLogExporter(ctx context.Context, cfg Config, logsEnabled bool, logger *zap.Logger) (*LogExporter, error) {
	le := &LogExporter{serviceName: cfg.ServiceName, logger: logger}
	if !cfg.Enabled || !logsEnabled {
		return le, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}

	le.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	logger.Info("OpenTelemetry log export initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return le, nil
}

// Enabled reports whether logs leave the process
func (le *LogExporter) Enabled() bool {
	return le.provider != nil
}

// Attach returns a logger that writes to log's own core and to the collector.
// Entries below minLevel are not exported.
func (le *LogExporter) Attach(log *zap.Logger, minLevel zapcore.Level) *zap.Logger {
	if le.provider == nil {
		return log
	}
	bridge := &levelCore{
		Core: otelzap.NewCore(le.serviceName, otelzap.WithLoggerProvider(le.provider)),
		min:  minLevel,
	}
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, bridge)
	}))
}

// Shutdown flushes buffered records
func (le *LogExporter) Shutdown(ctx context.Context) error {
	if le.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := le.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown log exporter: %w", err)
	}
	return nil
}

// levelCore drops entries below min; the bridge core itself accepts every level.
type levelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), min: c.min}
}
