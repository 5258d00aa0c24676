package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"user-crud-service/internal/config"
	"user-crud-service/pkg/telemetry"
)

// NewTelemetry installs the OpenTelemetry providers described by cfg. When
// telemetry is disabled the returned provider is inert.
func NewTelemetry(ctx context.Context, cfg *config.Config, l *zap.Logger) (*telemetry.Provider, error) {
	p, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		MetricInterval: time.Duration(cfg.Telemetry.MetricIntervalSeconds) * time.Second,
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Environment,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	return p, nil
}
