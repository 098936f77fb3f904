package observability

import (
	"context"
	"fmt"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	if _, err := logger.Init(cfg.Log.Level); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Sync()
			return nil
		},
	})
	return logger.Named("app"), nil
}

func newTracer(lc fx.Lifecycle, cfg *config.Config, _ *zap.Logger) (opentracing.Tracer, error) {
	tracing.SetServiceName(cfg.Service.Name)
	tracer, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	if cfg.Tracing.Enabled {
		logger.Info("tracing to %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	}
	return tracer, nil
}

func Module() fx.Option {
	return fx.Module("observability",
		fx.Provide(newLogger, newTracer),
		// spans are started through the global tracer, so force construction
		fx.Invoke(func(opentracing.Tracer) {}),
	)
}
