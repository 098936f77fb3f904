package runner

import (
	"context"

	"signal_bot/internal/account"
	"signal_bot/internal/exchange"
	"signal_bot/internal/modules/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newSizer(gw exchange.Gateway, snap *account.Snapshot, cfg *config.Config) *PositionSizer {
	return NewPositionSizer(gw, snap, SizerConfig{
		UseCache:         cfg.Trading.EnableCache,
		MarginMode:       cfg.Trading.MarginMode,
		MaxPurchaseRatio: cfg.MaxPurchaseRatio(),
	})
}

func newRisk(cfg *config.Config) *RiskValidator {
	return NewRiskValidator(cfg.MinNotional())
}

func newLifecycle(gw exchange.Gateway, risk *RiskValidator, cfg *config.Config) *OrderLifecycleController {
	return NewOrderLifecycleController(gw, risk, nil, LifecycleConfig{
		CheckInterval:    cfg.Trading.OrderCheckInterval,
		FallbackQuantity: cfg.Trading.FallbackQuantity,
	})
}

func newExecutor(
	gw exchange.Gateway,
	snap *account.Snapshot,
	sizer *PositionSizer,
	lc *OrderLifecycleController,
	n Notifier,
	cfg *config.Config,
	log *zap.Logger,
) *SignalExecutor {
	return NewSignalExecutor(gw, snap, sizer, lc, n, ExecutorConfig{UseCache: cfg.Trading.EnableCache}, log.Named("executor"))
}

func newDispatcher(lc fx.Lifecycle, ex *SignalExecutor, gw exchange.Gateway, cfg *config.Config) *Dispatcher {
	d := NewDispatcher(ex, cfg.Trading.SerializePerSymbol, gw.NormalizeSymbol)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Shutdown(ctx)
		},
	})
	return d
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newSizer,
			newRisk,
			newLifecycle,
			newExecutor,
			newDispatcher,
		),
		// build the dispatcher ahead of the HTTP server so its OnStop runs
		// after the server has stopped taking webhooks
		fx.Invoke(func(*Dispatcher) {}),
	)
}
