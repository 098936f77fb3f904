package account

import (
	"context"

	"signal_bot/internal/exchange"
	"signal_bot/internal/modules/config"

	"go.uber.org/fx"
)

func newRefresher(gw exchange.Gateway, snap *Snapshot, cfg *config.Config) *Refresher {
	return NewRefresher(gw, snap, cfg.Account.RefreshInterval)
}

// runRefresher starts the periodic refresh only when the engine reads
// from the cache; live mode queries the exchange per signal.
func runRefresher(lc fx.Lifecycle, r *Refresher, cfg *config.Config) {
	if !cfg.Trading.EnableCache {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				r.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("account",
		fx.Provide(
			NewSnapshot,
			newRefresher,
		),
		fx.Invoke(runRefresher),
	)
}
