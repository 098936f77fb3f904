// Package gateway builds the exchange backend selected in config and, in
// cache mode, keeps its top of book streaming into a QuoteCache.
package gateway

import (
	"context"
	"fmt"

	"signal_bot/internal/exchange"
	"signal_bot/internal/exchange/binance"
	"signal_bot/internal/exchange/bitget"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health/service"
	"signal_bot/pkg/logger"

	"go.uber.org/fx"
)

// backend is a venue client together with its book feed.
type backend struct {
	client exchange.Gateway
	feed   exchange.QuoteFeed
	// setOnConnect wires feed connection changes into health state.
	setOnConnect func(func(bool))
}

func newBackend(cfg *config.Config) (backend, error) {
	ex := cfg.Exchange
	switch ex.Backend {
	case "bitget", "":
		c := bitget.NewClient(bitget.Config{
			BaseURL:     ex.BaseURL,
			WSURL:       ex.WSURL,
			APIKey:      ex.APIKey,
			APISecret:   ex.APISecret,
			Passphrase:  ex.Passphrase,
			ProductType: ex.ProductType,
			MarginCoin:  ex.MarginCoin,
			RateLimit:   ex.RateLimit,
			Timeout:     ex.RequestTimeout,
		})
		feed := bitget.NewBookFeed(c)
		return backend{client: c, feed: feed, setOnConnect: func(fn func(bool)) { feed.OnConnect = fn }}, nil
	case "binance":
		c := binance.NewClient(binance.Config{
			APIKey:     ex.APIKey,
			APISecret:  ex.APISecret,
			Testnet:    ex.Testnet,
			BaseURL:    ex.BaseURL,
			MarginCoin: ex.MarginCoin,
		})
		feed := binance.NewBookFeed()
		return backend{client: c, feed: feed, setOnConnect: func(fn func(bool)) { feed.OnConnect = fn }}, nil
	default:
		return backend{}, fmt.Errorf("unknown exchange backend %q", ex.Backend)
	}
}

type Out struct {
	fx.Out

	Gateway exchange.Gateway
	Quotes  *exchange.QuoteCache
	Feed    exchange.QuoteFeed
}

// NewGateway returns the instrumented client. In cache mode bid/ask lookups
// go to the streamed quotes first.
func NewGateway(cfg *config.Config, state *service.State) (Out, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return Out{}, err
	}
	b.setOnConnect(state.SetFeedConnected)

	quotes := exchange.NewQuoteCache(cfg.Exchange.QuoteMaxAge)
	var gw exchange.Gateway = exchange.NewInstrumented(b.client)
	if cfg.Trading.EnableCache {
		gw = exchange.NewCachedQuotes(gw, quotes)
	}
	logger.Info("exchange backend %s (cache=%t)", b.client.Name(), cfg.Trading.EnableCache)
	return Out{Gateway: gw, Quotes: quotes, Feed: b.feed}, nil
}

func runFeed(lc fx.Lifecycle, cfg *config.Config, gw exchange.Gateway, feed exchange.QuoteFeed, quotes *exchange.QuoteCache) {
	if !cfg.Trading.EnableCache || len(cfg.Exchange.Symbols) == 0 {
		return
	}
	symbols := make([]string, 0, len(cfg.Exchange.Symbols))
	for _, s := range cfg.Exchange.Symbols {
		symbols = append(symbols, gw.NormalizeSymbol(s))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := feed.Run(ctx, symbols, quotes); err != nil {
					logger.Error("quote feed stopped: %v", err)
				}
			}()
			logger.Info("quote feed started for %d symbols", len(symbols))
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
	return fx.Module("gateway",
		fx.Provide(NewGateway),
		fx.Invoke(runFeed),
	)
}
