package binance

import (
	"context"
	"sync"
	"time"

	"signal_bot/internal/exchange"
	"signal_bot/internal/helper"
	"signal_bot/pkg/logger"

	"github.com/adshao/go-binance/v2/futures"
)

// BookFeed keeps a QuoteCache current from per-symbol bookTicker streams.
type BookFeed struct {
	OnConnect func(bool)
}

func NewBookFeed() *BookFeed { return &BookFeed{} }

func (f *BookFeed) Run(ctx context.Context, symbols []string, cache *exchange.QuoteCache) error {
	var wg sync.WaitGroup
	for _, s := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			f.serve(ctx, symbol, cache)
		}(s)
	}
	wg.Wait()
	return nil
}

func (f *BookFeed) serve(ctx context.Context, symbol string, cache *exchange.QuoteCache) {
	delay := time.Second
	for ctx.Err() == nil {
		handler := func(ev *futures.WsBookTickerEvent) {
			applyBookTicker(ev, cache)
		}
		errHandler := func(err error) {
			if err != nil {
				logger.Warn("[WS] binance bookTicker %s: %v", symbol, err)
			}
		}

		doneC, stopC, err := futures.WsBookTickerServe(symbol, handler, errHandler)
		if err != nil {
			logger.Warn("[WS] binance bookTicker %s dial: %v", symbol, err)
		} else {
			delay = time.Second
			if f.OnConnect != nil {
				f.OnConnect(true)
			}
			select {
			case <-ctx.Done():
				close(stopC)
				<-doneC
				return
			case <-doneC:
			}
			if f.OnConnect != nil {
				f.OnConnect(false)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}

func applyBookTicker(ev *futures.WsBookTickerEvent, cache *exchange.QuoteCache) {
	if ev == nil {
		return
	}
	bid := helper.ParseDecimal(ev.BestBidPrice)
	ask := helper.ParseDecimal(ev.BestAskPrice)
	if !bid.IsPositive() || !ask.IsPositive() {
		return
	}
	cache.Set(ev.Symbol, bid, ask)
}
