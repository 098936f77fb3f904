package exchange

import (
	"context"
	"time"

	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"github.com/shopspring/decimal"
)

// Instrumented times every gateway call: a debug log line, a latency
// histogram sample and a tracing span.
type Instrumented struct {
	next Gateway
}

func NewInstrumented(next Gateway) *Instrumented {
	return &Instrumented{next: next}
}

func (g *Instrumented) observe(ctx context.Context, op string) (context.Context, func(error)) {
	span, ctx := tracing.StartSpan(ctx, "exchange."+op)
	span.SetTag("backend", g.next.Name())
	start := time.Now()
	return ctx, func(err error) {
		d := time.Since(start)
		metrics.ExchangeCalls.WithLabelValues(g.next.Name(), op, metrics.Result(err)).Observe(d.Seconds())
		if err != nil {
			logger.Warn("%s %s failed after %s: %v", g.next.Name(), op, d, err)
		} else {
			logger.Debug("%s %s took %s", g.next.Name(), op, d)
		}
		tracing.Finish(span, err)
	}
}

func (g *Instrumented) Name() string { return g.next.Name() }

func (g *Instrumented) NormalizeSymbol(ticker string) string { return g.next.NormalizeSymbol(ticker) }

func (g *Instrumented) AvailableEquity(ctx context.Context) (v decimal.Decimal, err error) {
	ctx, done := g.observe(ctx, "available_equity")
	defer func() { done(err) }()
	return g.next.AvailableEquity(ctx)
}

func (g *Instrumented) Positions(ctx context.Context) (v []models.Position, err error) {
	ctx, done := g.observe(ctx, "positions")
	defer func() { done(err) }()
	return g.next.Positions(ctx)
}

func (g *Instrumented) BestBid(ctx context.Context, symbol string) (v decimal.Decimal, err error) {
	ctx, done := g.observe(ctx, "best_bid")
	defer func() { done(err) }()
	return g.next.BestBid(ctx, symbol)
}

func (g *Instrumented) BestAsk(ctx context.Context, symbol string) (v decimal.Decimal, err error) {
	ctx, done := g.observe(ctx, "best_ask")
	defer func() { done(err) }()
	return g.next.BestAsk(ctx, symbol)
}

func (g *Instrumented) PlaceLimitOrder(ctx context.Context, symbol string, side models.OrderSide, qty, price decimal.Decimal) (id string, err error) {
	ctx, done := g.observe(ctx, "place_limit")
	defer func() { done(err) }()
	id, err = g.next.PlaceLimitOrder(ctx, symbol, side, qty, price)
	if err == nil {
		metrics.Orders.WithLabelValues(g.next.Name(), string(models.OrderTypeLimit), string(side)).Inc()
	}
	return id, err
}

func (g *Instrumented) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (id string, err error) {
	ctx, done := g.observe(ctx, "place_market")
	defer func() { done(err) }()
	id, err = g.next.PlaceMarketOrder(ctx, symbol, side, qty)
	if err == nil {
		metrics.Orders.WithLabelValues(g.next.Name(), string(models.OrderTypeMarket), string(side)).Inc()
	}
	return id, err
}

func (g *Instrumented) OrderStatus(ctx context.Context, symbol, orderID string) (st models.OrderState, err error) {
	ctx, done := g.observe(ctx, "order_status")
	defer func() { done(err) }()
	return g.next.OrderStatus(ctx, symbol, orderID)
}

func (g *Instrumented) CancelOrder(ctx context.Context, symbol, orderID string) (err error) {
	ctx, done := g.observe(ctx, "cancel_order")
	defer func() { done(err) }()
	return g.next.CancelOrder(ctx, symbol, orderID)
}

func (g *Instrumented) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) (err error) {
	ctx, done := g.observe(ctx, "set_leverage")
	defer func() { done(err) }()
	return g.next.SetLeverage(ctx, symbol, leverage)
}

func (g *Instrumented) MaxOpenableQuantity(ctx context.Context, symbol string, side models.OrderSide, price, leverage decimal.Decimal) (q decimal.Decimal, err error) {
	ctx, done := g.observe(ctx, "max_openable")
	defer func() { done(err) }()
	return g.next.MaxOpenableQuantity(ctx, symbol, side, price, leverage)
}
