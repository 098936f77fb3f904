// Package exchangetest provides a testify mock of exchange.Gateway.
package exchangetest

import (
	"context"

	"signal_bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func (m *Gateway) Name() string { return "mock" }

func (m *Gateway) NormalizeSymbol(ticker string) string { return ticker + "_UMCBL" }

func (m *Gateway) AvailableEquity(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *Gateway) Positions(ctx context.Context) ([]models.Position, error) {
	args := m.Called(ctx)
	var out []models.Position
	if v := args.Get(0); v != nil {
		out = v.([]models.Position)
	}
	return out, args.Error(1)
}

func (m *Gateway) BestBid(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *Gateway) BestAsk(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *Gateway) PlaceLimitOrder(ctx context.Context, symbol string, side models.OrderSide, qty, price decimal.Decimal) (string, error) {
	args := m.Called(ctx, symbol, side, qty, price)
	return args.String(0), args.Error(1)
}

func (m *Gateway) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (string, error) {
	args := m.Called(ctx, symbol, side, qty)
	return args.String(0), args.Error(1)
}

func (m *Gateway) OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderState, error) {
	args := m.Called(ctx, symbol, orderID)
	return args.Get(0).(models.OrderState), args.Error(1)
}

func (m *Gateway) CancelOrder(ctx context.Context, symbol, orderID string) error {
	args := m.Called(ctx, symbol, orderID)
	return args.Error(0)
}

func (m *Gateway) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	args := m.Called(ctx, symbol, leverage)
	return args.Error(0)
}

func (m *Gateway) MaxOpenableQuantity(ctx context.Context, symbol string, side models.OrderSide, price, leverage decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol, side, price, leverage)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// Dec matches a decimal argument by value rather than by internal representation.
func Dec(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}
