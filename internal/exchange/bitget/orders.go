package bitget

import (
	"context"
	"net/http"
	"net/url"

	"signal_bot/internal/exchange"
	"signal_bot/internal/helper"
	"signal_bot/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func (c *Client) BestBid(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return c.bookTop(ctx, symbol, "bids")
}

func (c *Client) BestAsk(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return c.bookTop(ctx, symbol, "asks")
}

func (c *Client) bookTop(ctx context.Context, symbol, side string) (decimal.Decimal, error) {
	q := url.Values{"symbol": {symbol}, "limit": {"5"}}
	data, err := c.do(ctx, http.MethodGet, "/api/mix/v1/market/depth", q, nil)
	if err != nil {
		return decimal.Zero, err
	}
	px := helper.ParseDecimal(data.Get(side + ".0.0").String())
	if !px.IsPositive() {
		return decimal.Zero, errors.Wrapf(exchange.ErrNoQuote, "%s %s", symbol, side)
	}
	return px, nil
}

func (c *Client) PlaceLimitOrder(ctx context.Context, symbol string, side models.OrderSide, qty, price decimal.Decimal) (string, error) {
	return c.placeOrder(ctx, symbol, side, models.OrderTypeLimit, qty, price)
}

func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (string, error) {
	return c.placeOrder(ctx, symbol, side, models.OrderTypeMarket, qty, decimal.Zero)
}

func (c *Client) placeOrder(ctx context.Context, symbol string, side models.OrderSide, typ models.OrderType, qty, price decimal.Decimal) (string, error) {
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": c.cfg.MarginCoin,
		"side":       string(side),
		"orderType":  string(typ),
		"size":       qty.String(),
		"clientOid":  uuid.NewString(),
	}
	if typ == models.OrderTypeLimit {
		body["price"] = price.String()
		body["timeInForceValue"] = "normal"
	}
	data, err := c.do(ctx, http.MethodPost, "/api/mix/v1/order/placeOrder", nil, body)
	if err != nil {
		return "", err
	}
	id := data.Get("orderId").String()
	if id == "" {
		return "", errors.Errorf("placeOrder: empty orderId: %s", data.Raw)
	}
	return id, nil
}

func (c *Client) OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderState, error) {
	q := url.Values{"symbol": {symbol}, "orderId": {orderID}}
	data, err := c.do(ctx, http.MethodGet, "/api/mix/v1/order/detail", q, nil)
	if err != nil {
		return models.OrderState{}, err
	}
	return models.OrderState{
		Status:         mapState(data.Get("state").String()),
		FilledQuantity: helper.ParseDecimal(data.Get("filledQty").String()),
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": c.cfg.MarginCoin,
		"orderId":    orderID,
	}
	_, err := c.do(ctx, http.MethodPost, "/api/mix/v1/order/cancel-order", nil, body)
	return err
}

func mapState(s string) models.OrderStatus {
	switch s {
	case "init", "new":
		return models.OrderStatusNew
	case "partially_filled", "partial-fill":
		return models.OrderStatusPartiallyFilled
	case "filled", "full-fill":
		return models.OrderStatusFilled
	case "canceled", "cancelled":
		return models.OrderStatusCanceled
	default:
		return models.OrderStatusUnknown
	}
}
