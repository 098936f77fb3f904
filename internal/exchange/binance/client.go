// Package binance implements exchange.Gateway for Binance USDⓈ-M futures in
// one-way position mode.
package binance

import (
	"context"
	"strconv"
	"strings"

	"signal_bot/internal/exchange"
	"signal_bot/internal/helper"
	"signal_bot/internal/models"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	// BaseURL overrides the REST endpoint.
	BaseURL    string
	MarginCoin string // USDT
}

type Client struct {
	cfg Config
	api *futures.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	if cfg.MarginCoin == "" {
		cfg.MarginCoin = "USDT"
	}
	api := gobinance.NewFuturesClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		api.BaseURL = cfg.BaseURL
	}
	return &Client{cfg: cfg, api: api}
}

func (c *Client) Name() string { return "binance" }

func (c *Client) NormalizeSymbol(ticker string) string {
	return helper.BaseTicker(ticker)
}

func (c *Client) AvailableEquity(ctx context.Context) (decimal.Decimal, error) {
	acc, err := c.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "binance account")
	}
	for _, a := range acc.Assets {
		if strings.EqualFold(a.Asset, c.cfg.MarginCoin) {
			return helper.ParseDecimal(a.AvailableBalance), nil
		}
	}
	return decimal.Zero, errors.Errorf("binance account: no %s asset", c.cfg.MarginCoin)
}

func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	risks, err := c.api.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance position risk")
	}
	out := make([]models.Position, 0, len(risks))
	for _, r := range risks {
		amt := helper.ParseDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		out = append(out, models.Position{Symbol: r.Symbol, Quantity: amt})
	}
	return out, nil
}

func (c *Client) bookTicker(ctx context.Context, symbol string) (*futures.BookTicker, error) {
	res, err := c.api.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "binance book ticker %s", symbol)
	}
	if len(res) == 0 {
		return nil, errors.Wrap(exchange.ErrNoQuote, symbol)
	}
	return res[0], nil
}

func (c *Client) BestBid(ctx context.Context, symbol string) (decimal.Decimal, error) {
	t, err := c.bookTicker(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	px := helper.ParseDecimal(t.BidPrice)
	if !px.IsPositive() {
		return decimal.Zero, errors.Wrapf(exchange.ErrNoQuote, "%s bid", symbol)
	}
	return px, nil
}

func (c *Client) BestAsk(ctx context.Context, symbol string) (decimal.Decimal, error) {
	t, err := c.bookTicker(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	px := helper.ParseDecimal(t.AskPrice)
	if !px.IsPositive() {
		return decimal.Zero, errors.Wrapf(exchange.ErrNoQuote, "%s ask", symbol)
	}
	return px, nil
}

// orderSide maps open/close intents onto one-way mode: closes are the
// opposite book side with reduceOnly set.
func orderSide(side models.OrderSide) (futures.SideType, bool) {
	switch side {
	case models.OpenLong:
		return futures.SideTypeBuy, false
	case models.OpenShort:
		return futures.SideTypeSell, false
	case models.CloseLong:
		return futures.SideTypeSell, true
	default:
		return futures.SideTypeBuy, true
	}
}

func (c *Client) PlaceLimitOrder(ctx context.Context, symbol string, side models.OrderSide, qty, price decimal.Decimal) (string, error) {
	bs, reduce := orderSide(side)
	svc := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(bs).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Price(price.String()).
		Quantity(qty.String()).
		NewClientOrderID(uuid.NewString())
	if reduce {
		svc = svc.ReduceOnly(true)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "binance limit %s %s", side, symbol)
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (string, error) {
	bs, reduce := orderSide(side)
	svc := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(bs).
		Type(futures.OrderTypeMarket).
		Quantity(qty.String()).
		NewClientOrderID(uuid.NewString())
	if reduce {
		svc = svc.ReduceOnly(true)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "binance market %s %s", side, symbol)
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Client) OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderState, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return models.OrderState{}, errors.Wrapf(err, "binance order id %q", orderID)
	}
	o, err := c.api.NewGetOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	if err != nil {
		return models.OrderState{}, errors.Wrapf(err, "binance order %s", orderID)
	}
	return models.OrderState{
		Status:         mapStatus(o.Status),
		FilledQuantity: helper.ParseDecimal(o.ExecutedQuantity),
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "binance order id %q", orderID)
	}
	_, err = c.api.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	return errors.Wrapf(err, "binance cancel %s", orderID)
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	_, err := c.api.NewChangeLeverageService().Symbol(symbol).Leverage(int(leverage.IntPart())).Do(ctx)
	return errors.Wrapf(err, "binance leverage %s", symbol)
}

// MaxOpenableQuantity is available balance times leverage over price.
// Binance has no server-side estimate comparable to Bitget's open-count.
func (c *Client) MaxOpenableQuantity(ctx context.Context, _ string, _ models.OrderSide, price, leverage decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, errors.New("binance max openable: price must be positive")
	}
	eq, err := c.AvailableEquity(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !leverage.IsPositive() {
		leverage = decimal.NewFromInt(1)
	}
	return eq.Mul(leverage).Div(price), nil
}

func mapStatus(s futures.OrderStatusType) models.OrderStatus {
	switch s {
	case futures.OrderStatusTypeNew:
		return models.OrderStatusNew
	case futures.OrderStatusTypePartiallyFilled:
		return models.OrderStatusPartiallyFilled
	case futures.OrderStatusTypeFilled:
		return models.OrderStatusFilled
	case futures.OrderStatusTypeCanceled, futures.OrderStatusTypeExpired:
		return models.OrderStatusCanceled
	case futures.OrderStatusTypeRejected:
		return models.OrderStatusRejected
	default:
		return models.OrderStatusUnknown
	}
}
