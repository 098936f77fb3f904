package bitget

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// AvailableEquity is the "available" balance of the configured margin coin.
func (c *Client) AvailableEquity(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{"productType": {c.cfg.ProductType}}
	data, err := c.do(ctx, http.MethodGet, "/api/mix/v1/account/accounts", q, nil)
	if err != nil {
		return decimal.Zero, err
	}
	for _, acc := range data.Array() {
		if strings.EqualFold(acc.Get("marginCoin").String(), c.cfg.MarginCoin) {
			return helper.ParseDecimal(acc.Get("available").String()), nil
		}
	}
	return decimal.Zero, errors.Errorf("no %s account in response", c.cfg.MarginCoin)
}

// Positions returns one signed position per symbol; long and short legs of a
// hedge-mode account are netted.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	q := url.Values{
		"productType": {c.cfg.ProductType},
		"marginCoin":  {c.cfg.MarginCoin},
	}
	data, err := c.do(ctx, http.MethodGet, "/api/mix/v1/position/allPosition-v2", q, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.Position, 0, len(data.Array()))
	data.ForEach(func(_, p gjson.Result) bool {
		qty := helper.ParseDecimal(p.Get("total").String())
		if qty.IsZero() {
			return true
		}
		if p.Get("holdSide").String() == "short" {
			qty = qty.Neg()
		}
		out = append(out, models.Position{Symbol: p.Get("symbol").String(), Quantity: qty})
		return true
	})
	return out, nil
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": c.cfg.MarginCoin,
		"leverage":   leverage.String(),
	}
	_, err := c.do(ctx, http.MethodPost, "/api/mix/v1/account/setLeverage", nil, body)
	return err
}

// MaxOpenableQuantity asks the venue how many contracts the whole available
// balance opens at price and leverage.
func (c *Client) MaxOpenableQuantity(ctx context.Context, symbol string, _ models.OrderSide, price, leverage decimal.Decimal) (decimal.Decimal, error) {
	equity, err := c.AvailableEquity(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": c.cfg.MarginCoin,
		"openPrice":  price.String(),
		"openAmount": equity.String(),
	}
	if leverage.IsPositive() {
		body["leverage"] = leverage.String()
	}
	data, err := c.do(ctx, http.MethodPost, "/api/mix/v1/account/open-count", nil, body)
	if err != nil {
		return decimal.Zero, err
	}
	return helper.ParseDecimal(data.Get("openCount").String()), nil
}
