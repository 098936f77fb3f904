package runner

import (
	"context"
	"fmt"

	"signal_bot/internal/models"

	"github.com/shopspring/decimal"
)

// Estimate is the largest long and short the sizer would open right now,
// both sized at the same price.
type Estimate struct {
	Symbol  string          `json:"symbol"`
	Price   decimal.Decimal `json:"price"`
	MaxBuy  decimal.Decimal `json:"max_buy"`
	MaxSell decimal.Decimal `json:"max_sell"`
}

// Estimate sizes both directions for sig without placing anything, at the
// override price or else the best ask. Action and sentiment are ignored.
func (e *SignalExecutor) Estimate(ctx context.Context, sig models.Signal) (Estimate, error) {
	if sig.Ticker == "" {
		return Estimate{}, fmt.Errorf("%w: empty ticker", ErrInvalidSignal)
	}
	out := Estimate{Symbol: e.gw.NormalizeSymbol(sig.Ticker)}

	px, err := e.referencePrice(ctx, sig, out.Symbol, models.OpenLong)
	if err != nil {
		return out, err
	}
	out.Price = px

	if out.MaxBuy, err = e.sizer.ComputeQuantity(ctx, out.Symbol, models.OpenLong, px, sig.Leverage, sig.PositionRatio); err != nil {
		return out, err
	}
	if out.MaxSell, err = e.sizer.ComputeQuantity(ctx, out.Symbol, models.OpenShort, px, sig.Leverage, sig.PositionRatio); err != nil {
		return out, err
	}
	return out, nil
}
