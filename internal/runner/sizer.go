package runner

import (
	"context"
	"fmt"

	"signal_bot/internal/account"
	"signal_bot/internal/exchange"
	"signal_bot/internal/helper"
	"signal_bot/internal/models"

	"github.com/shopspring/decimal"
)

type SizerConfig struct {
	// UseCache sizes from the account snapshot instead of asking the exchange.
	UseCache bool
	// MarginMode multiplies cached sizing by leverage.
	MarginMode bool
	// MaxPurchaseRatio scales the exchange's max-openable estimate.
	MaxPurchaseRatio decimal.Decimal
}

// PositionSizer converts equity and a reference price into whole contracts.
type PositionSizer struct {
	gw   exchange.Gateway
	snap *account.Snapshot
	cfg  SizerConfig
}

func NewPositionSizer(gw exchange.Gateway, snap *account.Snapshot, cfg SizerConfig) *PositionSizer {
	if !cfg.MaxPurchaseRatio.IsPositive() {
		cfg.MaxPurchaseRatio = decimal.NewFromInt(1)
	}
	return &PositionSizer{gw: gw, snap: snap, cfg: cfg}
}

// ComputeQuantity returns a floored, non-negative contract count.
// positionRatio applies to cached sizing only; live sizing uses MaxPurchaseRatio.
func (s *PositionSizer) ComputeQuantity(ctx context.Context, symbol string, side models.OrderSide, price, leverage, positionRatio decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	if s.cfg.UseCache {
		st := s.snap.Load()
		if st == nil {
			return decimal.Zero, fmt.Errorf("%w: account snapshot not loaded yet", ErrSizingFailure)
		}
		budget := st.AvailableEquity.Mul(positionRatio)
		if s.cfg.MarginMode {
			budget = budget.Mul(leverage)
		}
		return helper.FloorQty(budget.Div(price)), nil
	}

	maxQty, err := s.gw.MaxOpenableQuantity(ctx, symbol, side, price, leverage)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSizingFailure, err)
	}
	return helper.FloorQty(maxQty.Mul(s.cfg.MaxPurchaseRatio)), nil
}
