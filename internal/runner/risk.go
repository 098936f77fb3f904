package runner

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskValidator enforces the venue-independent order floor.
type RiskValidator struct {
	minNotional decimal.Decimal
}

func NewRiskValidator(minNotional decimal.Decimal) *RiskValidator {
	return &RiskValidator{minNotional: minNotional}
}

// Validate accepts quantity >= 1 with price*quantity >= the minimum notional.
func (v *RiskValidator) Validate(price, qty decimal.Decimal) error {
	if qty.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrMinQuantity, qty)
	}
	if notional := price.Mul(qty); notional.LessThan(v.minNotional) {
		return fmt.Errorf("%w: %s x %s = %s < %s", ErrMinNotional, qty, price, notional, v.minNotional)
	}
	return nil
}
