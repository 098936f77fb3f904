package helper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FloorQty floors a quantity to whole contracts and never returns a negative value.
func FloorQty(q decimal.Decimal) decimal.Decimal {
	f := q.Floor()
	if f.IsNegative() {
		return decimal.Zero
	}
	return f
}

// ParseDecimal parses an exchange numeric string; empty or malformed input is zero.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// BaseTicker strips TradingView decorations such as "BINANCE:" prefixes and
// the ".P" perpetual suffix.
func BaseTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.LastIndexByte(t, ':'); i >= 0 {
		t = t[i+1:]
	}
	t = strings.TrimSuffix(t, ".P")
	return t
}
