package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the signed net holding on a symbol: positive is long, negative short.
type Position struct {
	Symbol   string
	Quantity decimal.Decimal
}

func (p Position) IsLong() bool  { return p.Quantity.IsPositive() }
func (p Position) IsShort() bool { return p.Quantity.IsNegative() }

// AccountState is a point-in-time view of the account. It is never mutated
// after construction; refreshes build a new one.
type AccountState struct {
	AvailableEquity decimal.Decimal
	Positions       map[string]Position
	AsOf            time.Time
}

func NewAccountState(equity decimal.Decimal, positions []Position, asOf time.Time) *AccountState {
	m := make(map[string]Position, len(positions))
	for _, p := range positions {
		if p.Quantity.IsZero() {
			continue
		}
		// hedge-mode venues report long and short legs separately
		if cur, ok := m[p.Symbol]; ok {
			p.Quantity = cur.Quantity.Add(p.Quantity)
		}
		m[p.Symbol] = p
	}
	return &AccountState{AvailableEquity: equity, Positions: m, AsOf: asOf}
}

// Position returns the holding for symbol, or a zero position.
func (s *AccountState) Position(symbol string) Position {
	if s == nil {
		return Position{Symbol: symbol}
	}
	if p, ok := s.Positions[symbol]; ok {
		return p
	}
	return Position{Symbol: symbol}
}
