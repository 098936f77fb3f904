package exchange

import (
	"context"
	"errors"

	"signal_bot/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNoQuote is returned when a book side is empty.
var ErrNoQuote = errors.New("exchange: no quote")

// Gateway is everything the execution engine needs from a venue.
// Order ids are opaque strings; symbols are venue-native (see NormalizeSymbol).
type Gateway interface {
	Name() string
	// NormalizeSymbol maps an alert ticker onto the venue's contract symbol.
	NormalizeSymbol(ticker string) string

	AvailableEquity(ctx context.Context) (decimal.Decimal, error)
	Positions(ctx context.Context) ([]models.Position, error)

	BestBid(ctx context.Context, symbol string) (decimal.Decimal, error)
	BestAsk(ctx context.Context, symbol string) (decimal.Decimal, error)

	PlaceLimitOrder(ctx context.Context, symbol string, side models.OrderSide, qty, price decimal.Decimal) (string, error)
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, qty decimal.Decimal) (string, error)
	OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderState, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error

	SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error
	// MaxOpenableQuantity is the venue's own estimate of the largest order
	// the account can open on side at price and leverage.
	MaxOpenableQuantity(ctx context.Context, symbol string, side models.OrderSide, price, leverage decimal.Decimal) (decimal.Decimal, error)
}

// QuoteFeed streams best bid/ask updates into a QuoteCache until ctx ends.
type QuoteFeed interface {
	Run(ctx context.Context, symbols []string, cache *QuoteCache) error
}
