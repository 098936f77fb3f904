package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a best bid/ask pair.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
	At  time.Time
}

// QuoteCache holds the latest top of book per symbol, written by a QuoteFeed.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	maxAge time.Duration
	now    func() time.Time
}

func NewQuoteCache(maxAge time.Duration) *QuoteCache {
	return &QuoteCache{
		quotes: make(map[string]Quote),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (c *QuoteCache) Set(symbol string, bid, ask decimal.Decimal) {
	c.mu.Lock()
	c.quotes[symbol] = Quote{Bid: bid, Ask: ask, At: c.now()}
	c.mu.Unlock()
}

// Get returns the quote for symbol if one exists and is no older than maxAge.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	q, ok := c.quotes[symbol]
	c.mu.RUnlock()
	if !ok {
		return Quote{}, false
	}
	if c.maxAge > 0 && c.now().Sub(q.At) > c.maxAge {
		return Quote{}, false
	}
	return q, true
}

// Len is the number of symbols with any cached quote.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}

// CachedQuotes serves BestBid/BestAsk from a QuoteCache and falls back to
// the wrapped gateway on a miss or a stale entry.
type CachedQuotes struct {
	Gateway
	cache *QuoteCache
}

func NewCachedQuotes(next Gateway, cache *QuoteCache) *CachedQuotes {
	return &CachedQuotes{Gateway: next, cache: cache}
}

func (g *CachedQuotes) BestBid(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if q, ok := g.cache.Get(symbol); ok && q.Bid.IsPositive() {
		return q.Bid, nil
	}
	return g.Gateway.BestBid(ctx, symbol)
}

func (g *CachedQuotes) BestAsk(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if q, ok := g.cache.Get(symbol); ok && q.Ask.IsPositive() {
		return q.Ask, nil
	}
	return g.Gateway.BestAsk(ctx, symbol)
}
