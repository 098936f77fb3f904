package exchange_test

import (
	"context"
	"testing"
	"time"

	"signal_bot/internal/exchange"
	"signal_bot/internal/exchange/exchangetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedQuotesServesFreshQuote(t *testing.T) {
	gw := &exchangetest.Gateway{}
	cache := exchange.NewQuoteCache(time.Minute)
	cache.Set("BTCUSDT_UMCBL", decimal.NewFromInt(99), decimal.NewFromInt(101))

	g := exchange.NewCachedQuotes(gw, cache)
	ask, err := g.BestAsk(context.Background(), "BTCUSDT_UMCBL")
	require.NoError(t, err)
	assert.True(t, ask.Equal(decimal.NewFromInt(101)))

	bid, err := g.BestBid(context.Background(), "BTCUSDT_UMCBL")
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromInt(99)))

	gw.AssertNotCalled(t, "BestAsk", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "BestBid", mock.Anything, mock.Anything)
}

func TestCachedQuotesFallsBackOnMiss(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("BestBid", mock.Anything, "ETHUSDT_UMCBL").Return(decimal.NewFromInt(10), nil).Once()

	g := exchange.NewCachedQuotes(gw, exchange.NewQuoteCache(time.Minute))
	bid, err := g.BestBid(context.Background(), "ETHUSDT_UMCBL")
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromInt(10)))
	gw.AssertExpectations(t)
}

func TestQuoteCacheExpires(t *testing.T) {
	cache := exchange.NewQuoteCache(10 * time.Millisecond)
	cache.Set("X", decimal.NewFromInt(1), decimal.NewFromInt(2))
	_, ok := cache.Get("X")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("X")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}
