package runner

import (
	"context"
	"testing"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEstimateSizesBothSidesAtAsk(t *testing.T) {
	f := newFixture(true, config.FallbackTarget)
	f.snap.Store(models.NewAccountState(d("5000"), nil, time.Now()))
	f.gw.On("BestAsk", mock.Anything, "BTCUSDT_UMCBL").Return(d("10"), nil).Once()

	est, err := f.ex.Estimate(context.Background(), signal(models.ActionBuy, models.SentimentLong))
	require.NoError(t, err)
	assert.Equal(t, "10", est.Price.String())
	assert.Equal(t, "100", est.MaxBuy.String())
	assert.Equal(t, "100", est.MaxSell.String())
	f.gw.AssertNotCalled(t, "BestBid", mock.Anything, mock.Anything)
	f.gw.AssertExpectations(t)
}

func TestEstimateUsesOverride(t *testing.T) {
	f := newFixture(true, config.FallbackTarget)
	f.snap.Store(models.NewAccountState(d("5000"), nil, time.Now()))

	sig := signal(models.ActionSell, models.SentimentShort)
	px := d("20")
	sig.Price = &px

	est, err := f.ex.Estimate(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, "50", est.MaxBuy.String())
	assert.Equal(t, "50", est.MaxSell.String())
	assert.Empty(t, f.gw.Calls)
}
