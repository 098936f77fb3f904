package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"signal_bot/internal/account"
	"signal_bot/internal/exchange/exchangetest"
	"signal_bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshotWith(equity string, positions ...models.Position) *account.Snapshot {
	s := account.NewSnapshot()
	s.Store(models.NewAccountState(d(equity), positions, time.Now()))
	return s
}

func TestCachedSizing(t *testing.T) {
	tests := []struct {
		name   string
		equity string
		ratio  string
		price  string
		lev    string
		margin bool
		want   string
	}{
		{"floors to two", "1000", "0.1", "50", "2", false, "2"},
		{"floors to one", "1000", "0.1", "60", "2", false, "1"},
		{"rounds to zero", "100", "0.1", "60", "2", false, "0"},
		{"margin mode applies leverage", "1000", "0.1", "50", "2", true, "4"},
		{"full ratio", "5000", "1", "10", "1", false, "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &exchangetest.Gateway{}
			s := NewPositionSizer(gw, snapshotWith(tt.equity), SizerConfig{UseCache: true, MarginMode: tt.margin})

			got, err := s.ComputeQuantity(context.Background(), "BTCUSDT_UMCBL", models.OpenLong, d(tt.price), d(tt.lev), d(tt.ratio))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			gw.AssertNotCalled(t, "MaxOpenableQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSizingRejectsNonPositivePrice(t *testing.T) {
	for _, mode := range []bool{true, false} {
		gw := &exchangetest.Gateway{}
		s := NewPositionSizer(gw, snapshotWith("1000"), SizerConfig{UseCache: mode})

		_, err := s.ComputeQuantity(context.Background(), "X", models.OpenLong, decimal.Zero, d("2"), d("0.1"))
		assert.ErrorIs(t, err, ErrInvalidPrice)

		_, err = s.ComputeQuantity(context.Background(), "X", models.OpenLong, d("-1"), d("2"), d("0.1"))
		assert.ErrorIs(t, err, ErrInvalidPrice)
		gw.AssertExpectations(t)
	}
}

func TestLiveSizingScalesExchangeEstimate(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("MaxOpenableQuantity", mock.Anything, "BTCUSDT_UMCBL", models.OpenShort, exchangetest.Dec("100"), exchangetest.Dec("3")).
		Return(d("15.7"), nil).Once()

	s := NewPositionSizer(gw, account.NewSnapshot(), SizerConfig{MaxPurchaseRatio: d("0.5")})
	got, err := s.ComputeQuantity(context.Background(), "BTCUSDT_UMCBL", models.OpenShort, d("100"), d("3"), d("0.1"))
	require.NoError(t, err)
	assert.Equal(t, "7", got.String())
	gw.AssertExpectations(t)
}

func TestLiveSizingFailure(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("MaxOpenableQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(decimal.Zero, errors.New("timeout"))

	s := NewPositionSizer(gw, account.NewSnapshot(), SizerConfig{})
	_, err := s.ComputeQuantity(context.Background(), "X", models.OpenLong, d("10"), d("1"), d("0.1"))
	assert.ErrorIs(t, err, ErrSizingFailure)
}

func TestCachedSizingWithoutSnapshot(t *testing.T) {
	s := NewPositionSizer(&exchangetest.Gateway{}, account.NewSnapshot(), SizerConfig{UseCache: true})
	_, err := s.ComputeQuantity(context.Background(), "X", models.OpenLong, d("10"), d("1"), d("0.1"))
	assert.ErrorIs(t, err, ErrSizingFailure)
}
