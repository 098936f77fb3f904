package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signal_bot/internal/exchange/exchangetest"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeClock fires immediately and records every requested wait.
type fakeClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *fakeClock) After(dur time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, dur)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// blockedClock never fires.
type blockedClock struct{}

func (blockedClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

const sym = "BTCUSDT_UMCBL"

func newController(gw *exchangetest.Gateway, clock Clock, fb config.FallbackQuantity) *OrderLifecycleController {
	return NewOrderLifecycleController(gw, NewRiskValidator(d("200")), clock, LifecycleConfig{
		CheckInterval:    60 * time.Second,
		FallbackQuantity: fb,
	})
}

func limitIntent(side models.OrderSide, qty, price string) models.OrderIntent {
	return models.OrderIntent{
		Symbol:   sym,
		Side:     side,
		Type:     models.OrderTypeLimit,
		Quantity: d(qty),
		Price:    d(price),
		Leverage: d("2"),
	}
}

func TestLifecycleFilled(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenLong, exchangetest.Dec("100"), exchangetest.Dec("10")).Return("o1", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "o1").Return(models.OrderState{Status: models.OrderStatusFilled, FilledQuantity: d("100")}, nil).Once()

	clock := &fakeClock{}
	res, err := newController(gw, clock, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenLong, "100", "10"))
	require.NoError(t, err)

	assert.Equal(t, "o1", res.OrderID)
	assert.Equal(t, models.OutcomeFilled, res.Outcome.Kind)
	assert.Equal(t, []LifecycleState{StateSubmitted, StateWaiting, StateFilled}, res.Trace)
	assert.Equal(t, []time.Duration{60 * time.Second}, clock.waits)
	gw.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertExpectations(t)
}

func TestLifecyclePartialFillCancelsOnce(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenShort, mock.Anything, mock.Anything).Return("o2", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "o2").Return(models.OrderState{Status: models.OrderStatusPartiallyFilled, FilledQuantity: d("4")}, nil).Once()
	gw.On("CancelOrder", mock.Anything, sym, "o2").Return(nil).Once()

	res, err := newController(gw, &fakeClock{}, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenShort, "10", "50"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderOutcome{Kind: models.OutcomePartiallyFilled, Cancelled: true}, res.Outcome)
	assert.Equal(t, "4", res.Filled.String())
	gw.AssertNumberOfCalls(t, "CancelOrder", 1)
	gw.AssertNotCalled(t, "PlaceMarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleUnfilledCancelsOnce(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenLong, mock.Anything, mock.Anything).Return("o3", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "o3").Return(models.OrderState{Status: models.OrderStatusNew}, nil).Once()
	gw.On("CancelOrder", mock.Anything, sym, "o3").Return(errors.New("already gone")).Once()

	res, err := newController(gw, &fakeClock{}, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenLong, "10", "50"))
	require.NoError(t, err)

	assert.Equal(t, models.OrderOutcome{Kind: models.OutcomeUnfilled, Cancelled: false}, res.Outcome)
	assert.Equal(t, []LifecycleState{StateSubmitted, StateWaiting, StateUnfilled}, res.Trace)
	gw.AssertNumberOfCalls(t, "CancelOrder", 1)
}

func TestLifecyclePollErrorIsUnfilled(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenLong, mock.Anything, mock.Anything).Return("o4", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "o4").Return(models.OrderState{}, errors.New("502")).Once()
	gw.On("CancelOrder", mock.Anything, sym, "o4").Return(nil).Once()

	res, err := newController(gw, &fakeClock{}, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenLong, "10", "50"))
	require.NoError(t, err)

	assert.ErrorIs(t, res.ConfirmErr, ErrConfirmationFailure)
	assert.Equal(t, models.OutcomeUnfilled, res.Outcome.Kind)
	assert.True(t, res.Outcome.Cancelled)
	gw.AssertExpectations(t)
}

func TestLifecycleRejectsBeforeSubmit(t *testing.T) {
	gw := &exchangetest.Gateway{}

	_, err := newController(gw, &fakeClock{}, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenLong, "1", "199"))
	assert.ErrorIs(t, err, ErrMinNotional)
	gw.AssertNotCalled(t, "PlaceLimitOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleSubmitFailure(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenLong, mock.Anything, mock.Anything).Return("", errors.New("insufficient margin")).Once()

	clock := &fakeClock{}
	_, err := newController(gw, clock, config.FallbackTarget).Execute(context.Background(), limitIntent(models.OpenLong, "10", "50"))
	assert.ErrorIs(t, err, ErrSubmissionFailure)
	assert.Empty(t, clock.waits)
	gw.AssertNotCalled(t, "OrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleCloseFallback(t *testing.T) {
	tests := []struct {
		name    string
		mode    config.FallbackQuantity
		status  models.OrderStatus
		filled  string
		wantQty string
	}{
		{"unfilled target", config.FallbackTarget, models.OrderStatusNew, "0", "5"},
		{"partial target over-fills", config.FallbackTarget, models.OrderStatusPartiallyFilled, "2", "5"},
		{"partial remaining", config.FallbackRemaining, models.OrderStatusPartiallyFilled, "2", "3"},
		{"unfilled remaining", config.FallbackRemaining, models.OrderStatusNew, "0", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &exchangetest.Gateway{}
			gw.On("PlaceLimitOrder", mock.Anything, sym, models.CloseShort, exchangetest.Dec("5"), exchangetest.Dec("100")).Return("c1", nil).Once()
			gw.On("OrderStatus", mock.Anything, sym, "c1").Return(models.OrderState{Status: tt.status, FilledQuantity: d(tt.filled)}, nil).Once()
			gw.On("CancelOrder", mock.Anything, sym, "c1").Return(nil).Once()
			gw.On("PlaceMarketOrder", mock.Anything, sym, models.CloseShort, exchangetest.Dec(tt.wantQty)).Return("m1", nil).Once()

			res, err := newController(gw, &fakeClock{}, tt.mode).Execute(context.Background(), limitIntent(models.CloseShort, "5", "100"))
			require.NoError(t, err)

			assert.Equal(t, "m1", res.FallbackOrderID)
			assert.Equal(t, tt.wantQty, res.FallbackQuantity.String())
			assert.Equal(t, StateFallbackSubmitted, res.Trace[len(res.Trace)-1])
			gw.AssertNumberOfCalls(t, "PlaceMarketOrder", 1)
			gw.AssertExpectations(t)
		})
	}
}

func TestLifecycleFilledCloseHasNoFallback(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.CloseLong, mock.Anything, mock.Anything).Return("c2", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "c2").Return(models.OrderState{Status: models.OrderStatusFilled}, nil).Once()

	res, err := newController(gw, &fakeClock{}, config.FallbackTarget).Execute(context.Background(), limitIntent(models.CloseLong, "5", "100"))
	require.NoError(t, err)
	assert.Empty(t, res.FallbackOrderID)
	gw.AssertNotCalled(t, "PlaceMarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleFallbackIsRiskChecked(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.CloseLong, mock.Anything, mock.Anything).Return("c3", nil).Once()
	gw.On("OrderStatus", mock.Anything, sym, "c3").Return(models.OrderState{Status: models.OrderStatusPartiallyFilled, FilledQuantity: d("2")}, nil).Once()
	gw.On("CancelOrder", mock.Anything, sym, "c3").Return(nil).Once()

	// 3 remaining at 50 is 150 notional, under the 200 floor
	res, err := newController(gw, &fakeClock{}, config.FallbackRemaining).Execute(context.Background(), limitIntent(models.CloseLong, "5", "50"))
	require.NoError(t, err)
	assert.ErrorIs(t, res.FallbackErr, ErrMinNotional)
	gw.AssertNotCalled(t, "PlaceMarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleCancelledCallerStillConfirms(t *testing.T) {
	gw := &exchangetest.Gateway{}
	gw.On("PlaceLimitOrder", mock.Anything, sym, models.OpenLong, mock.Anything, mock.Anything).Return("o5", nil).Once()
	gw.On("OrderStatus", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), sym, "o5").
		Return(models.OrderState{Status: models.OrderStatusNew}, nil).Once()
	gw.On("CancelOrder", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), sym, "o5").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newController(gw, blockedClock{}, config.FallbackTarget).Execute(ctx, limitIntent(models.OpenLong, "10", "50"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUnfilled, res.Outcome.Kind)
	gw.AssertExpectations(t)
}

func TestLifecycleDefaultsToTargetQuantity(t *testing.T) {
	c := NewOrderLifecycleController(&exchangetest.Gateway{}, NewRiskValidator(decimal.Zero), nil, LifecycleConfig{})
	assert.Equal(t, config.FallbackTarget, c.cfg.FallbackQuantity)
	assert.IsType(t, realClock{}, c.clock)
}
