package runner

import (
	"context"
	"fmt"
	"time"

	"signal_bot/internal/exchange"
	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"

	"github.com/shopspring/decimal"
)

// Clock is the only source of scheduled waits in the order lifecycle.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type LifecycleState string

const (
	StateSubmitted         LifecycleState = "submitted"
	StateWaiting           LifecycleState = "waiting"
	StateFilled            LifecycleState = "filled"
	StatePartiallyFilled   LifecycleState = "partially_filled"
	StateUnfilled          LifecycleState = "unfilled"
	StateFallbackSubmitted LifecycleState = "fallback_submitted"
)

type LifecycleConfig struct {
	CheckInterval    time.Duration
	FallbackQuantity config.FallbackQuantity
}

// LifecycleResult describes what happened to one limit order and, for
// closes, the market order that followed it.
type LifecycleResult struct {
	OrderID string
	Outcome models.OrderOutcome
	Filled  decimal.Decimal

	// ConfirmErr is set when the status poll failed; the order was then
	// treated as unfilled.
	ConfirmErr error

	FallbackOrderID  string
	FallbackQuantity decimal.Decimal
	FallbackErr      error

	Trace []LifecycleState
}

func (r *LifecycleResult) enter(s LifecycleState) { r.Trace = append(r.Trace, s) }

// OrderLifecycleController runs submit, wait, poll once, classify, and the
// close-path market fallback.
type OrderLifecycleController struct {
	gw    exchange.Gateway
	risk  *RiskValidator
	clock Clock
	cfg   LifecycleConfig
}

func NewOrderLifecycleController(gw exchange.Gateway, risk *RiskValidator, clock Clock, cfg LifecycleConfig) *OrderLifecycleController {
	if clock == nil {
		clock = realClock{}
	}
	if cfg.FallbackQuantity == "" {
		cfg.FallbackQuantity = config.FallbackTarget
	}
	return &OrderLifecycleController{gw: gw, risk: risk, clock: clock, cfg: cfg}
}

// Validate runs the risk checks Execute applies before submitting intent.
func (c *OrderLifecycleController) Validate(intent models.OrderIntent) error {
	return c.risk.Validate(intent.Price, intent.Quantity)
}

// Execute places intent as a limit order and follows it to a terminal
// outcome. Only validation and submission failures are returned as errors.
func (c *OrderLifecycleController) Execute(ctx context.Context, intent models.OrderIntent) (LifecycleResult, error) {
	var res LifecycleResult

	if err := c.Validate(intent); err != nil {
		return res, err
	}

	id, err := c.gw.PlaceLimitOrder(ctx, intent.Symbol, intent.Side, intent.Quantity, intent.Price)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrSubmissionFailure, err)
	}
	res.OrderID = id
	res.enter(StateSubmitted)
	logger.Info("[%s] limit %s %s @ %s submitted, id=%s", intent.Symbol, intent.Side, intent.Quantity, intent.Price, id)

	// a resting order must be confirmed and cancelled even if the caller gives up
	dctx := context.WithoutCancel(ctx)

	res.enter(StateWaiting)
	select {
	case <-c.clock.After(c.cfg.CheckInterval):
	case <-ctx.Done():
		logger.Warn("[%s] order %s: wait cut short (%v), confirming now", intent.Symbol, id, ctx.Err())
	}

	st, err := c.gw.OrderStatus(dctx, intent.Symbol, id)
	if err != nil {
		res.ConfirmErr = fmt.Errorf("%w: %v", ErrConfirmationFailure, err)
		logger.Error("[%s] order %s: %v", intent.Symbol, id, res.ConfirmErr)
		st = models.OrderState{Status: models.OrderStatusUnknown}
	}
	res.Filled = st.FilledQuantity

	switch st.Status {
	case models.OrderStatusFilled:
		res.Outcome = models.OrderOutcome{Kind: models.OutcomeFilled}
		res.enter(StateFilled)
	case models.OrderStatusPartiallyFilled:
		res.Outcome = models.OrderOutcome{Kind: models.OutcomePartiallyFilled, Cancelled: c.cancel(dctx, intent.Symbol, id)}
		res.enter(StatePartiallyFilled)
	default:
		res.Outcome = models.OrderOutcome{Kind: models.OutcomeUnfilled, Cancelled: c.cancel(dctx, intent.Symbol, id)}
		res.enter(StateUnfilled)
	}
	metrics.Outcomes.WithLabelValues(string(res.Outcome.Kind)).Inc()
	logger.Info("[%s] order %s: %s (filled %s of %s)", intent.Symbol, id, res.Outcome.Kind, st.FilledQuantity, intent.Quantity)

	if intent.Side.IsClose() && res.Outcome.Kind != models.OutcomeFilled {
		c.fallback(dctx, intent, &res)
	}
	return res, nil
}

func (c *OrderLifecycleController) cancel(ctx context.Context, symbol, id string) bool {
	if err := c.gw.CancelOrder(ctx, symbol, id); err != nil {
		logger.Error("[%s] cancel %s failed: %v", symbol, id, err)
		return false
	}
	return true
}

func (c *OrderLifecycleController) fallback(ctx context.Context, limit models.OrderIntent, res *LifecycleResult) {
	qty := limit.Quantity
	if c.cfg.FallbackQuantity == config.FallbackRemaining {
		qty = limit.Quantity.Sub(res.Filled)
		if !qty.IsPositive() {
			logger.Info("[%s] nothing left to close after %s", limit.Symbol, res.OrderID)
			return
		}
	}

	// market orders carry no price; validate against the limit's reference
	intent := models.OrderIntent{
		Symbol:   limit.Symbol,
		Side:     limit.Side,
		Type:     models.OrderTypeMarket,
		Quantity: qty,
		Price:    limit.Price,
		Leverage: limit.Leverage,
	}
	res.FallbackQuantity = qty

	if err := c.risk.Validate(intent.Price, intent.Quantity); err != nil {
		res.FallbackErr = err
		logger.Warn("[%s] market fallback rejected: %v", limit.Symbol, err)
		return
	}

	id, err := c.gw.PlaceMarketOrder(ctx, intent.Symbol, intent.Side, intent.Quantity)
	if err != nil {
		res.FallbackErr = fmt.Errorf("%w: %v", ErrSubmissionFailure, err)
		logger.Error("[%s] market fallback failed: %v", limit.Symbol, err)
		return
	}
	res.FallbackOrderID = id
	res.enter(StateFallbackSubmitted)
	metrics.Fallbacks.Inc()
	logger.Info("[%s] market %s %s submitted, id=%s", intent.Symbol, intent.Side, intent.Quantity, id)
}
