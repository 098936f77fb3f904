package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal_bot/internal/account"
	"signal_bot/internal/exchange"
	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/pkg/tracing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier receives every execution report.
type Notifier interface {
	Notify(ctx context.Context, r models.ExecutionReport)
}

type ExecutorConfig struct {
	// UseCache reads positions from the account snapshot instead of the exchange.
	UseCache bool
}

// SignalExecutor maps a validated signal onto an open or close and drives
// it through sizing, risk checks and the order lifecycle.
type SignalExecutor struct {
	gw        exchange.Gateway
	snap      *account.Snapshot
	sizer     *PositionSizer
	lifecycle *OrderLifecycleController
	notifier  Notifier
	cfg       ExecutorConfig
	log       *zap.Logger
}

func NewSignalExecutor(
	gw exchange.Gateway,
	snap *account.Snapshot,
	sizer *PositionSizer,
	lifecycle *OrderLifecycleController,
	notifier Notifier,
	cfg ExecutorConfig,
	log *zap.Logger,
) *SignalExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignalExecutor{
		gw:        gw,
		snap:      snap,
		sizer:     sizer,
		lifecycle: lifecycle,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

// ValidateSignal checks the decision-table preconditions without touching the exchange.
func ValidateSignal(sig models.Signal) error {
	if sig.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", ErrInvalidSignal)
	}
	switch {
	case sig.Sentiment == models.SentimentFlat && (sig.Action == models.ActionBuy || sig.Action == models.ActionSell):
	case sig.Action == models.ActionBuy && sig.Sentiment == models.SentimentLong:
	case sig.Action == models.ActionSell && sig.Sentiment == models.SentimentShort:
	default:
		return fmt.Errorf("%w: action=%q sentiment=%q", ErrInvalidSignal, sig.Action, sig.Sentiment)
	}
	if !sig.Leverage.IsPositive() {
		return fmt.Errorf("%w: leverage must be positive, got %s", ErrInvalidSignal, sig.Leverage)
	}
	if !sig.PositionRatio.IsPositive() || sig.PositionRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: position ratio must be in (0, 1], got %s", ErrInvalidSignal, sig.PositionRatio)
	}
	if sig.Price != nil && !sig.Price.IsPositive() {
		return fmt.Errorf("%w: price override must be positive, got %s", ErrInvalidPrice, sig.Price)
	}
	return nil
}

// Handle executes sig and reports the result; errors never escape.
func (e *SignalExecutor) Handle(ctx context.Context, sig models.Signal) {
	rep, err := e.Execute(ctx, sig)

	result := "ok"
	switch {
	case err != nil:
		result = "error"
		e.log.Error("signal failed",
			zap.String("ticker", sig.Ticker),
			zap.String("action", string(sig.Action)),
			zap.String("sentiment", string(sig.Sentiment)),
			zap.Error(err))
	case rep.Skipped != "":
		result = "skipped"
		e.log.Info("signal skipped", zap.String("symbol", rep.Symbol), zap.String("reason", rep.Skipped))
	default:
		e.log.Info("signal executed",
			zap.String("symbol", rep.Symbol),
			zap.String("side", string(rep.Side)),
			zap.String("qty", rep.Quantity.String()),
			zap.String("price", rep.Price.String()),
			zap.String("order_id", rep.OrderID),
			zap.Duration("took", rep.Duration))
	}
	metrics.Signals.WithLabelValues(string(sig.Action), string(sig.Sentiment), result).Inc()

	if e.notifier != nil {
		e.notifier.Notify(ctx, rep)
	}
}

// Execute runs the decision table for sig. The report is always populated
// as far as execution got; err is non-nil when nothing useful happened.
func (e *SignalExecutor) Execute(ctx context.Context, sig models.Signal) (rep models.ExecutionReport, err error) {
	span, ctx := tracing.StartSpan(ctx, "signal.execute")
	span.SetTag("ticker", sig.Ticker)
	defer func() { tracing.Finish(span, err) }()

	rep = models.ExecutionReport{
		Ticker:    sig.Ticker,
		Action:    sig.Action,
		Sentiment: sig.Sentiment,
		Leverage:  sig.Leverage,
		StartedAt: time.Now(),
	}
	defer func() {
		rep.Duration = time.Since(rep.StartedAt)
		rep.Err = err
	}()

	if err := ValidateSignal(sig); err != nil {
		return rep, err
	}

	symbol := e.gw.NormalizeSymbol(sig.Ticker)
	rep.Symbol = symbol

	pos, err := e.position(ctx, symbol)
	if err != nil {
		return rep, err
	}

	if sig.Sentiment == models.SentimentFlat {
		return e.close(ctx, sig, pos, rep)
	}
	return e.open(ctx, sig, rep)
}

func (e *SignalExecutor) position(ctx context.Context, symbol string) (models.Position, error) {
	if e.cfg.UseCache {
		return e.snap.Position(symbol), nil
	}
	ps, err := e.gw.Positions(ctx)
	if err != nil {
		return models.Position{}, fmt.Errorf("read positions: %w", err)
	}
	return models.NewAccountState(decimal.Zero, ps, time.Now()).Position(symbol), nil
}

func (e *SignalExecutor) open(ctx context.Context, sig models.Signal, rep models.ExecutionReport) (models.ExecutionReport, error) {
	side := models.OpenLong
	if sig.Sentiment == models.SentimentShort {
		side = models.OpenShort
	}
	rep.Side = side

	price, err := e.referencePrice(ctx, sig, rep.Symbol, side)
	if err != nil {
		return rep, err
	}
	rep.Price = price

	qty, err := e.sizer.ComputeQuantity(ctx, rep.Symbol, side, price, sig.Leverage, sig.PositionRatio)
	if err != nil {
		return rep, err
	}
	rep.Quantity = qty

	intent := models.OrderIntent{
		Symbol:   rep.Symbol,
		Side:     side,
		Type:     models.OrderTypeLimit,
		Quantity: qty,
		Price:    price,
		Leverage: sig.Leverage,
	}
	// leverage changes only for an order that passed risk checks
	if err := e.lifecycle.Validate(intent); err != nil {
		return rep, err
	}
	if err := e.gw.SetLeverage(ctx, rep.Symbol, sig.Leverage); err != nil {
		e.log.Warn("set leverage failed, continuing", zap.String("symbol", rep.Symbol), zap.Error(err))
	}
	return e.run(ctx, rep, intent)
}

func (e *SignalExecutor) close(ctx context.Context, sig models.Signal, pos models.Position, rep models.ExecutionReport) (models.ExecutionReport, error) {
	var side models.OrderSide
	switch {
	case pos.IsLong():
		side = models.CloseLong
	case pos.IsShort():
		side = models.CloseShort
	default:
		rep.Skipped = "no open position"
		return rep, nil
	}
	rep.Side = side

	qty := pos.Quantity.Abs().Floor()
	rep.Quantity = qty

	price, err := e.referencePrice(ctx, sig, rep.Symbol, side)
	if err != nil {
		return rep, err
	}
	rep.Price = price

	return e.run(ctx, rep, models.OrderIntent{
		Symbol:   rep.Symbol,
		Side:     side,
		Type:     models.OrderTypeLimit,
		Quantity: qty,
		Price:    price,
		Leverage: sig.Leverage,
	})
}

// referencePrice is the override when given, else the touch on the side the
// order trades against: the ask for buys, the bid for sells.
func (e *SignalExecutor) referencePrice(ctx context.Context, sig models.Signal, symbol string, side models.OrderSide) (decimal.Decimal, error) {
	if sig.Price != nil {
		return *sig.Price, nil
	}
	var (
		px  decimal.Decimal
		err error
	)
	if side.IsBuy() {
		px, err = e.gw.BestAsk(ctx, symbol)
	} else {
		px, err = e.gw.BestBid(ctx, symbol)
	}
	if err != nil {
		if errors.Is(err, exchange.ErrNoQuote) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		return decimal.Zero, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if !px.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s quote is %s", ErrInvalidPrice, symbol, px)
	}
	return px, nil
}

func (e *SignalExecutor) run(ctx context.Context, rep models.ExecutionReport, intent models.OrderIntent) (models.ExecutionReport, error) {
	res, err := e.lifecycle.Execute(ctx, intent)
	rep.OrderID = res.OrderID
	if err != nil {
		return rep, err
	}
	outcome := res.Outcome
	rep.Outcome = &outcome
	rep.FallbackOrderID = res.FallbackOrderID
	if res.FallbackErr != nil {
		return rep, res.FallbackErr
	}
	return rep, nil
}
