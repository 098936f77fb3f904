package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signal_bot/internal/exchange"
	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Refresher struct {
	gw       exchange.Gateway
	snap     *Snapshot
	interval time.Duration
	now      func() time.Time
}

func NewRefresher(gw exchange.Gateway, snap *Snapshot, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{gw: gw, snap: snap, interval: interval, now: time.Now}
}

// Refresh fetches equity and positions and swaps the snapshot in one store.
// On any error the previous snapshot is kept.
func (r *Refresher) Refresh(ctx context.Context) error {
	var (
		equity    decimal.Decimal
		positions []models.Position
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := r.gw.AvailableEquity(gctx)
		if err != nil {
			return fmt.Errorf("equity: %w", err)
		}
		equity = v
		return nil
	})
	g.Go(func() error {
		v, err := r.gw.Positions(gctx)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		positions = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := models.NewAccountState(equity, positions, r.now())
	r.snap.Store(st)
	metrics.SnapshotAge.Set(float64(st.AsOf.Unix()))

	logger.Info("account refreshed | equity: %s | positions: %s", st.AvailableEquity.StringFixed(2), describePositions(st))
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.Refresh(ctx); err != nil {
		logger.Error("account refresh failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				logger.Error("account refresh failed: %v", err)
			}
		}
	}
}

func describePositions(st *models.AccountState) string {
	if len(st.Positions) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(st.Positions))
	for _, p := range st.Positions {
		parts = append(parts, p.Symbol+" "+p.Quantity.String())
	}
	return strings.Join(parts, " | ")
}
