package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"signal_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowHandler struct {
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
	handled atomic.Int32
	sawDone atomic.Bool
	once    sync.Once
	started chan struct{}
}

func newSlowHandler(delay time.Duration) *slowHandler {
	return &slowHandler{delay: delay, started: make(chan struct{})}
}

func (h *slowHandler) Handle(ctx context.Context, _ models.Signal) {
	h.once.Do(func() { close(h.started) })
	n := h.active.Add(1)
	for {
		m := h.maxSeen.Load()
		if n <= m || h.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	select {
	case <-time.After(h.delay):
	case <-ctx.Done():
		h.sawDone.Store(true)
	}
	h.active.Add(-1)
	h.handled.Add(1)
}

func TestDispatchReturnsImmediately(t *testing.T) {
	h := newSlowHandler(200 * time.Millisecond)
	d := NewDispatcher(h, false, nil)

	start := time.Now()
	d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	require.NoError(t, d.Shutdown(context.Background()))
}

func TestPerSymbolSerialization(t *testing.T) {
	h := newSlowHandler(20 * time.Millisecond)
	d := NewDispatcher(h, true, nil)

	for i := 0; i < 5; i++ {
		d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	}
	d.wg.Wait()

	assert.Equal(t, int32(1), h.maxSeen.Load())
	assert.Equal(t, int32(5), h.handled.Load())
}

func TestDifferentSymbolsRunConcurrently(t *testing.T) {
	h := newSlowHandler(50 * time.Millisecond)
	d := NewDispatcher(h, true, nil)

	d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	d.Dispatch(models.Signal{Ticker: "ETHUSDT"})
	d.wg.Wait()

	assert.Equal(t, int32(2), h.maxSeen.Load())
}

func TestShutdownCancelsInFlight(t *testing.T) {
	h := newSlowHandler(time.Hour)
	d := NewDispatcher(h, false, nil)

	d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	<-h.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	assert.True(t, h.sawDone.Load())
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, models.Signal) { panic("boom") }

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher(panicHandler{}, true, nil)
	d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatchAfterShutdownIsRefused(t *testing.T) {
	h := newSlowHandler(time.Millisecond)
	d := NewDispatcher(h, true, nil)
	require.NoError(t, d.Shutdown(context.Background()))

	err := d.Dispatch(models.Signal{Ticker: "BTCUSDT"})
	assert.ErrorIs(t, err, ErrDispatcherClosed)

	d.wg.Wait()
	assert.Equal(t, int32(0), h.handled.Load())
}

func TestSymbolLocksAreReleased(t *testing.T) {
	h := newSlowHandler(5 * time.Millisecond)
	d := NewDispatcher(h, true, nil)

	for _, tk := range []string{"BTCUSDT", "ETHUSDT", "BTCUSDT", "SOLUSDT", "DOGEUSDT"} {
		require.NoError(t, d.Dispatch(models.Signal{Ticker: tk}))
	}
	d.wg.Wait()

	assert.Equal(t, int32(5), h.handled.Load())
	assert.Zero(t, d.pendingSymbols())
}
