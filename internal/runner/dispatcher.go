package runner

import (
	"context"
	"errors"
	"sync"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

// Handler is what the dispatcher runs per signal.
type Handler interface {
	Handle(ctx context.Context, sig models.Signal)
}

// ErrDispatcherClosed is returned by Dispatch once Shutdown has begun.
var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Dispatcher runs each signal on its own goroutine so the caller returns
// immediately. With perSymbol set, signals for one symbol run one at a time.
type Dispatcher struct {
	h         Handler
	perSymbol bool
	symbolKey func(ticker string) string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	locks  map[string]*symbolLock
}

// symbolLock is dropped from the map when its last holder or waiter leaves.
type symbolLock struct {
	sync.Mutex
	refs int
}

func NewDispatcher(h Handler, perSymbol bool, symbolKey func(string) string) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	if symbolKey == nil {
		symbolKey = func(s string) string { return s }
	}
	return &Dispatcher{
		h:         h,
		perSymbol: perSymbol,
		symbolKey: symbolKey,
		ctx:       ctx,
		cancel:    cancel,
		locks:     make(map[string]*symbolLock),
	}
}

// Dispatch schedules sig and returns without waiting for it.
func (d *Dispatcher) Dispatch(sig models.Signal) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[%s] signal handler panic: %v", sig.Ticker, r)
			}
		}()

		if d.perSymbol {
			key := d.symbolKey(sig.Ticker)
			l := d.acquire(key)
			defer d.release(key, l)
		}
		d.h.Handle(d.ctx, sig)
	}()
	return nil
}

func (d *Dispatcher) acquire(symbol string) *symbolLock {
	d.mu.Lock()
	l, ok := d.locks[symbol]
	if !ok {
		l = &symbolLock{}
		d.locks[symbol] = l
	}
	l.refs++
	d.mu.Unlock()

	l.Lock()
	return l
}

func (d *Dispatcher) release(symbol string, l *symbolLock) {
	l.Unlock()

	d.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, symbol)
	}
	d.mu.Unlock()
}

// pendingSymbols is the number of symbols with a running or queued signal.
func (d *Dispatcher) pendingSymbols() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}

// Shutdown stops accepting signals, cancels in-flight work and waits for it
// until ctx expires. In-flight orders still get their status poll and cancel.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
