// Package account keeps a cached, periodically refreshed view of equity and
// positions that the execution engine reads without blocking.
package account

import (
	"sync/atomic"
	"time"

	"signal_bot/internal/models"
)

// Snapshot is a lock-free holder of the latest AccountState. Writers replace
// the whole state; readers always see a complete one.
type Snapshot struct {
	state atomic.Pointer[models.AccountState]
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Load returns the current state, or nil before the first refresh.
func (s *Snapshot) Load() *models.AccountState {
	return s.state.Load()
}

func (s *Snapshot) Store(st *models.AccountState) {
	s.state.Store(st)
}

// Position is the cached holding for symbol; zero when unknown.
func (s *Snapshot) Position(symbol string) models.Position {
	return s.Load().Position(symbol)
}

// Age is how long ago the snapshot was taken. ok is false before the first refresh.
func (s *Snapshot) Age(now time.Time) (time.Duration, bool) {
	st := s.Load()
	if st == nil {
		return 0, false
	}
	return now.Sub(st.AsOf), true
}
