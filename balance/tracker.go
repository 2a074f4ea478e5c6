// Package balance tracks the balance of the signed-in account.
package balance

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

type Fetcher interface {
	GetBalance(ctx context.Context, address string) (*common.Balance, error)
}

// Snapshot is a read-only copy of the tracker state.
type Snapshot struct {
	Address   string          `json:"address,omitempty"`
	Balance   *common.Balance `json:"balance,omitempty"`
	Error     string          `json:"error,omitempty"`
	IsLoading bool            `json:"is_loading"`
}

type Tracker struct {
	fetcher Fetcher

	lock      sync.RWMutex
	address   string
	balance   *common.Balance
	err       string
	isLoading bool

	// bumped by Invalidate and ClearAll; fetches started under an older
	// epoch drop their result
	epoch    uint64
	onChange func()
}

func NewTracker(fetcher Fetcher) *Tracker {
	return &Tracker{fetcher: fetcher}
}

// OnChange registers a callback run after every state change, outside the
// tracker lock.
func (t *Tracker) OnChange(fn func()) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.onChange = fn
}

func (t *Tracker) SetAddress(address string) {
	t.lock.Lock()
	changed := t.address != address
	t.address = address
	t.lock.Unlock()
	if changed {
		t.changed()
	}
}

// FetchBalance fetches for the current address. It reports whether the
// result was stored. A failed fetch keeps the last known balance.
func (t *Tracker) FetchBalance(ctx context.Context) (bool, error) {
	t.lock.RLock()
	epoch, address := t.epoch, t.address
	t.lock.RUnlock()
	return t.FetchBalanceAt(ctx, epoch, address)
}

// FetchBalanceAt binds address and fetches, but only while the tracker is
// still at epoch. Results arriving after a later Invalidate or ClearAll are
// dropped.
func (t *Tracker) FetchBalanceAt(ctx context.Context, epoch uint64, address string) (bool, error) {
	if address == "" {
		return false, nil
	}
	t.lock.Lock()
	if epoch != t.epoch {
		t.lock.Unlock()
		return false, nil
	}
	t.address = address
	t.isLoading = true
	t.lock.Unlock()
	t.changed()

	balance, err := t.fetcher.GetBalance(ctx, address)

	t.lock.Lock()
	if epoch != t.epoch {
		t.lock.Unlock()
		log.Debug().Str("address", address).Msg("dropping balance for invalidated fetch")
		return false, err
	}
	t.isLoading = false
	if err != nil {
		t.err = err.Error()
	} else {
		t.balance = balance
		t.err = ""
	}
	t.lock.Unlock()
	t.changed()

	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("failed to fetch balance")
	}
	return true, err
}

func (t *Tracker) Epoch() uint64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.epoch
}

// Invalidate forgets the balance of the current context and discards every
// fetch still in flight. The address is kept. It returns the new epoch.
func (t *Tracker) Invalidate() uint64 {
	t.lock.Lock()
	t.epoch++
	epoch := t.epoch
	t.balance = nil
	t.err = ""
	t.isLoading = false
	t.lock.Unlock()
	t.changed()
	return epoch
}

func (t *Tracker) ClearAll() uint64 {
	t.lock.Lock()
	t.epoch++
	epoch := t.epoch
	t.address = ""
	t.balance = nil
	t.err = ""
	t.isLoading = false
	t.lock.Unlock()
	t.changed()
	return epoch
}

func (t *Tracker) Snapshot() Snapshot {
	t.lock.RLock()
	defer t.lock.RUnlock()
	s := Snapshot{
		Address:   t.address,
		Error:     t.err,
		IsLoading: t.isLoading,
	}
	if t.balance != nil {
		b := *t.balance
		s.Balance = &b
	}
	return s
}

func (t *Tracker) changed() {
	t.lock.RLock()
	fn := t.onChange
	t.lock.RUnlock()
	if fn != nil {
		fn()
	}
}
