package balance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

type fakeFetcher struct {
	lock    sync.Mutex
	calls   []string
	results []*common.Balance
	errs    []error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) GetBalance(ctx context.Context, address string) (*common.Balance, error) {
	f.lock.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, address)
	gate, started := f.gate, f.started
	f.lock.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	var result *common.Balance
	var err error
	if idx < len(f.results) {
		result = f.results[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return result, err
}

func punk(amount string) *common.Balance {
	return &common.Balance{Amount: common.Coin{Amount: amount, Denom: "PUNK"}, PrintableBalance: amount + " PUNK"}
}

func TestFetchBalanceSuccess(t *testing.T) {
	f := &fakeFetcher{results: []*common.Balance{punk("100")}}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")

	stored, err := tr.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, stored)

	s := tr.Snapshot()
	require.NotNil(t, s.Balance)
	assert.Equal(t, "100 PUNK", s.Balance.PrintableBalance)
	assert.Empty(t, s.Error)
	assert.False(t, s.IsLoading)
	assert.Equal(t, []string{"n1abc"}, f.calls)
}

func TestFetchBalanceFailureKeepsPreviousBalance(t *testing.T) {
	f := &fakeFetcher{
		results: []*common.Balance{punk("100"), nil},
		errs:    []error{nil, errors.New("rpc unavailable")},
	}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")

	_, err := tr.FetchBalance(context.Background())
	require.NoError(t, err)
	_, err = tr.FetchBalance(context.Background())
	require.Error(t, err)

	s := tr.Snapshot()
	require.NotNil(t, s.Balance)
	assert.Equal(t, "100 PUNK", s.Balance.PrintableBalance)
	assert.Equal(t, "rpc unavailable", s.Error)
	assert.False(t, s.IsLoading)
}

func TestFetchBalanceSuccessClearsError(t *testing.T) {
	f := &fakeFetcher{
		results: []*common.Balance{nil, punk("5")},
		errs:    []error{errors.New("boom"), nil},
	}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")

	_, _ = tr.FetchBalance(context.Background())
	assert.Equal(t, "boom", tr.Snapshot().Error)

	_, err := tr.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tr.Snapshot().Error)
}

func TestFetchBalanceWithoutAddressIsNoop(t *testing.T) {
	f := &fakeFetcher{}
	tr := NewTracker(f)

	stored, err := tr.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Empty(t, f.calls)
}

func TestInvalidateDropsInFlightResult(t *testing.T) {
	f := &fakeFetcher{
		results: []*common.Balance{punk("100")},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")

	done := make(chan bool)
	go func() {
		stored, _ := tr.FetchBalance(context.Background())
		done <- stored
	}()
	<-f.started
	assert.True(t, tr.Snapshot().IsLoading)

	tr.Invalidate()
	assert.False(t, tr.Snapshot().IsLoading)
	close(f.gate)

	assert.False(t, <-done)
	s := tr.Snapshot()
	assert.Nil(t, s.Balance)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "n1abc", s.Address)
}

func TestFetchBalanceAtStaleEpochIsNoop(t *testing.T) {
	f := &fakeFetcher{results: []*common.Balance{punk("100")}}
	tr := NewTracker(f)
	stale := tr.Epoch()
	current := tr.Invalidate()
	require.NotEqual(t, stale, current)

	stored, err := tr.FetchBalanceAt(context.Background(), stale, "n1old")
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Empty(t, f.calls)
	assert.Empty(t, tr.Snapshot().Address)

	stored, err = tr.FetchBalanceAt(context.Background(), current, "n1new")
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "n1new", tr.Snapshot().Address)
}

func TestClearAll(t *testing.T) {
	f := &fakeFetcher{results: []*common.Balance{punk("100")}}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")
	_, _ = tr.FetchBalance(context.Background())

	tr.ClearAll()
	assert.Equal(t, Snapshot{}, tr.Snapshot())
}

func TestOnChangeFires(t *testing.T) {
	f := &fakeFetcher{results: []*common.Balance{punk("1")}}
	tr := NewTracker(f)
	count := 0
	tr.OnChange(func() { count++ })

	tr.SetAddress("n1abc")
	tr.SetAddress("n1abc")
	_, _ = tr.FetchBalance(context.Background())

	// address change, loading, result
	assert.Equal(t, 3, count)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := &fakeFetcher{results: []*common.Balance{punk("100")}}
	tr := NewTracker(f)
	tr.SetAddress("n1abc")
	_, _ = tr.FetchBalance(context.Background())

	s := tr.Snapshot()
	s.Balance.PrintableBalance = "tampered"
	assert.Equal(t, "100 PUNK", tr.Snapshot().Balance.PrintableBalance)
}
