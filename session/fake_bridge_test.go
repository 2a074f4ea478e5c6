package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/database"
)

// fakeBridge answers from canned data. A call whose key has a gate blocks
// until the gate is closed; every call announces its key on entered.
type fakeBridge struct {
	lock  sync.Mutex
	calls map[string]int

	signInAccount *common.Account
	accounts      map[common.Network]*common.Account
	bond          *common.MixnodeBond
	balances      map[string]*common.Balance
	validators    map[common.Network]*common.ValidatorSet
	env           *common.AppEnv

	signInErr          error
	signOutErr         error
	selectErr          error
	bondErr            error
	balanceErr         error
	validatorsErr      error
	selectValidatorErr error

	gates   map[string]chan struct{}
	entered chan string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		calls:         make(map[string]int),
		signInAccount: &common.Account{ClientAddress: "n1signin", Denom: "NYM"},
		accounts: map[common.Network]*common.Account{
			common.Mainnet: {ClientAddress: "n1mainnet", Denom: "NYM"},
			common.Sandbox: {ClientAddress: "n1sandbox", Denom: "NYMT"},
			common.QA:      {ClientAddress: "n1qa", Denom: "NYMT"},
		},
		balances: map[string]*common.Balance{
			"n1mainnet": {Amount: common.Coin{Amount: "100", Denom: "PUNK"}, PrintableBalance: "100 PUNK"},
			"n1sandbox": {Amount: common.Coin{Amount: "7", Denom: "NYMT"}, PrintableBalance: "7 NYMT"},
			"n1qa":      {Amount: common.Coin{Amount: "3", Denom: "NYMT"}, PrintableBalance: "3 NYMT"},
		},
		validators: map[common.Network]*common.ValidatorSet{
			common.Mainnet: {URLs: []string{"https://rpc.nymtech.net"}, Selected: "https://rpc.nymtech.net"},
			common.Sandbox: {URLs: []string{"https://sandbox-validator.nymtech.net"}},
			common.QA:      {URLs: []string{"https://qa-validator.nymtech.net"}},
		},
		env:     &common.AppEnv{},
		gates:   make(map[string]chan struct{}),
		entered: make(chan string, 256),
	}
}

func (f *fakeBridge) gate(key string) chan struct{} {
	f.lock.Lock()
	defer f.lock.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeBridge) enter(ctx context.Context, key string) {
	f.lock.Lock()
	f.calls[key]++
	gate := f.gates[key]
	f.lock.Unlock()

	f.entered <- key
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
}

func (f *fakeBridge) count(key string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[key]
}

func (f *fakeBridge) total() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBridge) set(fn func(f *fakeBridge)) {
	f.lock.Lock()
	defer f.lock.Unlock()
	fn(f)
}

func (f *fakeBridge) SignInWithMnemonic(ctx context.Context, mnemonic string) (*common.Account, error) {
	f.enter(ctx, "signin:mnemonic")
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signInAccount, f.signInErr
}

func (f *fakeBridge) SignInWithPassword(ctx context.Context, password string) (*common.Account, error) {
	f.enter(ctx, "signin:password")
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signInAccount, f.signInErr
}

func (f *fakeBridge) SignOut(ctx context.Context) error {
	f.enter(ctx, "signout")
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signOutErr
}

func (f *fakeBridge) SelectNetwork(ctx context.Context, network common.Network) (*common.Account, error) {
	f.enter(ctx, "select:"+string(network))
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return f.accounts[network], nil
}

func (f *fakeBridge) GetMixnodeBondDetails(ctx context.Context) (*common.MixnodeBond, error) {
	f.enter(ctx, "bond")
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.bond, f.bondErr
}

func (f *fakeBridge) GetBalance(ctx context.Context, address string) (*common.Balance, error) {
	f.enter(ctx, "balance:"+address)
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balances[address], nil
}

func (f *fakeBridge) GetValidatorURLs(ctx context.Context, network common.Network) (*common.ValidatorSet, error) {
	f.enter(ctx, "validators:"+string(network))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.validatorsErr != nil {
		return nil, f.validatorsErr
	}
	return f.validators[network], nil
}

func (f *fakeBridge) SelectValidatorNymdURL(ctx context.Context, url string, network common.Network) (*common.ValidatorAck, error) {
	f.enter(ctx, "select_validator:"+string(network))
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.selectValidatorErr != nil {
		return nil, f.selectValidatorErr
	}
	return &common.ValidatorAck{Network: network, URL: url}, nil
}

func (f *fakeBridge) GetEnv(ctx context.Context) (*common.AppEnv, error) {
	f.enter(ctx, "env")
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.env, nil
}

// drain forgets every call announced so far.
func (f *fakeBridge) drain() {
	for {
		select {
		case <-f.entered:
		default:
			return
		}
	}
}

// waitEntered blocks until the bridge has been entered with key.
func (f *fakeBridge) waitEntered(t *testing.T, key string) {
	t.Helper()
	for k := range f.entered {
		if k == key {
			return
		}
	}
	t.Fatalf("bridge closed before %s was entered", key)
}

type recordingSubscriber struct {
	lock          sync.Mutex
	states        []State
	notifications []common.Notification
	routes        []string
}

func (r *recordingSubscriber) StateChanged(s State) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.states = append(r.states, s)
}

func (r *recordingSubscriber) Notified(n common.Notification) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingSubscriber) Navigate(route string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recordingSubscriber) notificationMessages() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var out []string
	for _, n := range r.notifications {
		out = append(out, n.Message)
	}
	return out
}

func newTestOrchestrator(t *testing.T, b *fakeBridge) (*Orchestrator, *recordingSubscriber) {
	t.Helper()
	db, err := database.NewInMemoryDB()
	require.NoError(t, err)
	o := NewOrchestrator(b, db)
	sub := &recordingSubscriber{}
	o.AddSubscriber(sub)
	t.Cleanup(func() {
		o.Stop()
		_ = db.Close()
	})
	return o, sub
}

// loggedIn returns an orchestrator whose login cascade has completed.
func loggedIn(t *testing.T, b *fakeBridge) (*Orchestrator, *recordingSubscriber) {
	t.Helper()
	o, sub := newTestOrchestrator(t, b)
	require.NoError(t, o.LogIn(context.Background(), LoginRequest{Type: LoginMnemonic, Value: "abc"}))
	o.Wait()
	return o, sub
}
