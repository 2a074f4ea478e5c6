// Package session owns the signed-in session, the selected network and
// everything derived from them, and sequences the refresh cascade that runs
// whenever either changes.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/obsidianwallet/obsidian-wallet-client/balance"
	"github.com/obsidianwallet/obsidian-wallet-client/bridge"
	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/database"
)

type Orchestrator struct {
	bridge  bridge.Bridge
	db      database.DB
	balance *balance.Tracker

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	// serializes the synchronous half of login, network switch and logout
	// so generations and balance epochs advance together
	switchLock sync.Mutex

	lock       sync.RWMutex
	phase      Phase
	account    *common.Account
	network    common.Network
	currency   *common.Currency
	bond       BondState
	validators map[common.Network]*common.ValidatorSet
	isLoading  bool
	err        string
	panel      Panel
	appEnv     *common.AppEnv
	generation uint64
	revision   uint64
	started    bool

	// generation whose session step has resolved the account on the bridge
	resolvedGen uint64

	subLock     sync.RWMutex
	subscribers []Subscriber

	validatorCalls singleflight.Group
}

func NewOrchestrator(b bridge.Bridge, db database.DB) *Orchestrator {
	o := &Orchestrator{
		bridge:     b,
		db:         db,
		balance:    balance.NewTracker(b),
		validators: make(map[common.Network]*common.ValidatorSet),
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.balance.OnChange(o.publish)
	return o
}

// Start reads the process environment from the bridge. It runs once; later
// calls are no-ops.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.lock.Lock()
	if o.started {
		o.lock.Unlock()
		return nil
	}
	o.started = true
	o.lock.Unlock()

	env, err := o.bridge.GetEnv(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read app environment")
		return fmt.Errorf("read app environment: %w", err)
	}
	o.lock.Lock()
	o.appEnv = env
	o.lock.Unlock()
	o.publish()
	return nil
}

// Stop abandons every cascade still running and waits for them to return.
func (o *Orchestrator) Stop() {
	o.lock.Lock()
	o.generation++
	o.lock.Unlock()
	o.cancel()
	o.tasks.Wait()
}

// Wait blocks until every background task started so far has finished.
func (o *Orchestrator) Wait() {
	o.tasks.Wait()
}

func (o *Orchestrator) AddSubscriber(s Subscriber) {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	o.subscribers = append(o.subscribers, s)
}

func (o *Orchestrator) State() State {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) LogIn(ctx context.Context, req LoginRequest) error {
	if verr := validateLogin(req); verr != nil {
		o.lock.Lock()
		o.err = verr.Message
		o.lock.Unlock()
		o.publish()
		return verr
	}

	o.lock.Lock()
	if o.phase != LoggedOut {
		o.lock.Unlock()
		return ErrAlreadyLoggedIn
	}
	o.phase = LoggingIn
	o.isLoading = true
	o.err = ""
	gen := o.generation
	o.lock.Unlock()
	o.publish()

	var acc *common.Account
	var err error
	if req.Type == LoginMnemonic {
		acc, err = o.bridge.SignInWithMnemonic(ctx, req.Value)
	} else {
		acc, err = o.bridge.SignInWithPassword(ctx, req.Value)
	}

	o.switchLock.Lock()
	defer o.switchLock.Unlock()

	o.lock.Lock()
	if o.phase != LoggingIn || o.generation != gen {
		o.lock.Unlock()
		log.Info().Msg("login finished after logout, discarding")
		return ErrLoginAborted
	}
	o.isLoading = false
	if err != nil {
		o.phase = LoggedOut
		o.err = err.Error()
		o.lock.Unlock()
		o.publish()
		log.Error().Err(err).Str("type", string(req.Type)).Msg("login failed")
		return err
	}
	o.phase = LoggedIn
	o.account = acc
	o.network = common.DefaultNetwork
	o.generation++
	gen = o.generation
	o.lock.Unlock()

	epoch := o.balance.Invalidate()
	o.startCascade(gen, epoch, common.DefaultNetwork)
	o.publish()
	o.navigate(common.BalanceRoute)
	log.Info().Str("network", string(common.DefaultNetwork)).Msg("logged in")
	return nil
}

func validateLogin(req LoginRequest) *ValidationError {
	switch req.Type {
	case LoginMnemonic, LoginPassword:
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("Unsupported login type %q", req.Type)}
	}
	if len(req.Value) == 0 {
		return &ValidationError{Field: string(req.Type), Message: fmt.Sprintf("A %s must be provided", req.Type)}
	}
	return nil
}

// SwitchNetwork selects network and restarts the refresh cascade for it.
// Data belonging to the previous network is cleared before it returns.
func (o *Orchestrator) SwitchNetwork(network common.Network) error {
	if !network.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}

	o.switchLock.Lock()
	defer o.switchLock.Unlock()

	o.lock.Lock()
	if o.phase != LoggedIn {
		o.lock.Unlock()
		return ErrNotLoggedIn
	}
	if o.network == network {
		o.lock.Unlock()
		return nil
	}
	previous := o.network
	o.network = network
	o.currency = nil
	o.bond = BondState{}
	o.validators = make(map[common.Network]*common.ValidatorSet)
	o.generation++
	gen := o.generation
	o.lock.Unlock()

	epoch := o.balance.Invalidate()
	o.startCascade(gen, epoch, network)
	o.publish()
	log.Info().Str("from", string(previous)).Str("to", string(network)).Uint64("generation", gen).Msg("switched network")
	return nil
}

// LogOut is safe from any phase. It never fails: a bridge error is logged
// and reported through a notification after local state is already cleared.
func (o *Orchestrator) LogOut(ctx context.Context) {
	o.switchLock.Lock()
	o.lock.Lock()
	switch o.phase {
	case LoggingOut:
		o.lock.Unlock()
		o.switchLock.Unlock()
		return
	case LoggedOut:
		// nothing to sign out of, only leftovers of a failed login
		o.err = ""
		o.isLoading = false
		o.lock.Unlock()
		o.switchLock.Unlock()
		o.publish()
		return
	}
	o.phase = LoggingOut
	o.generation++
	o.account = nil
	o.network = ""
	o.currency = nil
	o.bond = BondState{}
	o.validators = make(map[common.Network]*common.ValidatorSet)
	o.err = ""
	o.isLoading = false
	o.panel = PanelNone
	o.lock.Unlock()
	o.balance.ClearAll()
	o.switchLock.Unlock()
	o.publish()

	err := o.bridge.SignOut(ctx)

	o.lock.Lock()
	if o.phase == LoggingOut {
		o.phase = LoggedOut
	}
	o.lock.Unlock()
	o.publish()

	if err != nil {
		log.Error().Err(err).Msg("failed to sign out")
		o.notify(common.NotifyError, fmt.Sprintf("Error logging out: %s", err))
		return
	}
	o.notify(common.NotifySuccess, "Successfully logged out")
}

// RefreshBalance re-fetches the balance of the current session. Until the
// running cascade has resolved the session for the selected network it does
// nothing, so the previous network's address is never queried.
func (o *Orchestrator) RefreshBalance(ctx context.Context) error {
	o.switchLock.Lock()
	o.lock.RLock()
	phase, resolved := o.phase, o.resolvedGen == o.generation
	var address string
	if o.account != nil {
		address = o.account.ClientAddress
	}
	o.lock.RUnlock()
	epoch := o.balance.Epoch()
	o.switchLock.Unlock()

	if phase != LoggedIn {
		return ErrNotLoggedIn
	}
	if !resolved {
		log.Debug().Msg("session not resolved yet, skipping balance refresh")
		return nil
	}
	_, err := o.balance.FetchBalanceAt(ctx, epoch, address)
	return err
}

// TogglePanel opens panel, closing whichever was open, or closes it if it
// is already open. Opening the validator settings loads the validator set
// when none is cached.
func (o *Orchestrator) TogglePanel(panel Panel) error {
	if panel < PanelNone || panel > PanelValidatorSettings {
		return fmt.Errorf("unknown panel %d", int(panel))
	}
	o.lock.Lock()
	if o.panel == panel {
		o.panel = PanelNone
	} else {
		o.panel = panel
	}
	opened := o.panel
	network := o.network
	_, cached := o.validators[network]
	o.lock.Unlock()
	o.publish()

	if opened == PanelValidatorSettings && network != "" && !cached {
		o.spawn(func(ctx context.Context) {
			o.FetchValidatorsURL(ctx, network, false)
		})
	}
	return nil
}

func (o *Orchestrator) spawn(fn func(ctx context.Context)) {
	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()
		fn(o.ctx)
	}()
}

func (o *Orchestrator) isCurrent(gen uint64) bool {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.generation == gen
}

func (o *Orchestrator) snapshotLocked() State {
	s := State{
		Phase:      o.phase,
		Network:    o.network,
		Bond:       o.bond,
		Balance:    o.balance.Snapshot(),
		IsLoading:  o.isLoading,
		Error:      o.err,
		Panel:      o.panel,
		Generation: o.generation,
		Revision:   o.revision,
	}
	if o.account != nil {
		acc := *o.account
		s.Session = &acc
	}
	if o.currency != nil {
		cur := *o.currency
		s.Currency = &cur
	}
	if o.appEnv != nil {
		env := *o.appEnv
		s.AppEnv = &env
		s.IsAdminAddress = env.AdminAddress != "" && s.Session != nil && s.Session.ClientAddress == env.AdminAddress
	}
	if set := o.validators[o.network]; set != nil {
		s.ValidatorSet = copyValidatorSet(set)
	}
	return s
}

// publish hands a fresh snapshot to every subscriber. Snapshots from
// concurrent publishers may arrive out of order; Revision tells them apart.
func (o *Orchestrator) publish() {
	o.lock.Lock()
	o.revision++
	s := o.snapshotLocked()
	o.lock.Unlock()

	for _, sub := range o.subscriberList() {
		sub.StateChanged(s)
	}
}

func (o *Orchestrator) navigate(route string) {
	for _, sub := range o.subscriberList() {
		sub.Navigate(route)
	}
}

func (o *Orchestrator) subscriberList() []Subscriber {
	o.subLock.RLock()
	defer o.subLock.RUnlock()
	return append([]Subscriber(nil), o.subscribers...)
}

func copyValidatorSet(set *common.ValidatorSet) *common.ValidatorSet {
	c := &common.ValidatorSet{Selected: set.Selected}
	c.URLs = append([]string(nil), set.URLs...)
	return c
}
