package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/metrics"
)

const (
	stepSession    = "session"
	stepBond       = "bond_details"
	stepBalance    = "balance"
	stepValidators = "validators"
)

// errStale marks a result that arrived after a newer generation took over.
var errStale = errors.New("stale generation")

// stepResult is the outcome of one cascade step. A failed step never stops
// the steps after it.
type stepResult struct {
	step string
	err  error
}

func (r stepResult) ok() bool {
	return r.err == nil
}

type cascadeStep struct {
	name string
	run  func(ctx context.Context) error
}

func (o *Orchestrator) startCascade(gen, epoch uint64, network common.Network) {
	metrics.RecordCascadeStarted()
	o.spawn(func(ctx context.Context) {
		o.runCascade(ctx, gen, epoch, network)
	})
}

// runCascade resolves the session for network, then bond details, balance
// and the validator set, strictly in that order.
func (o *Orchestrator) runCascade(ctx context.Context, gen, epoch uint64, network common.Network) []stepResult {
	logger := log.With().Str("network", string(network)).Uint64("generation", gen).Logger()
	steps := []cascadeStep{
		{name: stepSession, run: func(ctx context.Context) error { return o.resolveSession(ctx, gen, network) }},
		{name: stepBond, run: func(ctx context.Context) error { return o.fetchBond(ctx, gen) }},
		{name: stepBalance, run: func(ctx context.Context) error { return o.fetchBalance(ctx, gen, epoch) }},
		{name: stepValidators, run: func(ctx context.Context) error {
			_, err := o.fetchValidators(ctx, gen, network, true)
			return err
		}},
	}

	var results []stepResult
	for _, step := range steps {
		if !o.isCurrent(gen) {
			logger.Debug().Str("step", step.name).Msg("cascade superseded, skipping remaining steps")
			metrics.RecordStaleWrite(step.name)
			break
		}
		r := stepResult{step: step.name, err: step.run(ctx)}
		if errors.Is(r.err, errStale) {
			metrics.RecordStaleWrite(step.name)
			logger.Debug().Str("step", step.name).Msg("discarded stale result")
		} else {
			metrics.RecordCascadeStep(step.name, r.ok())
			if !r.ok() {
				logger.Warn().Err(r.err).Str("step", step.name).Msg("cascade step failed")
			}
		}
		results = append(results, r)
	}
	logger.Debug().Int("steps", len(results)).Msg("cascade finished")
	return results
}

func (o *Orchestrator) resolveSession(ctx context.Context, gen uint64, network common.Network) error {
	acc, err := o.bridge.SelectNetwork(ctx, network)

	o.lock.Lock()
	if o.generation != gen {
		o.lock.Unlock()
		return errStale
	}
	if err == nil && acc != nil {
		o.account = acc
		o.resolvedGen = gen
	}
	currency := common.CurrencyFor(network)
	o.currency = &currency
	o.lock.Unlock()
	o.publish()

	if err != nil {
		log.Error().Err(err).Str("network", string(network)).Msg("failed to load account")
		o.notify(common.NotifyError, "Error loading account")
	}
	return err
}

func (o *Orchestrator) fetchBalance(ctx context.Context, gen, epoch uint64) error {
	o.lock.RLock()
	if o.generation != gen {
		o.lock.RUnlock()
		return errStale
	}
	var address string
	if o.account != nil {
		address = o.account.ClientAddress
	}
	o.lock.RUnlock()

	stored, err := o.balance.FetchBalanceAt(ctx, epoch, address)
	if err == nil && !stored && address != "" {
		return errStale
	}
	return err
}
