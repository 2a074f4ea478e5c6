package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

// FetchValidatorsURL returns the validator set for network, asking the
// bridge only when nothing is cached or force is set. Concurrent calls for
// one network share a single bridge call. Failures are logged and yield nil.
func (o *Orchestrator) FetchValidatorsURL(ctx context.Context, network common.Network, force bool) *common.ValidatorSet {
	o.lock.RLock()
	gen, phase := o.generation, o.phase
	o.lock.RUnlock()
	if phase != LoggedIn || !network.Valid() {
		return nil
	}
	set, err := o.fetchValidators(ctx, gen, network, force)
	if err != nil {
		return nil
	}
	return set
}

func (o *Orchestrator) fetchValidators(ctx context.Context, gen uint64, network common.Network, force bool) (*common.ValidatorSet, error) {
	o.lock.RLock()
	cached := o.validators[network]
	o.lock.RUnlock()
	if cached != nil && !force {
		return copyValidatorSet(cached), nil
	}

	// the shared call outlives any single caller; each caller only stops waiting
	ch := o.validatorCalls.DoChan(string(network), func() (any, error) {
		return o.bridge.GetValidatorURLs(o.ctx, network)
	})
	var v any
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		log.Error().Err(err).Str("network", string(network)).Msg("failed to fetch validator urls")
		return nil, err
	}
	set, _ := v.(*common.ValidatorSet)
	if set == nil {
		set = &common.ValidatorSet{}
	}

	o.lock.Lock()
	if o.generation != gen {
		o.lock.Unlock()
		return nil, errStale
	}
	o.validators[network] = copyValidatorSet(set)
	o.lock.Unlock()
	o.publish()
	return copyValidatorSet(set), nil
}

// SelectValidatorNymd points the bridge at url for network. It returns nil
// when the bridge refused; callers must treat that as failure.
func (o *Orchestrator) SelectValidatorNymd(ctx context.Context, url string, network common.Network) *common.ValidatorAck {
	ack, err := o.bridge.SelectValidatorNymdURL(ctx, url, network)
	if err != nil {
		log.Error().Err(err).Str("network", string(network)).Str("url", url).Msg("failed to select validator")
		return nil
	}

	o.lock.Lock()
	set := o.validators[network]
	if set != nil {
		set.Selected = url
	}
	o.lock.Unlock()
	if set != nil {
		o.publish()
	}
	return ack
}
