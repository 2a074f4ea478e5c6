package session

import (
	"context"

	"github.com/rs/zerolog/log"
)

// GetBondDetails refetches the mixnode bond of the current session. The
// previous value is cleared first so views can tell "fetching" apart from
// "not bonded". A failure only logs and leaves the value unknown. It is a
// no-op until the session has been resolved for the selected network.
func (o *Orchestrator) GetBondDetails(ctx context.Context) {
	o.lock.RLock()
	gen, phase, resolved := o.generation, o.phase, o.resolvedGen == o.generation
	o.lock.RUnlock()
	if phase != LoggedIn || !resolved {
		return
	}
	_ = o.fetchBond(ctx, gen)
}

func (o *Orchestrator) fetchBond(ctx context.Context, gen uint64) error {
	o.lock.Lock()
	if o.generation != gen {
		o.lock.Unlock()
		return errStale
	}
	o.bond = BondState{}
	o.lock.Unlock()
	o.publish()

	bond, err := o.bridge.GetMixnodeBondDetails(ctx)

	o.lock.Lock()
	if o.generation != gen {
		o.lock.Unlock()
		return errStale
	}
	if err == nil {
		o.bond = BondState{Settled: true, Details: bond}
	}
	o.lock.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("failed to fetch mixnode bond details")
		return err
	}
	o.publish()
	return nil
}
