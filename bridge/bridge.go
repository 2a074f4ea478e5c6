// Package bridge is the boundary to the native wallet backend that signs,
// broadcasts and queries the chain on the orchestrator's behalf.
package bridge

import (
	"context"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

// Bridge is every backend command the session orchestrator depends on.
type Bridge interface {
	SignInWithMnemonic(ctx context.Context, mnemonic string) (*common.Account, error)
	SignInWithPassword(ctx context.Context, password string) (*common.Account, error)
	SignOut(ctx context.Context) error
	SelectNetwork(ctx context.Context, network common.Network) (*common.Account, error)
	// GetMixnodeBondDetails returns nil without error when the account has no bond.
	GetMixnodeBondDetails(ctx context.Context) (*common.MixnodeBond, error)
	GetBalance(ctx context.Context, address string) (*common.Balance, error)
	GetValidatorURLs(ctx context.Context, network common.Network) (*common.ValidatorSet, error)
	SelectValidatorNymdURL(ctx context.Context, url string, network common.Network) (*common.ValidatorAck, error)
	GetEnv(ctx context.Context) (*common.AppEnv, error)
}
