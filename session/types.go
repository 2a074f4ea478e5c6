package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/obsidianwallet/obsidian-wallet-client/balance"
	"github.com/obsidianwallet/obsidian-wallet-client/common"
)

var (
	ErrAlreadyLoggedIn = errors.New("already logged in, log out first")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrUnknownNetwork  = errors.New("unknown network")
	ErrLoginAborted    = errors.New("login aborted by logout")
)

// ValidationError is raised before any bridge call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Phase int

const (
	LoggedOut Phase = iota
	LoggingIn
	LoggedIn
	LoggingOut
)

var phaseNames = []string{"logged_out", "logging_in", "logged_in", "logging_out"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Panel is the one side panel a view may have open.
type Panel int

const (
	PanelNone Panel = iota
	PanelAdmin
	PanelSettings
	PanelValidatorSettings
)

var panelNames = []string{"none", "admin", "settings", "validator_settings"}

func (p Panel) String() string {
	if int(p) < len(panelNames) {
		return panelNames[p]
	}
	return fmt.Sprintf("panel(%d)", int(p))
}

func (p Panel) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func ParsePanel(s string) (Panel, error) {
	for i, name := range panelNames {
		if strings.EqualFold(s, name) {
			return Panel(i), nil
		}
	}
	return PanelNone, fmt.Errorf("unknown panel %q", s)
}

type LoginType string

const (
	LoginMnemonic LoginType = "mnemonic"
	LoginPassword LoginType = "password"
)

type LoginRequest struct {
	Type  LoginType `json:"type"`
	Value string    `json:"value"`
}

// BondState separates "not known yet" (Settled false) from "known to have
// no bond" (Settled true, Details nil).
type BondState struct {
	Settled bool                `json:"settled"`
	Details *common.MixnodeBond `json:"details"`
}

// State is an immutable snapshot of everything views render.
type State struct {
	Phase          Phase                `json:"phase"`
	Session        *common.Account      `json:"session,omitempty"`
	Network        common.Network       `json:"network,omitempty"`
	Currency       *common.Currency     `json:"currency,omitempty"`
	Bond           BondState            `json:"bond"`
	ValidatorSet   *common.ValidatorSet `json:"validator_set,omitempty"`
	Balance        balance.Snapshot     `json:"balance"`
	IsLoading      bool                 `json:"is_loading"`
	Error          string               `json:"error,omitempty"`
	Panel          Panel                `json:"panel"`
	AppEnv         *common.AppEnv       `json:"app_env,omitempty"`
	IsAdminAddress bool                 `json:"is_admin_address"`
	Generation     uint64               `json:"generation"`
	Revision       uint64               `json:"revision"`
}

// Subscriber receives every state change, notification and navigation
// request. Calls are made synchronously from the mutating goroutine, so
// implementations must not block.
type Subscriber interface {
	StateChanged(state State)
	Notified(notification common.Notification)
	Navigate(route string)
}
