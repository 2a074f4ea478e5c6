package common

import "time"

type Config struct {
	ServingAddress string `envconfig:"SERVING_ADDRESS"`
	BridgeURL      string `envconfig:"BRIDGE_URL"`
	DataDir        string `envconfig:"DATA_DIR"`
	// cron schedule, empty disables the periodic refresh
	BalanceRefresh string        `envconfig:"BALANCE_REFRESH"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
}

type Network string

const (
	Mainnet Network = "MAINNET"
	Sandbox Network = "SANDBOX"
	QA      Network = "QA"
)

type Currency struct {
	Major string `json:"major"`
	Minor string `json:"minor"`
}

// Account is the session identity returned by the bridge after sign-in or
// network selection.
type Account struct {
	ContractAddress string `json:"contract_address"`
	ClientAddress   string `json:"client_address"`
	Denom           string `json:"denom"`
}

type Coin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

type Balance struct {
	Amount           Coin   `json:"amount"`
	PrintableBalance string `json:"printable_balance"`
}

type MixnodeBond struct {
	Owner          string `json:"owner"`
	Identity       string `json:"identity_key"`
	Host           string `json:"host"`
	PledgeAmount   Coin   `json:"pledge_amount"`
	TotalDelegated Coin   `json:"total_delegation"`
	ProfitMargin   uint8  `json:"profit_margin_percent"`
	Proxy          string `json:"proxy,omitempty"`
}

type ValidatorSet struct {
	URLs     []string `json:"urls"`
	Selected string   `json:"selected,omitempty"`
}

type ValidatorAck struct {
	Network Network `json:"network"`
	URL     string  `json:"url"`
}

type AppEnv struct {
	AdminAddress string `json:"ADMIN_ADDRESS"`
	DevMode      bool   `json:"SHOW_TERMINAL"`
}

type NotificationVariant string

const (
	NotifySuccess NotificationVariant = "success"
	NotifyError   NotificationVariant = "error"
	NotifyInfo    NotificationVariant = "info"
)

type Notification struct {
	ID        string              `json:"id"`
	Variant   NotificationVariant `json:"variant"`
	Message   string              `json:"message"`
	CreatedAt time.Time           `json:"created_at"`
}
